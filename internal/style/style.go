package style

import "strings"

// Style enumerates the answer formats a user can pick.
type Style string

const (
	Concise  Style = "concise"
	Detailed Style = "detailed"
	Bullets  Style = "bullets"
)

// All lists the supported styles in the order the popup offers them.
var All = []Style{Concise, Detailed, Bullets}

// Parse normalizes a user supplied value. Unknown values resolve to Concise.
func Parse(s string) Style {
	switch st := Style(strings.ToLower(strings.TrimSpace(s))); st {
	case Detailed, Bullets, Concise:
		return st
	default:
		return Concise
	}
}

// Format returns the instruction injected into the prompt for the given style.
func Format(s Style) string {
	switch s {
	case Detailed:
		return "Detailed answer with structured sections: brief direct answer first, then explanation, examples, and a short summary."
	case Bullets:
		return "Answer as concise bullet points (max 8) plus a one-line takeaway."
	default:
		return "Single-paragraph concise answer (<=80 words)"
	}
}
