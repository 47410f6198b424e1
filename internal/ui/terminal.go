package ui

import (
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// TerminalPage renders panels as text blocks on a writer.
type TerminalPage struct {
	mu sync.Mutex
	w  io.Writer

	title   *color.Color
	section *color.Color
	errC    *color.Color
	dim     *color.Color
}

// NewTerminalPage writes to w. Colors follow color.NoColor.
func NewTerminalPage(w io.Writer) *TerminalPage {
	return &TerminalPage{
		w:       w,
		title:   color.New(color.FgCyan, color.Bold),
		section: color.New(color.FgWhite, color.Bold),
		errC:    color.New(color.FgRed),
		dim:     color.New(color.FgHiBlack),
	}
}

func (t *TerminalPage) Mount(p *Panel) {
	out := p.Output()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.title.Fprintln(t.w, "Study Helper")
	t.section.Fprintln(t.w, "Selected:")
	t.dim.Fprintln(t.w, p.Selected)
	if out != "" {
		t.section.Fprintln(t.w, "Hints:")
		t.write(out)
	}
}

func (t *TerminalPage) Update(_ *Panel, output string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.section.Fprintln(t.w, "Hints:")
	t.write(output)
}

func (t *TerminalPage) Unmount(_ *Panel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dim.Fprintln(t.w, "(panel closed)")
}

func (t *TerminalPage) write(out string) {
	if strings.HasPrefix(out, ErrorPrefix) {
		t.errC.Fprintln(t.w, out)
		return
	}
	_, _ = io.WriteString(t.w, out+"\n")
}
