package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"study-helper/internal/app"
	"study-helper/internal/attachment"
	"study-helper/internal/message"
	"study-helper/internal/style"
	"study-helper/internal/ui"
)

type options struct {
	provider    string
	style       string
	image       string
	pdf         string
	tabID       string
	interactive bool
	autoPanel   *bool
}

func main() {
	if err := mainImpl(); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	cfg, log, c, err := app.BuildClient()
	if err != nil {
		return err
	}

	var opts options
	flag.StringVar(&opts.provider, "provider", cfg.Provider, "gemini, openrouter (deepseek) or groq")
	flag.StringVar(&opts.style, "style", string(style.Concise), "concise, detailed or bullets")
	flag.StringVar(&opts.image, "image", "", "attach an image file")
	flag.StringVar(&opts.pdf, "pdf", "", "append the text of a PDF to the question")
	flag.StringVar(&opts.tabID, "tab", cfg.TabID, "active tab for the auto panel")
	flag.BoolVar(&opts.interactive, "i", false, "interactive mode")
	flag.Func("auto-panel", "persist the auto panel setting (true or false)", func(s string) error {
		on, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		opts.autoPanel = &on
		return nil
	})
	flag.Parse()

	p, err := message.ParseProvider(opts.provider)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	popup := ui.NewPopup(log, c, p, opts.tabID)
	if err := popup.Open(ctx); err != nil {
		log.Warn("could not restore settings", "err", err)
	}
	if opts.autoPanel != nil {
		if err := popup.SetAutoPanel(ctx, *opts.autoPanel); err != nil {
			return fmt.Errorf("save auto panel: %w", err)
		}
		color.Green("Auto panel: %t", *opts.autoPanel)
	}
	popup.SetStyle(opts.style)
	if opts.image != "" {
		img, err := attachment.ImageFromFile(opts.image)
		if err != nil {
			return err
		}
		popup.Attach(img)
	}
	pdfText := ""
	if opts.pdf != "" {
		if pdfText, err = attachment.PDFFromFile(opts.pdf); err != nil {
			return err
		}
		var truncated bool
		if pdfText, truncated = attachment.Excerpt(pdfText, attachment.MaxDocumentWords); truncated {
			color.Yellow("Document truncated to its first %d words.", attachment.MaxDocumentWords)
		}
	}

	if opts.interactive {
		return repl(ctx, popup, pdfText)
	}
	question := strings.Join(flag.Args(), " ")
	if question == "" && opts.autoPanel != nil {
		return nil
	}
	popup.SetQuestion(withDocument(question, pdfText))
	view := popup.Ask(ctx)
	render(os.Stdout, view)
	if view.Error {
		return errors.New("request failed")
	}
	return nil
}

func repl(ctx context.Context, popup *ui.Popup, pdfText string) error {
	rl, err := readline.New(color.CyanString("? "))
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()
	render(rl.Stdout(), popup.View())
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			return nil
		}
		if quit := handleLine(ctx, popup, line, &pdfText, rl.Stdout()); quit {
			return nil
		}
	}
}

// handleLine runs a REPL command (":style", ":image", ":copy", ":clear", ":quit")
// or asks the line as a question. The document goes with the first question only.
func handleLine(ctx context.Context, popup *ui.Popup, line string, doc *string, out io.Writer) bool {
	line = strings.TrimSpace(line)
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case ":quit", ":q":
		return true
	case ":style":
		popup.SetStyle(arg)
		fmt.Fprintf(out, "style: %s\n", style.Parse(arg))
	case ":image":
		img, err := attachment.ImageFromFile(strings.TrimSpace(arg))
		if err != nil {
			fmt.Fprintln(out, color.RedString("%v", err))
			return false
		}
		popup.Attach(img)
		fmt.Fprintf(out, "attached %s (%s)\n", img.Name, img.MimeType)
	case ":copy":
		if text, ok := popup.Copy(); ok {
			fmt.Fprintln(out, text)
		} else {
			fmt.Fprintln(out, color.YellowString("Nothing to copy."))
		}
	case ":clear":
		popup.Clear()
		render(out, popup.View())
	default:
		popup.SetQuestion(withDocument(line, *doc))
		if line != "" {
			fmt.Fprintln(out, color.HiBlackString(ui.Thinking))
		}
		v := popup.Ask(ctx)
		if v.Output != ui.EmptyQuestion {
			*doc = ""
		}
		render(out, v)
	}
	return false
}

func withDocument(question, doc string) string {
	doc = strings.TrimSpace(doc)
	if doc == "" || strings.TrimSpace(question) == "" {
		return question
	}
	return question + "\n\nDocument:\n" + doc
}

func render(out io.Writer, v ui.View) {
	switch {
	case v.Error:
		fmt.Fprintln(out, color.RedString("%s", v.Output))
	case v.Empty:
		fmt.Fprintln(out, color.HiBlackString("%s", v.Output))
	default:
		fmt.Fprintln(out, v.Output)
	}
}
