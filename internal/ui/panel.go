package ui

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"study-helper/internal/message"
	"study-helper/internal/style"
)

// Page is where panels are shown.
type Page interface {
	Mount(p *Panel)
	// Update is called with the panel locked; it must not call Panel methods.
	Update(p *Panel, output string)
	Unmount(p *Panel)
}

// Panel is one floating answer box. Once closed it ignores updates.
type Panel struct {
	ID       uuid.UUID
	Selected string

	mu     sync.Mutex
	output string
	closed bool
	done   chan struct{}
}

func newPanel(selected, output string) *Panel {
	return &Panel{ID: uuid.New(), Selected: selected, output: output, done: make(chan struct{})}
}

// Output returns the text in the hints section.
func (p *Panel) Output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output
}

func (p *Panel) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Done is closed when the panel is closed or replaced.
func (p *Panel) Done() <-chan struct{} {
	return p.done
}

// set renders output unless the panel is already closed.
func (p *Panel) set(page Page, output string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.output = output
	page.Update(p, output)
	return true
}

func (p *Panel) close() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.closed = true
	close(p.done)
	return true
}

// ContentScript keeps at most one panel on a page. Page calls for mounting and
// unmounting happen under its lock; a Page must not call back into it.
type ContentScript struct {
	log      *slog.Logger
	asker    Asker
	provider message.Provider
	page     Page
	style    style.Style

	mu      sync.Mutex
	current *Panel
	wg      sync.WaitGroup
}

// NewContentScript returns a content script asking p. Panel requests use the concise style.
func NewContentScript(log *slog.Logger, asker Asker, p message.Provider, page Page) *ContentScript {
	return &ContentScript{log: log, asker: asker, provider: p, page: page, style: style.Concise}
}

// Start opens the placeholder panel when autoPanel is on. No request is sent.
func (c *ContentScript) Start(autoPanel bool) *Panel {
	if !autoPanel {
		return nil
	}
	return c.open(Placeholder, "")
}

// Trigger replaces the current panel with one for text and requests hints for it.
func (c *ContentScript) Trigger(ctx context.Context, text string) *Panel {
	panel := c.open(text, Loading)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		// A closed or replaced panel no longer needs its answer.
		reqCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-panel.Done():
				cancel()
			case <-reqCtx.Done():
			}
		}()
		res := c.asker.Ask(reqCtx, c.provider, message.Request{Prompt: text, Style: c.style})
		c.update(panel, res)
	}()
	return panel
}

// HandleEvent applies a bus event to the page.
func (c *ContentScript) HandleEvent(ctx context.Context, ev message.Event) error {
	switch ev.Type {
	case message.TypeProcessSelection:
		if ev.Text == Placeholder {
			c.open(Placeholder, "")
			return nil
		}
		c.Trigger(ctx, ev.Text)
	case message.TypeResponse:
		if ev.Data == nil {
			c.log.Warn("response event without data", "event_id", ev.ID)
			return nil
		}
		if p := c.Current(); p != nil {
			c.update(p, *ev.Data)
		}
	default:
		c.log.Debug("ignoring event", "type", ev.Type, "event_id", ev.ID)
	}
	return nil
}

// Current returns the live panel, or nil.
func (c *ContentScript) Current() *Panel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Close removes p from the page if it is still there.
func (c *ContentScript) Close(p *Panel) {
	if p == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == p {
		c.current = nil
	}
	if p.close() {
		c.page.Unmount(p)
	}
}

// Wait blocks until in-flight requests have finished.
func (c *ContentScript) Wait() {
	c.wg.Wait()
}

func (c *ContentScript) open(selected, output string) *Panel {
	panel := newPanel(selected, output)

	// The swap stays under the lock so the page never holds two panels.
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev := c.current; prev != nil && prev.close() {
		c.page.Unmount(prev)
	}
	c.current = panel
	c.page.Mount(panel)
	return panel
}

func (c *ContentScript) update(p *Panel, res message.Result) {
	if !p.set(c.page, Render(res)) {
		c.log.Debug("dropping result for closed panel", "panel_id", p.ID)
	}
}
