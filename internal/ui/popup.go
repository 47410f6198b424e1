package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"study-helper/internal/attachment"
	"study-helper/internal/coordinator"
	"study-helper/internal/message"
	"study-helper/internal/style"
)

// View is what the popup shows.
type View struct {
	Output   string
	Error    bool
	Empty    bool
	Loading  bool
	CanCopy  bool
	CanClear bool
}

// Popup is the question form: a question, a style, and at most one image.
type Popup struct {
	svc      Service
	log      *slog.Logger
	provider message.Provider
	tabID    string

	mu        sync.Mutex
	question  string
	style     style.Style
	image     *attachment.Image
	autoPanel bool
	view      View
}

// NewPopup returns an empty popup asking p. tabID is the active tab, if any.
func NewPopup(log *slog.Logger, svc Service, p message.Provider, tabID string) *Popup {
	return &Popup{
		svc:      svc,
		log:      log,
		provider: p,
		tabID:    tabID,
		style:    style.Concise,
		view:     View{Output: EmptyHint, Empty: true},
	}
}

// Open restores autoPanel and, when it is on, opens the placeholder panel in the active tab.
func (p *Popup) Open(ctx context.Context) error {
	cfg, err := p.svc.Settings(ctx, p.provider)
	if err != nil {
		return fmt.Errorf("restore settings: %w", err)
	}
	p.mu.Lock()
	p.autoPanel = cfg.AutoPanel
	p.mu.Unlock()

	if !cfg.AutoPanel || p.tabID == "" {
		return nil
	}
	if err := p.svc.SendToTab(ctx, p.tabID, message.ProcessSelection(Placeholder)); err != nil {
		// A tab without a listener is normal.
		p.log.Debug("placeholder panel not delivered", "tab_id", p.tabID, "err", err)
	}
	return nil
}

// AutoPanel reports the restored setting.
func (p *Popup) AutoPanel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.autoPanel
}

// SetAutoPanel persists the shared autoPanel flag.
func (p *Popup) SetAutoPanel(ctx context.Context, on bool) error {
	if _, err := p.svc.UpdateSettings(ctx, p.provider, coordinator.SettingsUpdate{AutoPanel: &on}); err != nil {
		return err
	}
	p.mu.Lock()
	p.autoPanel = on
	p.mu.Unlock()
	return nil
}

func (p *Popup) SetQuestion(q string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.question = q
}

func (p *Popup) SetStyle(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.style = style.Parse(s)
}

// Attach replaces the attached image.
func (p *Popup) Attach(img attachment.Image) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.image = &img
}

// Image returns the attached image, if any.
func (p *Popup) Image() (attachment.Image, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.image == nil {
		return attachment.Image{}, false
	}
	return *p.image, true
}

// View returns the current display state.
func (p *Popup) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// Ask sends the question and blocks until the Result arrives. A second Ask
// while one is in flight is ignored.
func (p *Popup) Ask(ctx context.Context) View {
	p.mu.Lock()
	if p.view.Loading {
		v := p.view
		p.mu.Unlock()
		return v
	}
	question := strings.TrimSpace(p.question)
	if question == "" {
		p.view.Output = EmptyQuestion
		p.view.Error = true
		p.view.Empty = false
		v := p.view
		p.mu.Unlock()
		return v
	}
	req := message.Request{Prompt: question, Style: p.style}
	if p.image != nil {
		req.ImageData = p.image.DataURL
	}
	p.view = View{Output: Thinking, Loading: true, CanClear: p.view.CanClear}
	p.mu.Unlock()

	res := p.svc.Ask(ctx, p.provider, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	if res.OK {
		p.view = View{Output: res.Text, CanCopy: true, CanClear: true}
		p.image = nil
	} else {
		p.view = View{Output: Render(res), Error: true, CanClear: p.view.CanClear}
	}
	return p.view
}

// Key handles a key press in the question field. Enter submits only with Ctrl or Meta.
func (p *Popup) Key(ctx context.Context, key string, ctrl, meta bool) (View, bool) {
	if key != "Enter" || !(ctrl || meta) {
		return p.View(), false
	}
	return p.Ask(ctx), true
}

// Copy returns the answer when there is one to copy.
func (p *Popup) Copy() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.view.CanCopy {
		return "", false
	}
	return p.view.Output, true
}

// Clear resets the question, the image and the output.
func (p *Popup) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.view.Loading {
		return
	}
	p.question = ""
	p.image = nil
	p.view = View{Output: EmptyHint, Empty: true}
}
