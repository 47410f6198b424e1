package coordinator

import (
	"context"
	"errors"
	"sync"
)

// Context menu entry registered on install.
const (
	MenuItemID       = "study_helper_ask"
	MenuItemTitle    = "Get study hints for selected text"
	ContextSelection = "selection"
)

type MenuItem struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Contexts []string `json:"contexts"`
}

// MenuClick is what the host reports when the user activates an entry.
type MenuClick struct {
	MenuItemID    string `json:"menuItemId" validate:"required"`
	SelectionText string `json:"selectionText"`
	TabID         string `json:"tabId" validate:"required"`
}

// Menus registers context menu entries with the host.
type Menus interface {
	Create(ctx context.Context, item MenuItem) error
}

// MenuRegistry keeps entries in memory for the host shell to read back.
// Creating an id twice replaces the entry.
type MenuRegistry struct {
	mu    sync.RWMutex
	order []string
	items map[string]MenuItem
}

func NewMenuRegistry() *MenuRegistry {
	return &MenuRegistry{items: map[string]MenuItem{}}
}

func (r *MenuRegistry) Create(_ context.Context, item MenuItem) error {
	if item.ID == "" {
		return errors.New("menu item id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		r.order = append(r.order, item.ID)
	}
	r.items[item.ID] = item
	return nil
}

// Items returns the entries in registration order.
func (r *MenuRegistry) Items() []MenuItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MenuItem, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}
