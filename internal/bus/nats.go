package bus

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"study-helper/internal/message"
)

// NewNATS constructs a bus publishing to "tabs.<tabID>".
func NewNATS(log *slog.Logger, nc *nats.Conn) Bus {
	return &natsBus{log: log, nc: nc}
}

type natsBus struct {
	log *slog.Logger
	nc  *nats.Conn
}

func subject(tabID string) string {
	return "tabs." + tabID
}

func (b *natsBus) SendToTab(_ context.Context, tabID string, ev message.Event) error {
	if err := ValidateTabID(tabID); err != nil {
		return err
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.nc.Publish(subject(tabID), body)
}

func (b *natsBus) Listen(ctx context.Context, tabID string, handler Handler) error {
	if err := ValidateTabID(tabID); err != nil {
		return err
	}
	sub, err := b.nc.Subscribe(subject(tabID), func(msg *nats.Msg) {
		b.handleMessage(ctx, tabID, msg, handler)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return sub.Unsubscribe()
}

func (b *natsBus) handleMessage(ctx context.Context, tabID string, msg *nats.Msg, handler Handler) {
	var ev message.Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		b.log.Error("failed to decode tab event", "tab_id", tabID, "err", err)
		return
	}
	if err := handler(ctx, ev); err != nil {
		b.log.Error("tab handler failed", "tab_id", tabID, "id", ev.ID, "type", ev.Type, "err", err)
	}
}

func (b *natsBus) Close() error {
	return b.nc.Drain()
}
