package gateway

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mcoot/domonhunt/internal/bot"
	"github.com/mcoot/domonhunt/internal/model"
)

// Broadcaster delivers announcements to the hubs of their channels
type Broadcaster struct {
	hubs   *Hubs
	logger *slog.Logger
}

var _ bot.Notifier = (*Broadcaster)(nil)

// NewBroadcaster creates a Broadcaster
func NewBroadcaster(hubs *Hubs, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubs:   hubs,
		logger: logger.With(slog.String("component", "broadcaster")),
	}
}

// Notify implements bot.Notifier. Events for channels nobody watches are dropped
func (b *Broadcaster) Notify(_ context.Context, ev model.Event) {
	hub := b.hubs.Get(ev.Channel)
	if hub == nil {
		b.logger.Debug("no watchers for event",
			slog.String("channel", string(ev.Channel)),
			slog.String("event", string(ev.Type)))
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("event", string(ev.Type)),
			slog.String("error", err.Error()))
		return
	}
	hub.BroadcastEvent(string(ev.Type), data)
}
