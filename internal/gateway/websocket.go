package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/mcoot/domonhunt/internal/bot"
	"github.com/mcoot/domonhunt/internal/model"
)

// Dispatcher runs chat commands
type Dispatcher interface {
	Dispatch(ctx context.Context, inv bot.Invocation) model.Message
}

// Identity is who a gateway session speaks for and where
type Identity struct {
	User        model.PlayerID
	DisplayName string
	Channel     model.ChannelID
	Scope       model.ScopeID
	Anonymous   bool
}

// session is one websocket connection. Text frames in are chat lines,
// JSON events out are command replies and the channel's broadcasts
type session struct {
	conn       *websocket.Conn
	client     *Client
	dispatcher Dispatcher
	id         Identity
	logger     *slog.Logger
}

// ServeWebsocket upgrades the request and runs a chat session until either
// side closes. Cross-origin browsers are accepted only when their host
// matches one of origins
func ServeWebsocket(w http.ResponseWriter, r *http.Request, hubs *Hubs, dispatcher Dispatcher, id Identity, origins []string, logger *slog.Logger) {
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		logger.Error("failed to accept websocket", slog.String("error", err.Error()))
		return
	}
	defer conn.CloseNow()

	s := &session{
		conn:       conn,
		client:     hubs.Subscribe(id.Channel, string(id.User)),
		dispatcher: dispatcher,
		id:         id,
		logger: logger.With(
			slog.String("player_id", string(id.User)),
			slog.String("channel", string(id.Channel)),
		),
	}
	defer s.client.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.logger.Info("gateway session opened")
	go s.writeLoop(ctx, cancel)
	err = s.readLoop(ctx)

	switch {
	case err == nil, ctx.Err() != nil, websocket.CloseStatus(err) == websocket.StatusNormalClosure,
		websocket.CloseStatus(err) == websocket.StatusGoingAway:
		s.logger.Info("gateway session closed")
		_ = conn.Close(websocket.StatusNormalClosure, "")
	default:
		s.logger.Warn("gateway session failed", slog.String("error", err.Error()))
	}
}

func (s *session) readLoop(ctx context.Context) error {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}
		command, args, ok := bot.Parse(string(data))
		if !ok {
			continue
		}

		reply := s.dispatcher.Dispatch(ctx, bot.Invocation{
			Command:     command,
			Args:        args,
			User:        s.id.User,
			DisplayName: s.id.DisplayName,
			Channel:     s.id.Channel,
			Scope:       s.id.Scope,
			Anonymous:   s.id.Anonymous,
		})
		if reply.IsEmpty() {
			continue
		}
		if err := s.write(ctx, model.Event{
			Type:      model.EventReply,
			Timestamp: time.Now(),
			Channel:   s.id.Channel,
			Message:   reply,
		}); err != nil {
			return err
		}
	}
}

// writeLoop forwards channel broadcasts and keeps the connection alive
func (s *session) writeLoop(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case f, ok := <-s.client.send:
			if !ok {
				_ = s.conn.Close(websocket.StatusGoingAway, "channel closed")
				return
			}
			writeCtx, done := context.WithTimeout(ctx, writeWait)
			err := s.conn.Write(writeCtx, websocket.MessageText, f.data)
			done()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, done := context.WithTimeout(ctx, writeWait)
			err := s.conn.Ping(pingCtx)
			done()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (s *session) write(ctx context.Context, ev model.Event) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	if err := wsjson.Write(writeCtx, s.conn, ev); err != nil {
		return fmt.Errorf("failed to write reply: %w", err)
	}
	return nil
}
