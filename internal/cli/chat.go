package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/mcoot/domonhunt/internal/model"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open an interactive chat session over the websocket gateway",
		Long: `Join --channel as --user. Every line typed is sent as a chat message;
lines starting with "!" are commands. Replies and the channel's
announcements are printed as they arrive. Ctrl+D or Ctrl+C exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.requireUser(); err != nil {
				return err
			}
			return chat(cmd.Context(), bufio.NewScanner(os.Stdin))
		},
	}
}

func gatewayURL() (string, error) {
	u, err := url.Parse(strings.TrimSuffix(cfg.ServerURL, "/") + "/api/v1/gateway")
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	q := url.Values{}
	q.Set("user", cfg.User)
	q.Set("name", cfg.DisplayName())
	q.Set("channel", cfg.Channel)
	if cfg.Scope != "" {
		q.Set("scope", cfg.Scope)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func chat(ctx context.Context, lines *bufio.Scanner) error {
	endpoint, err := gatewayURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}

	conn, _, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer conn.CloseNow()

	out := NewOutput(cfg.Output)
	if cfg.Output != "json" {
		fmt.Printf("Connected to %s as %s. Type !help for commands.\n", cfg.Channel, cfg.DisplayName())
	}

	readErr := make(chan error, 1)
	go func() {
		for {
			var ev model.Event
			if err := wsjson.Read(ctx, conn, &ev); err != nil {
				readErr <- err
				return
			}
			out.Print(ev)
		}
	}()

	sendErr := make(chan error, 1)
	go func() {
		for lines.Scan() {
			text := strings.TrimSpace(lines.Text())
			if text == "" {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, []byte(text)); err != nil {
				sendErr <- err
				return
			}
		}
		sendErr <- lines.Err()
	}()

	select {
	case err := <-readErr:
		if ctx.Err() != nil || websocket.CloseStatus(err) != -1 {
			return nil
		}
		return fmt.Errorf("connection lost: %w", err)
	case err := <-sendErr:
		_ = conn.Close(websocket.StatusNormalClosure, "")
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case <-ctx.Done():
		_ = conn.Close(websocket.StatusNormalClosure, "")
		return nil
	}
}
