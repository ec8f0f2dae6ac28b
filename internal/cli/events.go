package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/domonhunt/internal/model"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events [channel]",
		Short: "Stream a channel's announcements over SSE",
		Long: `Connect to the channel's SSE endpoint and stream events in real-time.

Events include:
  - spawn_appeared: A DOMON spawned
  - claim_expired: A scan claim lapsed
  - claim_forfeited: A failed capture freed the DOMON
  - boost_activated: A Scan Tool boosted spawns
  - battle_started, battle_turn, battle_ended: Battle progress

The channel defaults to --channel. Press Ctrl+C to disconnect.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel := cfg.Channel
			if len(args) == 1 {
				channel = args[0]
			}
			return streamEvents(cmd.Context(), channel, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func streamEvents(ctx context.Context, channel string, jsonOutput bool) error {
	path := "/api/v1/channels/" + url.PathEscape(channel) + "/events"
	if cfg.User != "" {
		path += "?user=" + url.QueryEscape(cfg.User)
	}

	resp, err := client.Stream(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if !jsonOutput {
		fmt.Printf("Watching channel %s\n", channel)
	}

	// Parse SSE stream
	scanner := bufio.NewScanner(resp.Body)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "event: ") {
			currentEvent = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		} else if line == "" {
			// End of event
			if currentEvent != "" {
				printSSEEvent(currentEvent, strings.Join(dataLines, "\n"), jsonOutput)
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil {
		// Context cancellation is expected
		if ctx.Err() != nil {
			if !jsonOutput {
				fmt.Println("\nDisconnected")
			}
			return nil
		}
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		fmt.Println("Disconnected")
	}
	return nil
}

func printSSEEvent(event, data string, jsonOutput bool) {
	if jsonOutput {
		evt := SSEEvent{
			Time:  time.Now(),
			Event: event,
			Data:  data,
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Println(string(jsonData))
		return
	}

	var ev model.Event
	if err := json.Unmarshal([]byte(data), &ev); err != nil || ev.Type == "" {
		if cfg.Verbose {
			fmt.Printf("%s: %s\n", event, data)
		}
		return
	}
	NewOutput("text").Print(ev)
}
