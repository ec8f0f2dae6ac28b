package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/domonhunt/internal/api/request"
	"github.com/mcoot/domonhunt/internal/api/response"
)

// chatShortcut exposes one chat command as a subcommand
type chatShortcut struct {
	name  string
	args  string
	short string
}

var chatShortcuts = []chatShortcut{
	{"start", "", "Start hunting and receive the starter pack"},
	{"daily", "", "Claim the daily reward"},
	{"inventory", "", "Show your items"},
	{"collection", "", "Show your captured DOMON"},
	{"scan", "", "Scan the live DOMON to claim it"},
	{"capture", "", "Try to capture the DOMON you scanned"},
	{"use", "<item>", "Use an item"},
	{"pick", "<name|#n>", "Pick a DOMON for the running battle"},
	{"move", "<1-4|name>", "Use a move in the running battle"},
}

func newShortcutCmd(c chatShortcut) *cobra.Command {
	use := c.name
	if c.args != "" {
		use += " " + c.args
	}
	return &cobra.Command{
		Use:   use,
		Short: c.short + " (sends !" + c.name + ")",
		RunE: func(cmd *cobra.Command, args []string) error {
			return say(cmd.Context(), "!"+strings.Join(append([]string{c.name}, args...), " "))
		},
	}
}

func newSayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "say <command> [args...]",
		Short: "Send a chat command, e.g. say battle @bob",
		Long: `Send any chat command to the bot as --user in --channel.

The leading "!" is optional:
  domon say '!domodex 2'
  domon say battle @bob`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if !strings.HasPrefix(text, "!") {
				text = "!" + text
			}
			return say(cmd.Context(), text)
		},
	}
}

func say(ctx context.Context, text string) error {
	if err := cfg.requireUser(); err != nil {
		return err
	}

	req := request.CommandRequest{
		User:        cfg.User,
		DisplayName: cfg.DisplayName(),
		Channel:     cfg.Channel,
		Scope:       cfg.Scope,
		Text:        text,
	}
	var result response.CommandReply
	if err := client.Post(ctx, "/api/v1/commands", req, &result); err != nil {
		return err
	}

	out := NewOutput(cfg.Output)
	out.Print(result)
	return nil
}
