package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	loaded, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
		loaded = &Config{ServerURL: "http://localhost:8080", Channel: "general", Output: "text"}
	}
	cfg = loaded

	rootCmd := &cobra.Command{
		Use:   "domon",
		Short: "CLI tool for the DOMON hunt bot",
		Long: `domon talks to a DOMON hunt server over its HTTP gateway.

It can send chat commands as a player, inspect players, the live spawn,
battles and the domodex, stream a channel's announcements over SSE and
open an interactive websocket chat session.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.ServerURL, cfg.Token)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: DOMON_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Gateway token (env: DOMON_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&cfg.User, "user", "u", cfg.User, "Player id to act as (env: DOMON_USER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Name, "name", cfg.Name, "Display name (env: DOMON_NAME)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Channel, "channel", "c", cfg.Channel, "Channel (env: DOMON_CHANNEL)")
	rootCmd.PersistentFlags().StringVar(&cfg.Scope, "scope", cfg.Scope, "Battle scope, defaults to the channel (env: DOMON_SCOPE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newSayCmd())
	for _, c := range chatShortcuts {
		rootCmd.AddCommand(newShortcutCmd(c))
	}
	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newSpawnCmd())
	rootCmd.AddCommand(newBattleCmd())
	rootCmd.AddCommand(newDomodexCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command. Ctrl+C cancels the running request or stream
func Execute() {
	ctx, stop := signalContext()
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		NewOutput(cfg.Output).PrintError(err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
