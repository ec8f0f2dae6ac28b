package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/domonhunt/internal/api/response"
	"github.com/mcoot/domonhunt/internal/model"
)

func newPlayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "player [id]",
		Short: "Show a player's ledger entry, defaults to --user",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := cfg.User
			if len(args) == 1 {
				id = args[0]
			}
			if id == "" {
				return cfg.requireUser()
			}

			var result response.Player
			if err := client.Get(cmd.Context(), "/api/v1/players/"+url.PathEscape(id), &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newSpawnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spawn",
		Short: "Show the live spawn",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Spawn
			if err := client.Get(cmd.Context(), "/api/v1/spawn", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newBattleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "battle",
		Short: "Show the battle running in --scope (or --channel)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result model.BattleView
			if err := client.Get(cmd.Context(), "/api/v1/battles/"+url.PathEscape(cfg.BattleScope()), &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newDomodexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "domodex [page]",
		Short: "List a page of the domodex",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return err
				}
				page = n
			}

			var result response.DomodexPage
			if err := client.Get(cmd.Context(), "/api/v1/domodex?page="+strconv.Itoa(page), &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <name|number>",
		Short: "Show a DOMON's domodex entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result model.Creature
			if err := client.Get(cmd.Context(), "/api/v1/domodex/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Health

			if err := client.Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
