package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/focustrack/focustrack/internal/clock"
	"github.com/focustrack/focustrack/internal/stats"
	"github.com/focustrack/focustrack/internal/timer"
	"github.com/focustrack/focustrack/internal/tui"
)

var configPath string

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "focustrack",
		Short: "Track focus sessions from the terminal",
		Long: `focustrack is a TUI application for tracking focus sessions: start and
pause a work timer, complete sessions into your history, and review
daily/weekly/monthly totals, streaks, and a yearly activity calendar.`,
		RunE: runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.focustrack/config.yaml)")
	rootCmd.AddCommand(NewStatsCommand())
	rootCmd.AddCommand(NewSessionsCommand())
	rootCmd.AddCommand(NewRegisterCommand())
	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewLogoutCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	engine := timer.NewEngine(
		a.sessions,
		timer.NewFileSnapshots(a.cfg.SnapshotPath()),
		clock.System{},
		a.log,
		user.ID,
		timer.Options{CloseOnReset: a.cfg.Timer.CloseOnReset},
	)
	engine.Restore()

	a.log.Info().Str("user_id", user.ID).Str("store", a.cfg.Store.Mode).Msg("starting focustrack")

	return tui.Run(tui.Deps{
		Engine:   engine,
		Sessions: a.sessions,
		Presence: a.presence,
		Stats:    stats.New(a.cfg.Location(), a.log),
		User:     user,
		Log:      a.log,
	})
}
