package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/focustrack/focustrack/internal/format"
	"github.com/focustrack/focustrack/internal/stats"
)

// NewStatsCommand creates the stats command
func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print a focus statistics summary",
		Long:  `Print today/week/month/all-time totals, session counts, and streaks without opening the TUI.`,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			sessions, err := a.sessions.ListSessions(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			now := time.Now()
			agg := stats.New(a.cfg.Location(), a.log)
			summary := agg.Summarize(sessions, now)
			if total, err := a.sessions.TotalMinutes(ctx, user.ID); err == nil {
				summary.TotalMinutes = total
			} else {
				a.log.Warn().Err(err).Msg("total-minutes aggregate unavailable, using client-side sum")
			}

			fmt.Printf("Focus statistics for %s\n\n", user.Email)
			fmt.Printf("  Today            %s\n", format.Minutes(summary.TodayMinutes))
			fmt.Printf("  This week        %s\n", format.Minutes(summary.WeekMinutes))
			fmt.Printf("  This month       %s\n", format.Minutes(summary.MonthMinutes))
			fmt.Printf("  All time         %s\n", format.Minutes(summary.TotalMinutes))
			fmt.Printf("  Sessions         %d\n", summary.TotalSessions)
			fmt.Printf("  Average session  %s\n", format.Minutes(summary.AverageMinutes))
			fmt.Printf("  Longest session  %s\n", format.Minutes(summary.LongestMinutes))
			fmt.Printf("  Current streak   %d days\n", summary.CurrentStreak)
			fmt.Printf("  Max streak       %d days\n", summary.MaxStreak)
			return nil
		},
	}
}
