package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/focustrack/focustrack/internal/format"
)

// NewSessionsCommand creates the sessions command
func NewSessionsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recent focus sessions",
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
			if len(sessions) == 0 {
				fmt.Println("No sessions yet. Run 'focustrack' and press space to start one.")
				return nil
			}
			if limit > 0 && len(sessions) > limit {
				sessions = sessions[:limit]
			}

			for _, s := range sessions {
				var detail string
				switch {
				case s.IsActive:
					detail = "active"
				case s.Completed():
					detail = format.Minutes(s.DurationMinutes)
				default:
					detail = "discarded"
				}
				fmt.Printf("%s  %-10s  %s\n", s.CreatedAt.Format("2006-01-02 15:04"), detail, s.ID)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of sessions to show (0 for all)")
	return cmd
}
