package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatsCmd(withApp runner) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show study statistics",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			stats, err := a.analytics.GetUserStats(cmd.Context(), owner, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Statistics")
			fmt.Fprintln(out, "----------")
			fmt.Fprintf(out, "Decks:             %d\n", stats.TotalDecks)
			fmt.Fprintf(out, "Cards:             %d\n", stats.TotalCards)
			fmt.Fprintf(out, "Due today:         %d\n", stats.CardsDueToday)
			fmt.Fprintf(out, "Studied today:     %d\n", stats.CardsStudiedToday)
			fmt.Fprintf(out, "Studied this week: %d\n", stats.CardsStudiedThisWeek)
			fmt.Fprintf(out, "Current streak:    %d days\n", stats.CurrentStreak)
			fmt.Fprintf(out, "Longest streak:    %d days\n", stats.LongestStreak)
			fmt.Fprintf(out, "Reviews:           %d\n", stats.TotalReviews)
			fmt.Fprintf(out, "Retention:         %d%%\n", stats.AverageRetention)
			fmt.Fprintln(out)
			for _, day := range stats.RecentActivity {
				fmt.Fprintf(out, "%s  %3d cards  avg %.1f\n", day.Date, day.CardsStudied, day.AverageQuality)
			}
			return nil
		}),
	}
	ownerFlag(cmd, &owner)
	return cmd
}
