package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/knolstudy/internal/study"
)

func newDueCmd(withApp runner) *cobra.Command {
	var (
		owner    string
		deck     string
		limit    int
		subDecks bool
	)
	cmd := &cobra.Command{
		Use:   "due",
		Short: "Show the cards of the next study session",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			cards, err := a.study.DueCards(cmd.Context(), study.DueCardsRequest{
				OwnerID:         owner,
				DeckID:          deck,
				Limit:           limit,
				IncludeSubDecks: subDecks,
			})
			if err != nil {
				return err
			}
			if len(cards) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing due. Good job.")
				return nil
			}

			now := time.Now()
			fmt.Fprintf(cmd.OutOrStdout(), "%d cards in this session:\n\n", len(cards))
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tQuestion\tReps\tInterval\tDue")
			for _, c := range cards {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
					c.ID, firstLine(c.Front), c.Repetitions, c.Interval, a.engine.Describe(c.NextReview, now))
			}
			return w.Flush()
		}),
	}
	ownerFlag(cmd, &owner)
	cmd.Flags().StringVar(&deck, "deck", "", "deck ID")
	cmd.Flags().IntVar(&limit, "limit", 0, "session size (default from study.default_limit)")
	cmd.Flags().BoolVar(&subDecks, "subdecks", false, "include cards of sub-decks")
	cmd.MarkFlagRequired("deck")
	return cmd
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	if len(line) > 60 {
		return line[:57] + "..."
	}
	return line
}
