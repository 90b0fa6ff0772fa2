package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conorfennell/knolstudy/internal/study"
)

func newDecksCmd(withApp runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decks",
		Short: "List and create decks",
	}

	var owner string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the decks of a user",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			decks, err := a.study.ListDecks(cmd.Context(), owner)
			if err != nil {
				return err
			}
			if len(decks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No decks yet.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tName\tParent")
			for _, d := range decks {
				parent := "-"
				if d.ParentID != nil {
					parent = *d.ParentID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, parent)
			}
			return w.Flush()
		}),
	}
	ownerFlag(list, &owner)

	var name, parent string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a deck",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			req := study.CreateDeckRequest{OwnerID: owner, Name: name}
			if parent != "" {
				req.ParentID = &parent
			}
			deck, err := a.study.CreateDeck(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), deck.ID)
			return nil
		}),
	}
	ownerFlag(create, &owner)
	create.Flags().StringVar(&name, "name", "", "deck name")
	create.Flags().StringVar(&parent, "parent", "", "parent deck ID")
	create.MarkFlagRequired("name")

	cmd.AddCommand(list, create)
	return cmd
}
