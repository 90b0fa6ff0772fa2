package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/knolstudy/internal/importer"
)

func newImportCmd(withApp runner) *cobra.Command {
	var owner, deck string
	cmd := &cobra.Command{
		Use:   "import <directory | git URL>",
		Short: "Import markdown cards into a deck",
		Long: `Import parses Q:/A:/C: cards from every .md file below a directory or a
git repository and adds the ones the deck does not hold yet. The location is
remembered so that "knolstudy sync" can import it again.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			result, err := a.importer.Import(cmd.Context(), owner, deck, args[0])
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		}),
	}
	ownerFlag(cmd, &owner)
	cmd.Flags().StringVar(&deck, "deck", "", "ID of the deck to import into")
	cmd.MarkFlagRequired("deck")
	return cmd
}

func newSyncCmd(withApp runner) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import every registered source again",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			results, err := a.importer.Sync(cmd.Context(), owner)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sources synced. Add one with \"knolstudy import\".")
				return nil
			}
			for _, r := range results {
				printResult(cmd, r)
			}
			return nil
		}),
	}
	ownerFlag(cmd, &owner)
	return cmd
}

func printResult(cmd *cobra.Command, r *importer.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: found %d cards, added %d, already present %d, %d errors.\n",
		r.Source.Path, r.Parsed, r.Added, r.Skipped, len(r.Errors))
	for _, err := range r.Errors {
		fmt.Fprintf(out, "- %s\n", err)
	}
}
