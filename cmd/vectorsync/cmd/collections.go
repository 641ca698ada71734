package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newCollectionsCmd creates the collections command.
func newCollectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List collections in the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			names := rt.engine.ListCollections(cmd.Context())
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no collections")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// newRemoveCmd creates the remove command.
func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <collection>",
		Short: "Remove a collection",
		Long: `Remove drops a collection. Entries shared with other collections
lose this collection's tag; entries owned solely by it are deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.engine.RemoveIndex(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "collection %s removed\n", args[0])
			return nil
		},
	}
}
