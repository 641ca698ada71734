package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/vectorsync/internal/indexer"
	"github.com/Aman-CERP/vectorsync/internal/loader"
)

// newIndexCmd creates the index command.
func newIndexCmd() *cobra.Command {
	var collection string
	var path string
	var include string
	var clean bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index a directory into a collection",
		Long: `Index walks a directory tree and indexes its files into the given
collection. Unchanged files (by content hash) are skipped; changed
files replace their previous chunks.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			var progress indexer.ProgressFunc
			if !quiet {
				progress = func(msg string) {
					fmt.Fprintln(cmd.OutOrStdout(), msg)
				}
			}

			result, err := rt.engine.IndexData(cmd.Context(), indexer.IndexRequest{
				Loader:           loader.NewFSLoader(rt.logger),
				CollectionSuffix: collection,
				CleanIndex:       clean,
				LoaderParams: map[string]any{
					"path":    path,
					"include": include,
				},
				Progress: progress,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"collection %s: %d chunks indexed, %d removed, %d files unchanged\n",
				collection, result.Indexed, result.Deleted, result.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Target collection name (required)")
	cmd.Flags().StringVarP(&path, "path", "p", ".", "Directory to index")
	cmd.Flags().StringVar(&include, "include", "", "Glob limiting files to index (e.g. '*.md')")
	cmd.Flags().BoolVar(&clean, "clean", false, "Drop the collection's existing entries first")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	_ = cmd.MarkFlagRequired("collection")

	return cmd
}
