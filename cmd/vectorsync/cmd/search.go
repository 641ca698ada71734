package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/vectorsync/internal/indexer"
	"github.com/Aman-CERP/vectorsync/internal/vstore"
)

// newSearchCmd creates the search command.
func newSearchCmd() *cobra.Command {
	var collection string
	var limit int
	var cutoff float64
	var filters []string
	var stepback bool
	var summary bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a collection",
		Long: `Search runs a similarity search over one collection and prints the
matching chunks with their scores. --stepback additionally searches
with a broadened query and fuses the results; --summary assembles the
results into a single context block.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			filter, err := parseFilters(filters)
			if err != nil {
				return err
			}
			req := indexer.SearchRequest{
				CollectionSuffix: collection,
				Query:            args[0],
				Filter:           filter,
				Cutoff:           cutoff,
				Limit:            limit,
			}
			out := cmd.OutOrStdout()

			if summary {
				resp, err := rt.engine.StepbackSummaryIndex(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, resp.Summary)
				return nil
			}

			var resp *indexer.SearchResponse
			if stepback {
				resp, err = rt.engine.StepbackSearchIndex(cmd.Context(), req)
			} else {
				resp, err = rt.engine.SearchIndex(cmd.Context(), req)
			}
			if err != nil {
				return err
			}
			if resp.Message != "" {
				fmt.Fprintln(out, resp.Message)
				return nil
			}
			printResults(out, resp.Results)
			return nil
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Collection to search (required)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results")
	cmd.Flags().Float64Var(&cutoff, "cutoff", 0, "Minimum similarity score (0 disables)")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Metadata equality filter as key=value (repeatable)")
	cmd.Flags().BoolVar(&stepback, "stepback", false, "Fuse results with a step-back query")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print a single assembled context block")
	_ = cmd.MarkFlagRequired("collection")

	return cmd
}

func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filter := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: expected key=value", pair)
		}
		filter[key] = value
	}
	return filter, nil
}

func printResults(out io.Writer, results []*vstore.SearchResult) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		label := r.StorageID
		if name, ok := r.Metadata["filename"].(string); ok && name != "" {
			label = name
		}
		fmt.Fprintf(out, "%2d. %s (score %.3f)\n", i+1, label, r.Score)
		fmt.Fprintln(out, indent(r.Content, "    "))
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
