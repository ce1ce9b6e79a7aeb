package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"snow-search/internal/common/servicenow"
	"snow-search/internal/search"
)

// errSearchFailed makes the process exit non-zero after the failure
// envelope has already been printed.
var errSearchFailed = errors.New("search failed")

func newSearchCmd(a *app) *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one search and print the result envelope",
		Example: `  snow-search search "incidents on 2025-03-01"
  snow-search search "show me CHG0012345" --max-results 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			store, err := servicenow.NewClient(a.cfg.ServiceNow, a.log, nil)
			if err != nil {
				return err
			}
			svc := search.NewService(reg, store, a.searchOptions(), a.log, nil)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			result := svc.Search(ctx, search.Request{
				Query:      strings.Join(args, " "),
				MaxResults: maxResults,
			})
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Success {
				return errSearchFailed
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxResults, "max-results", "n", 0, "maximum records to return (0 uses search.default_max_results)")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
