package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"snow-search/internal/search"
)

func newExplainCmd(a *app) *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:   "explain <query>",
		Short: "Show how a query would be interpreted without contacting ServiceNow",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			// Explain never reaches the store.
			svc := search.NewService(reg, nil, a.searchOptions(), a.log, nil)

			plan, err := svc.Explain(search.Request{
				Query:      strings.Join(args, " "),
				MaxResults: maxResults,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), plan)
		},
	}

	cmd.Flags().IntVarP(&maxResults, "max-results", "n", 0, "maximum records to return (0 uses search.default_max_results)")
	return cmd
}
