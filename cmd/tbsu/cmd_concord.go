package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tbsu/internal/concord"
)

func (c *cli) concordCmd() *cobra.Command {
	var (
		keyA, keyB, within []string
		expand, keepIDs    bool
		maxIterations      int
		verbose            bool
		output             string
	)

	cmd := &cobra.Command{
		Use:   "concord FILE...",
		Short: "Assign a group id to every connected set of linked keys",
		Long: `concord reads one or more CSV/XLSX tables, treats every row as a link
between a key-A value and a key-B value and assigns each link the id of the
connected component it belongs to. Without --key-a/--key-b the first two
columns are the keys.`,
		Example: `  tbsu concord links.csv
  tbsu concord --key-a person_id --key-b email --within country people.xlsx -o groups.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := readInputs(cmd, args)
			if err != nil {
				return err
			}

			cfg := c.cfg.Concord
			if cmd.Flags().Changed("max-iterations") {
				cfg.MaxIterations = maxIterations
			}
			if verbose {
				cfg.Verbose = true
			}

			opts := []concord.Option{concord.WithMetrics(c.app.Metrics)}
			if cfg.Verbose {
				opts = append(opts, concord.WithProgress(func(p concord.Progress) {
					fmt.Fprintf(cmd.ErrOrStderr(), "iteration %d: %d of %d links unsettled (%.1f%%)\n",
						p.Iteration, p.Unsettled, p.Total, 100*p.Fraction())
				}))
			}
			resolver := concord.NewResolver(cfg, c.logger, opts...)

			req := concord.Request{Within: within, Expand: expand, KeepIDs: keepIDs}
			if len(keyA) > 0 || len(keyB) > 0 {
				req.Keys = []concord.Columns{keyA, keyB}
			}

			out, stats, err := resolver.Resolve(ctx, f, req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "%d rows, %d unique links, %d groups after %d iterations\n",
				stats.InputRows, stats.UniqueLinks, stats.Groups, stats.Iterations)
			return writeFrame(cmd, out, output)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&keyA, "key-a", nil, "columns forming key A")
	flags.StringSliceVar(&keyB, "key-b", nil, "columns forming key B")
	flags.StringSliceVar(&within, "within", nil, "columns that scope the grouping")
	flags.BoolVar(&expand, "expand", false, "keep every input row and column instead of one row per link")
	flags.BoolVar(&keepIDs, "keep-ids", false, "include the id0/id1 columns")
	flags.IntVar(&maxIterations, "max-iterations", 0, "stop with an error after this many passes (0: no cap)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "report progress after every pass")
	flags.StringVarP(&output, "output", "o", "", "write to a .csv or .xlsx file instead of stdout")
	return cmd
}
