package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "tbsu/internal/errors"
	"tbsu/internal/warehouse"
)

// parseRanges turns column=min:max flags into dedupe ranges
func parseRanges(values []string) (map[string][2]any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ranges := make(map[string][2]any, len(values))
	for _, value := range values {
		column, bounds, ok := strings.Cut(value, "=")
		low, high, ok2 := strings.Cut(bounds, ":")
		if !ok || !ok2 || column == "" {
			return nil, apperrors.NewValidationError(fmt.Sprintf("range %q is not column=min:max", value), nil)
		}
		ranges[column] = [2]any{low, high}
	}
	return ranges, nil
}

func (c *cli) loadCmd() *cobra.Command {
	var (
		table      string
		conflict   string
		dupes      string
		dupeKeys   []string
		ranges     []string
		grant      []string
		grantTypes []string
	)

	cmd := &cobra.Command{
		Use:   "load FILE...",
		Short: "Bulk-load CSV/XLSX tables into a warehouse table",
		Example: `  tbsu load --table analytics.scores scores.csv
  tbsu load --table scores --conflict append --dupes update --dupe-keys id,day \
      --range day=2024-01-01:2024-01-31 --grant reporting scores_jan.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dedupeRange, err := parseRanges(ranges)
			if err != nil {
				return err
			}

			f, err := readInputs(cmd, args)
			if err != nil {
				return err
			}

			loader, err := c.app.Loader(ctx)
			if err != nil {
				return err
			}

			n, err := loader.Load(ctx, f, table, warehouse.LoadOptions{
				Conflict:    warehouse.ConflictPolicy(conflict),
				Dupes:       warehouse.DupePolicy(dupes),
				DupeKeys:    dupeKeys,
				DedupeRange: dedupeRange,
				Grant:       grant,
				GrantTypes:  grantTypes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d rows into %s\n", n, table)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&table, "table", "t", "", "target table, optionally schema qualified")
	flags.StringVar(&conflict, "conflict", string(warehouse.ConflictFail), "when the table exists: fail, append or replace")
	flags.StringVar(&dupes, "dupes", string(warehouse.DupesInclude), "rows whose keys exist: include, ignore or update")
	flags.StringSliceVar(&dupeKeys, "dupe-keys", nil, "columns identifying a row")
	flags.StringArrayVar(&ranges, "range", nil, "limit the duplicate lookup, column=min:max (repeatable)")
	flags.StringSliceVar(&grant, "grant", nil, "roles granted access after the load")
	flags.StringSliceVar(&grantTypes, "grant-types", nil, "privileges granted (default SELECT)")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func (c *cli) queryCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "query SQL [ARG...]",
		Short:   "Run a query against the warehouse and print the result as CSV",
		Example: `  tbsu query "SELECT * FROM scores WHERE day >= $1" 2024-01-01 -o scores.xlsx`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.app.ConnectWarehouse(ctx); err != nil {
				return err
			}

			params := make([]any, len(args)-1)
			for i, a := range args[1:] {
				params[i] = a
			}

			f, err := warehouse.Query(ctx, c.app.Pool, args[0], params...)
			if err != nil {
				return err
			}
			return writeFrame(cmd, f, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a .csv or .xlsx file instead of stdout")
	return cmd
}
