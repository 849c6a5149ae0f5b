package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"tbsu/internal/files"
	"tbsu/internal/frame"
)

// readInputs expands file, directory and glob arguments and stacks the tables
func readInputs(cmd *cobra.Command, inputs []string) (*frame.Frame, error) {
	paths, err := files.Expand(inputs...)
	if err != nil {
		return nil, err
	}
	return frame.ReadFiles(cmd.Context(), paths...)
}

// writeFrame prints f as CSV on stdout, or saves it when path is set
func writeFrame(cmd *cobra.Command, f *frame.Frame, path string) error {
	if path == "" || path == "-" {
		return frame.WriteCSV(cmd.OutOrStdout(), f)
	}
	if err := frame.WriteFile(path, f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", f.Len(), path)
	return nil
}

func printTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
