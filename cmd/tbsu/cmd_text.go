package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"tbsu/internal/cleaning"
	apperrors "tbsu/internal/errors"
	"tbsu/internal/frame"
	"tbsu/internal/textutil"
)

func (c *cli) epochCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epoch",
		Short: "Encode timestamps as six URL-safe characters and back",
	}

	encode := &cobra.Command{
		Use:   "encode TIME...",
		Short: "Encode times (any common format, UTC unless zoned)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				t, err := dateparse.ParseIn(arg, time.UTC)
				if err != nil {
					return apperrors.NewParsingError(fmt.Sprintf("unrecognised time %q", arg), err)
				}
				code, err := textutil.EncodeEpoch64(t)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		},
	}

	decode := &cobra.Command{
		Use:   "decode CODE...",
		Short: "Decode codes into RFC 3339 UTC times",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, code := range args {
				t, err := textutil.DecodeEpoch64(code)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.AddCommand(encode, decode)
	return cmd
}

func (c *cli) cleanStringCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "clean-string TEXT...",
		Short:   "Turn labels into snake_case identifiers",
		Example: `  tbsu clean-string "Profit & Loss" "userID"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				fmt.Fprintln(cmd.OutOrStdout(), textutil.CleanString(arg))
			}
			return nil
		},
	}
}

func (c *cli) convertDatesCmd() *cobra.Command {
	var (
		columns []string
		layout  string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "convert-dates FILE...",
		Short: "Parse date columns and write the table back out",
		Long: `convert-dates parses the named columns, or every text column whose name
mentions a date or time, into timestamps. Columns that do not parse are left
untouched and reported.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readInputs(cmd, args)
			if err != nil {
				return err
			}

			out, report, err := cleaning.ConvertDates(f, cleaning.DateOptions{
				Columns: columns,
				Layout:  layout,
				InPlace: true,
				Logger:  c.logger,
			})
			if err != nil {
				return err
			}

			if len(report.Converted) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "Converted: %s\n", strings.Join(report.Converted, ", "))
			}
			if len(report.Failed) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "Not converted: %s\n", strings.Join(report.Failed, ", "))
			}
			return writeFrame(cmd, out, output)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&columns, "columns", nil, "columns to convert (default: names containing date or time)")
	flags.StringVar(&layout, "layout", "", "Go time layout; empty infers the format")
	flags.StringVarP(&output, "output", "o", "", "write to a .csv or .xlsx file instead of stdout")
	return cmd
}

func (c *cli) modeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mode FILE COLUMN",
		Short: "Print the most frequent value of a numeric column and its count",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := frame.ReadFile(args[0])
			if err != nil {
				return err
			}
			values, err := f.Column(args[1])
			if err != nil {
				return apperrors.NewValidationError(fmt.Sprintf("column %q not found", args[1]), err)
			}

			value, err := cleaning.ModeValue(values)
			if err != nil {
				return err
			}
			count, err := cleaning.ModeCount(values)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", frame.Format(value), count)
			return nil
		},
	}
}
