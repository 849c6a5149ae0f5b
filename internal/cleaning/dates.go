package cleaning

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	apperrors "tbsu/internal/errors"
	"tbsu/internal/frame"
)

// DateOptions configures ConvertDates
type DateOptions struct {
	// Columns to convert. Empty selects every string column whose name
	// contains "date" or "time".
	Columns []string
	// Layout is a time.Parse layout. Empty infers the format per value.
	Layout string
	// InPlace rewrites the columns of the input frame. Otherwise a new frame
	// holding only the selected columns is returned.
	InPlace bool
	// Logger receives conversion failures. Nil uses slog.Default.
	Logger *slog.Logger
}

// DateReport lists which columns were converted
type DateReport struct {
	Converted []string
	Failed    []string
}

// ConvertDates parses string date columns into time.Time cells. A column
// with any unparseable value is left as it was and reported as failed.
func ConvertDates(f *frame.Frame, opts DateOptions) (*frame.Frame, DateReport, error) {
	columns := opts.Columns
	if len(columns) == 0 {
		columns = DateColumns(f)
	}
	for _, name := range columns {
		if !f.HasColumn(name) {
			return nil, DateReport{}, apperrors.NewValidationError(
				fmt.Sprintf("column %q not found", name), frame.ErrUnknownColumn).WithContext("column", name)
		}
	}

	target := f
	if !opts.InPlace {
		selected, err := f.Select(columns...)
		if err != nil {
			return nil, DateReport{}, err
		}
		target = selected
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var report DateReport
	for _, name := range columns {
		values, _ := target.Column(name)
		converted, err := parseColumn(values, opts.Layout)
		if err != nil {
			report.Failed = append(report.Failed, name)
			logger.Debug("Date conversion failed",
				slog.String("column", name),
				slog.String("error", err.Error()))
			continue
		}
		if err := target.SetColumn(name, converted); err != nil {
			return nil, DateReport{}, err
		}
		report.Converted = append(report.Converted, name)
	}

	if len(report.Failed) > 0 {
		logger.Warn("Could not convert columns",
			slog.String("columns", strings.Join(report.Failed, ",")))
	}

	return target, report, nil
}

// DateColumns returns the string columns whose name mentions a date or time
func DateColumns(f *frame.Frame) []string {
	var out []string
	for _, name := range f.Columns() {
		lower := strings.ToLower(name)
		if !strings.Contains(lower, "date") && !strings.Contains(lower, "time") {
			continue
		}
		if isStringColumn(f, name) {
			out = append(out, name)
		}
	}
	return out
}

func isStringColumn(f *frame.Frame, name string) bool {
	values, err := f.Column(name)
	if err != nil {
		return false
	}
	seen := false
	for _, v := range values {
		if frame.IsNull(v) {
			continue
		}
		if _, ok := v.(string); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func parseColumn(values []any, layout string) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case nil:
			continue
		case time.Time:
			out[i] = x
		case string:
			if strings.TrimSpace(x) == "" {
				continue
			}
			t, err := parseDate(strings.TrimSpace(x), layout)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			out[i] = t
		default:
			if frame.IsNull(v) {
				continue
			}
			return nil, fmt.Errorf("row %d: %T is not a date string", i, v)
		}
	}
	return out, nil
}

func parseDate(s, layout string) (time.Time, error) {
	if layout != "" {
		return time.Parse(layout, s)
	}
	return dateparse.ParseIn(s, time.UTC)
}
