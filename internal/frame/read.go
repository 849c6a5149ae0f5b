package frame

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedFormat is returned by ReadFile for unknown extensions
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ReadCSV reads a CSV table whose first record is the header
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return New(nil)
	}
	return fromRecords(trimBOM(records[0]), records[1:])
}

// ReadXLSX reads a worksheet whose first row is the header. An empty sheet
// name selects the first sheet of the workbook.
func ReadXLSX(path, sheet string) (*Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return New(nil)
	}
	return fromRecords(rows[0], rows[1:])
}

// ReadFile reads a .csv, .xlsx or .xlsm file
func ReadFile(path string) (*Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer file.Close()
		return ReadCSV(file)
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, "")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReadFiles reads every path concurrently and concatenates the results in
// argument order. All files must share the same columns.
func ReadFiles(ctx context.Context, paths ...string) (*Frame, error) {
	frames := make([]*Frame, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := ReadFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Concat(frames...)
}

func trimBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header
}

// fromRecords builds a frame from text records, inferring one type per column.
// Short rows are padded with empty cells.
func fromRecords(header []string, records [][]string) (*Frame, error) {
	f, err := New(header)
	if err != nil {
		return nil, err
	}

	width := len(header)
	f.rows = make([][]any, len(records))
	for i := range records {
		f.rows[i] = make([]any, width)
	}

	for j := 0; j < width; j++ {
		kind := inferKind(records, j)
		for i, rec := range records {
			f.rows[i][j] = convert(cell(rec, j), kind)
		}
	}
	return f, nil
}

type cellKind int

const (
	kindInt cellKind = iota
	kindFloat
	kindString
)

func cell(rec []string, j int) string {
	if j < len(rec) {
		return rec[j]
	}
	return ""
}

func inferKind(records [][]string, j int) cellKind {
	kind := kindInt
	for _, rec := range records {
		s := strings.TrimSpace(cell(rec, j))
		if s == "" {
			continue
		}
		if kind == kindInt {
			if _, err := strconv.ParseInt(s, 10, 64); err == nil {
				continue
			}
			kind = kindFloat
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return kindString
		}
	}
	return kind
}

func convert(raw string, kind cellKind) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	switch kind {
	case kindInt:
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	case kindFloat:
		x, _ := strconv.ParseFloat(s, 64)
		return x
	default:
		return raw
	}
}
