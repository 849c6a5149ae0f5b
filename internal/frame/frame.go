package frame

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

var (
	// ErrUnknownColumn is returned when a column name is not part of the frame
	ErrUnknownColumn = errors.New("unknown column")
	// ErrShape is returned when a row or column length does not fit the frame
	ErrShape = errors.New("shape mismatch")
	// ErrDuplicateColumn is returned when a column name appears twice
	ErrDuplicateColumn = errors.New("duplicate column")
)

// TimeLayout is used when time cells are rendered as text
const TimeLayout = "2006-01-02 15:04:05"

// Frame is an ordered table of rows with named columns
type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// New builds a frame from column names and rows. Rows are copied.
func New(columns []string, rows ...[]any) (*Frame, error) {
	f := &Frame{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	copy(f.columns, columns)
	for i, name := range columns {
		if _, exists := f.index[name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		f.index[name] = i
	}
	for _, row := range rows {
		if err := f.Append(row...); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Len returns the number of rows
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.rows)
}

// Columns returns a copy of the column names
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// ColumnIndex returns the position of a column or -1
func (f *Frame) ColumnIndex(name string) int {
	if i, ok := f.index[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the frame has the named column
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Row returns a copy of row i
func (f *Frame) Row(i int) []any {
	out := make([]any, len(f.rows[i]))
	copy(out, f.rows[i])
	return out
}

// Value returns the cell at row i in the named column
func (f *Frame) Value(i int, column string) (any, error) {
	j, ok := f.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	if i < 0 || i >= len(f.rows) {
		return nil, fmt.Errorf("%w: row %d out of range [0,%d)", ErrShape, i, len(f.rows))
	}
	return f.rows[i][j], nil
}

// Column returns a copy of every value in the named column
func (f *Frame) Column(name string) ([]any, error) {
	j, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	out := make([]any, len(f.rows))
	for i, row := range f.rows {
		out[i] = row[j]
	}
	return out, nil
}

// Append adds one row; its length must match the column count
func (f *Frame) Append(row ...any) error {
	if len(row) != len(f.columns) {
		return fmt.Errorf("%w: row has %d values, frame has %d columns", ErrShape, len(row), len(f.columns))
	}
	cp := make([]any, len(row))
	copy(cp, row)
	f.rows = append(f.rows, cp)
	return nil
}

// Select returns a new frame with only the named columns, in the given order
func (f *Frame) Select(columns ...string) (*Frame, error) {
	positions := make([]int, len(columns))
	for k, name := range columns {
		j, ok := f.index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		positions[k] = j
	}

	out, err := New(columns)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]any, len(f.rows))
	for i, row := range f.rows {
		sel := make([]any, len(positions))
		for k, j := range positions {
			sel[k] = row[j]
		}
		out.rows[i] = sel
	}
	return out, nil
}

// SetColumn replaces the named column, or appends it when it does not exist
func (f *Frame) SetColumn(name string, values []any) error {
	if len(values) != len(f.rows) {
		return fmt.Errorf("%w: column %q has %d values, frame has %d rows", ErrShape, name, len(values), len(f.rows))
	}
	j, ok := f.index[name]
	if !ok {
		j = len(f.columns)
		f.columns = append(f.columns, name)
		f.index[name] = j
		for i := range f.rows {
			f.rows[i] = append(f.rows[i], nil)
		}
	}
	for i, v := range values {
		f.rows[i][j] = v
	}
	return nil
}

// Clone returns a deep copy of the frame structure; cell values are shared
func (f *Frame) Clone() *Frame {
	out, _ := New(f.columns)
	out.rows = make([][]any, len(f.rows))
	for i := range f.rows {
		out.rows[i] = f.Row(i)
	}
	return out
}

// Records renders every row as text, nulls as empty strings
func (f *Frame) Records() [][]string {
	records := make([][]string, len(f.rows))
	for i, row := range f.rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = Format(v)
		}
		records[i] = rec
	}
	return records
}

// Concat stacks frames that share the same column set. Columns follow the
// first frame; later frames may list them in another order.
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return New(nil)
	}
	out := frames[0].Clone()
	for n, f := range frames[1:] {
		if len(f.columns) != len(out.columns) {
			return nil, fmt.Errorf("%w: frame %d has columns %v, want %v", ErrShape, n+1, f.columns, out.columns)
		}
		positions := make([]int, len(out.columns))
		for k, name := range out.columns {
			j, ok := f.index[name]
			if !ok {
				return nil, fmt.Errorf("%w: frame %d has columns %v, want %v", ErrShape, n+1, f.columns, out.columns)
			}
			positions[k] = j
		}
		for _, row := range f.rows {
			aligned := make([]any, len(positions))
			for k, j := range positions {
				aligned[k] = row[j]
			}
			out.rows = append(out.rows, aligned)
		}
	}
	return out, nil
}

// IsNull reports whether a cell is missing
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

// Format renders a cell as text
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(TimeLayout)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
