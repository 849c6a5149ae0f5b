package http

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/go-playground/validator/v10"

	apperrors "tbsu/internal/errors"
	"tbsu/internal/frame"
)

var validate = validator.New()

// Table is the wire form of a frame
type Table struct {
	Columns []string `json:"columns" validate:"required,min=1,dive,required"`
	Rows    [][]any  `json:"rows"`
}

// Frame converts the table into a frame, turning JSON numbers into int64
// or float64 cells
func (t *Table) Frame() (*frame.Frame, error) {
	f, err := frame.New(t.Columns)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid table columns", err)
	}
	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cell, err := cellValue(v)
			if err != nil {
				return nil, apperrors.NewValidationError(fmt.Sprintf("row %d column %d: %v", i, j, err), err).
					WithContext("row", i)
			}
			cells[j] = cell
		}
		if err := f.Append(cells...); err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("row %d does not fit the columns", i), err).
				WithContext("row", i)
		}
	}
	return f, nil
}

func cellValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool:
		return x, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		return x.Float64()
	default:
		return nil, fmt.Errorf("unsupported cell type %T", v)
	}
}

// NewTable converts a frame to its wire form; NaN cells become null
func NewTable(f *frame.Frame) *Table {
	t := &Table{Columns: f.Columns(), Rows: make([][]any, f.Len())}
	for i := range t.Rows {
		row := f.Row(i)
		for j, v := range row {
			if x, ok := v.(float64); ok && math.IsNaN(x) {
				row[j] = nil
			}
		}
		t.Rows[i] = row
	}
	return t
}

// decodeRequest reads a JSON body into v and validates it
func decodeRequest(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.NewValidationError("invalid request body", err)
	}
	if err := validate.Struct(v); err != nil {
		return apperrors.NewValidationError("request validation failed", err)
	}
	return nil
}
