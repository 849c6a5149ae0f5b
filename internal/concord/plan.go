package concord

import (
	"fmt"

	"tbsu/internal/frame"
)

// plan is a request normalized against one frame
type plan struct {
	keyA, keyB, within []string
	colsA, colsB       []int    // key columns followed by within columns
	outKeys            []string // keyA, within, keyB without repeats
}

func newPlan(f *frame.Frame, req Request) (*plan, error) {
	if f == nil {
		return nil, invalidInput("input is not a table", "")
	}

	keys := req.Keys
	if len(keys) == 0 {
		columns := f.Columns()
		if len(columns) < 2 {
			return nil, invalidInput(fmt.Sprintf("default grouping keys need two columns, frame has %d", len(columns)), "")
		}
		keys = []Columns{{columns[0]}, {columns[1]}}
	}
	if len(keys) != 2 {
		return nil, invalidArity(len(keys))
	}
	for _, key := range keys {
		if len(key) == 0 {
			return nil, invalidInput("grouping key names no columns", "")
		}
	}

	p := &plan{keyA: keys[0], keyB: keys[1], within: req.Within}
	for _, name := range p.columns() {
		if !f.HasColumn(name) {
			return nil, invalidInput(fmt.Sprintf("column %q not found", name), name)
		}
	}

	p.colsA = positions(f, p.keyA, p.within)
	p.colsB = positions(f, p.keyB, p.within)
	p.outKeys = unique(p.keyA, p.within, p.keyB)
	return p, nil
}

// columns lists every referenced column once
func (p *plan) columns() []string {
	return unique(p.keyA, p.keyB, p.within)
}

func (p *plan) checkNulls(f *frame.Frame) error {
	for _, name := range p.columns() {
		values, err := f.Column(name)
		if err != nil {
			return invalidInput(err.Error(), name)
		}
		for i, v := range values {
			if frame.IsNull(v) {
				return nullKey(name, i)
			}
		}
	}
	return nil
}

// collapse emits one row per unique link, in order of first appearance
func (p *plan) collapse(f *frame.Frame, idx *index, labels []int, keepIDs bool) (*frame.Frame, error) {
	columns := []string{GroupIDColumn}
	if keepIDs {
		columns = append(columns, ID0Column, ID1Column)
	}
	columns = append(columns, p.outKeys...)

	out, err := frame.New(columns)
	if err != nil {
		return nil, err
	}

	sideA := make(map[string]bool, len(p.keyA)+len(p.within))
	for _, name := range p.keyA {
		sideA[name] = true
	}
	for _, name := range p.within {
		sideA[name] = true
	}

	for k, l := range idx.links {
		row := []any{int64(labels[k])}
		if keepIDs {
			row = append(row, int64(l.id0), int64(l.id1))
		}
		for _, name := range p.outKeys {
			source := idx.rep1[l.id1]
			if sideA[name] {
				source = idx.rep0[l.id0]
			}
			v, err := f.Value(source, name)
			if err != nil {
				return nil, err
			}
			row = append(row, v)
		}
		if err := out.Append(row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// expand emits every input row with its group id appended
func (p *plan) expand(f *frame.Frame, idx *index, labels []int, keepIDs bool) (*frame.Frame, error) {
	out := f.Clone()

	groups := make([]any, f.Len())
	ids0 := make([]any, f.Len())
	ids1 := make([]any, f.Len())
	for i, k := range idx.linkOf {
		groups[i] = int64(labels[k])
		ids0[i] = int64(idx.links[k].id0)
		ids1[i] = int64(idx.links[k].id1)
	}

	if err := out.SetColumn(GroupIDColumn, groups); err != nil {
		return nil, err
	}
	if keepIDs {
		if err := out.SetColumn(ID0Column, ids0); err != nil {
			return nil, err
		}
		if err := out.SetColumn(ID1Column, ids1); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func positions(f *frame.Frame, groups ...[]string) []int {
	var out []int
	for _, group := range groups {
		for _, name := range group {
			out = append(out, f.ColumnIndex(name))
		}
	}
	return out
}

func unique(groups ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range groups {
		for _, name := range group {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
