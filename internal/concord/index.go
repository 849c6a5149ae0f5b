package concord

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tbsu/internal/frame"
)

// link is one unique (id0, id1) pair
type link struct {
	id0, id1 int
}

// index maps the input rows onto dense ids. Both sides include the within
// columns, so two rows from different scopes never share an id.
type index struct {
	links  []link
	linkOf []int // input row -> link
	rep0   []int // id0 -> first input row carrying it
	rep1   []int // id1 -> first input row carrying it
}

func buildIndex(f *frame.Frame, colsA, colsB []int) *index {
	idx := &index{linkOf: make([]int, f.Len())}
	ids0 := make(map[string]int)
	ids1 := make(map[string]int)
	links := make(map[link]int)

	for i := 0; i < f.Len(); i++ {
		row := f.Row(i)

		k0 := tupleKey(row, colsA)
		id0, ok := ids0[k0]
		if !ok {
			id0 = len(idx.rep0)
			ids0[k0] = id0
			idx.rep0 = append(idx.rep0, i)
		}

		k1 := tupleKey(row, colsB)
		id1, ok := ids1[k1]
		if !ok {
			id1 = len(idx.rep1)
			ids1[k1] = id1
			idx.rep1 = append(idx.rep1, i)
		}

		l := link{id0: id0, id1: id1}
		n, ok := links[l]
		if !ok {
			n = len(idx.links)
			links[l] = n
			idx.links = append(idx.links, l)
		}
		idx.linkOf[i] = n
	}
	return idx
}

// tupleKey encodes the cells at positions so that equal keys mean equal
// type and value for every cell
func tupleKey(row []any, positions []int) string {
	var b strings.Builder
	for _, j := range positions {
		switch x := row[j].(type) {
		case string:
			b.WriteString("s")
			b.WriteString(strconv.Itoa(len(x)))
			b.WriteByte(':')
			b.WriteString(x)
		case int64:
			b.WriteString("i:")
			b.WriteString(strconv.FormatInt(x, 10))
		case float64:
			b.WriteString("f:")
			b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		case bool:
			b.WriteString("b:")
			b.WriteString(strconv.FormatBool(x))
		case time.Time:
			b.WriteString("t:")
			b.WriteString(x.UTC().Format(time.RFC3339Nano))
		default:
			fmt.Fprintf(&b, "%T:%v", x, x)
		}
		b.WriteByte(0x1f)
	}
	return b.String()
}
