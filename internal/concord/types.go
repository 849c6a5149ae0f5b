package concord

import "time"

// Output column names
const (
	GroupIDColumn = "group_id"
	ID0Column     = "id0"
	ID1Column     = "id1"
)

// Columns is one grouping key: a single column or an ordered tuple of columns
type Columns []string

// Request describes one resolution
type Request struct {
	// Keys holds exactly two grouping keys. Empty means the first two columns.
	Keys []Columns
	// Within partitions the problem; rows never group across within values.
	Within []string
	// Expand returns every input row instead of one row per unique link.
	Expand bool
	// KeepIDs adds the id0 and id1 index columns to the output.
	KeepIDs bool
}

// Stats summarizes a resolution
type Stats struct {
	InputRows   int
	UniqueLinks int
	Groups      int
	Iterations  int
	Duration    time.Duration
}

// Progress is reported after the initial settle check and after every pass
type Progress struct {
	Iteration int
	Unsettled int
	Total     int
}

// Fraction returns the unsettled share of unique links
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Unsettled) / float64(p.Total)
}
