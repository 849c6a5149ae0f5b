// Package frame holds the in-memory table every tbsu component exchanges.
//
// A Frame has named, ordered, unique columns and rows of loosely typed cells.
// Readers produce nil, string, int64, float64, bool or time.Time cells; a cell
// is null when it is nil or a float NaN.
package frame
