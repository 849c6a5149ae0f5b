// Package cleaning converts and summarizes frame columns: string dates to
// time values, and the most common value of a numeric column.
package cleaning
