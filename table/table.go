package table

import (
	"fmt"
	"strings"
	"time"
)

// Table holds one metric for a set of locations as cumulative daily counts.
// The date axis is explicit and shared by every row - Counts on each row is
// parallel to Dates. Tables are read-only once built; every transformation
// returns a fresh Table.
type Table struct {

	// Dates is the ordered date axis, one entry per reporting day
	Dates []time.Time

	// Rows holds one entry per tracked location
	Rows []*Row
}

// Row stores the counts for one tracked location.
type Row struct {

	// The Country or top level reporting area
	Region string

	// The Province or State - blank for countries
	Subregion string

	// Coordinates for this location
	Latitude, Longitude float64

	// The population of the location (if the source provides it)
	Population int

	// Counts holds the cumulative count per day, parallel to Table.Dates
	Counts []int
}

// Location returns the display label for this row
// "{subregion}, {region}" when both are set, else just the region.
func (r *Row) Location() string {
	if r.Subregion == "" {
		return r.Region
	}
	return fmt.Sprintf("%s, %s", r.Subregion, r.Region)
}

// String returns a string representation of this row
func (r *Row) String() string {
	return fmt.Sprintf("%s (%d)", r.Location(), len(r.Counts))
}

// DateIndex returns the index of date on the axis, or -1 if absent
func (t *Table) DateIndex(date time.Time) int {
	for i, d := range t.Dates {
		if d.Equal(date) {
			return i
		}
	}
	return -1
}

// FindRows returns all rows matching region
// performs a case insensitive match
func (t *Table) FindRows(region string) (rows []*Row) {
	for _, r := range t.Rows {
		if strings.EqualFold(r.Region, region) {
			rows = append(rows, r)
		}
	}
	return rows
}

// Regions returns the distinct region names in first-seen order
func (t *Table) Regions() (regions []string) {
	seen := make(map[string]bool)
	for _, r := range t.Rows {
		if !seen[r.Region] {
			seen[r.Region] = true
			regions = append(regions, r.Region)
		}
	}
	return regions
}

// ColumnTotal returns the sum of the count at date index i across all rows
func (t *Table) ColumnTotal(i int) (total int) {
	for _, r := range t.Rows {
		total += r.Counts[i]
	}
	return total
}

// SameDates returns true if the two date axes are identical in length and order
func SameDates(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
