package table

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer renders counts with thousands separators for display
var printer = message.NewPrinter(language.English)

// Snap holds the value for one location on one date, with both the raw
// count and a display string ready for map tooltips.
type Snap struct {
	Location  string  `json:"location"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Value     int     `json:"value"`
	Display   string  `json:"display"`
}

// Snapshot extracts the per-location values for a single date.
// Fails with ErrDateNotFound before producing any output if the date is not
// on the table's axis.
func Snapshot(t *Table, date time.Time) ([]Snap, error) {

	i := t.DateIndex(date)
	if i < 0 {
		return nil, fmt.Errorf("snapshot: no data for date:%s %w", date.Format("2006-01-02"), ErrDateNotFound)
	}

	snaps := make([]Snap, 0, len(t.Rows))
	for _, r := range t.Rows {
		v := r.Counts[i]
		snaps = append(snaps, Snap{
			Location:  r.Location(),
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Value:     v,
			Display:   FormatCount(v),
		})
	}

	return snaps, nil
}

// FormatCount renders a count with thousands separators, e.g. 12345 -> 12,345
func FormatCount(v int) string {
	return printer.Sprintf("%d", v)
}
