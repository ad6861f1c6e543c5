package series

import (
	"errors"
	"fmt"
	"time"

	"github.com/iCorv/covid-19-data-explorer/table"
)

// Metric identifies one of the plotted series. The constant order is the
// render order contract for the stacked bar chart - recovered draws first,
// then active, then deaths, regardless of name ordering. Confirmed is not
// part of the stack and sorts last.
type Metric int

const (
	Recovered Metric = iota
	Active
	Deaths
	Confirmed
)

// Errors returned when building a region series
var (
	// ErrRegionNotFound - the region matched zero or several aggregate rows
	ErrRegionNotFound = errors.New("series: region not found")

	// ErrDateMisalignment - the three metric tables do not share a date set
	ErrDateMisalignment = errors.New("series: date misalignment")
)

// String returns the metric name used in long-form output and api params
func (m Metric) String() string {
	switch m {
	case Recovered:
		return "recovered"
	case Active:
		return "active"
	case Deaths:
		return "deaths"
	case Confirmed:
		return "confirmed"
	}
	return "unknown"
}

// Order returns the fixed render index for this metric
func (m Metric) Order() int {
	return int(m)
}

// ParseMetric returns the metric for a name as used in api params
func ParseMetric(name string) (Metric, error) {
	for _, m := range []Metric{Recovered, Active, Deaths, Confirmed} {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("series: unknown metric:%q", name)
}

// Point is one long-form row - the value of one metric for one date.
type Point struct {
	Date   time.Time `json:"date"`
	Metric Metric    `json:"-"`
	Name   string    `json:"metric"`
	Value  int       `json:"value"`
	Order  int       `json:"order"`
}

// BuildRegionSeries reshapes the three country aggregates into a long-form
// series for one region, covering confirmed, active, deaths and recovered
// ordered by date ascending. Active is derived as
// confirmed - (deaths + recovered) and may go negative when the sources
// disagree after a revision - it is surfaced as-is, never clamped.
func BuildRegionSeries(confirmed, deaths, recovered *table.Table, region string) ([]Point, error) {

	confirmedRow, err := selectRegion(confirmed, region)
	if err != nil {
		return nil, err
	}
	deathsRow, err := selectRegion(deaths, region)
	if err != nil {
		return nil, err
	}
	recoveredRow, err := selectRegion(recovered, region)
	if err != nil {
		return nil, err
	}

	// Melt each row into a series keyed on date, then join on those keys.
	// The join is keyed rather than positional so diverging column order in
	// the sources fails loudly instead of misaligning silently.
	confirmedByDate := melt(confirmed.Dates, confirmedRow.Counts)
	deathsByDate := melt(deaths.Dates, deathsRow.Counts)
	recoveredByDate := melt(recovered.Dates, recoveredRow.Counts)

	if len(deathsByDate) != len(confirmedByDate) || len(recoveredByDate) != len(confirmedByDate) {
		return nil, fmt.Errorf("series: region:%s %w", region, ErrDateMisalignment)
	}

	points := make([]Point, 0, len(confirmed.Dates)*4)
	for _, date := range confirmed.Dates {
		key := date.Unix()

		c := confirmedByDate[key]
		d, ok := deathsByDate[key]
		if !ok {
			return nil, fmt.Errorf("series: region:%s date:%s %w", region, date.Format("2006-01-02"), ErrDateMisalignment)
		}
		r, ok := recoveredByDate[key]
		if !ok {
			return nil, fmt.Errorf("series: region:%s date:%s %w", region, date.Format("2006-01-02"), ErrDateMisalignment)
		}

		a := c - (d + r)

		points = append(points,
			point(date, Recovered, r),
			point(date, Active, a),
			point(date, Deaths, d),
			point(date, Confirmed, c),
		)
	}

	return points, nil
}

// selectRegion returns the single aggregate row for region
// zero or several matches are both failures - a silent pick would chart the
// wrong data without warning
func selectRegion(t *table.Table, region string) (*table.Row, error) {
	rows := t.FindRows(region)
	if len(rows) != 1 {
		return nil, fmt.Errorf("series: region:%q matched %d rows %w", region, len(rows), ErrRegionNotFound)
	}
	return rows[0], nil
}

// melt pairs the date axis with one row's counts, keyed on unix time
func melt(dates []time.Time, counts []int) map[int64]int {
	byDate := make(map[int64]int, len(dates))
	for i, d := range dates {
		byDate[d.Unix()] = counts[i]
	}
	return byDate
}

func point(date time.Time, m Metric, v int) Point {
	return Point{Date: date, Metric: m, Name: m.String(), Value: v, Order: m.Order()}
}
