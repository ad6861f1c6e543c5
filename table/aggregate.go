package table

import (
	"fmt"
)

// AggregateByRegion collapses subdivision rows into one row per region,
// summing every date column. Coordinates, subregion and population are
// dropped - an aggregated region has no single point. Output row order is
// the first-seen order of each region in the input.
func AggregateByRegion(t *Table) (*Table, error) {

	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("aggregate: no rows to aggregate %w", ErrEmptyInput)
	}

	out := &Table{Dates: t.Dates}

	index := make(map[string]*Row)
	for _, r := range t.Rows {
		agg, ok := index[r.Region]
		if !ok {
			agg = &Row{
				Region: r.Region,
				Counts: make([]int, len(t.Dates)),
			}
			index[r.Region] = agg
			out.Rows = append(out.Rows, agg)
		}
		for i, v := range r.Counts {
			agg.Counts[i] += v
		}
	}

	return out, nil
}
