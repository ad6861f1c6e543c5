package table

import (
	"fmt"
	"log"
	"strings"
)

// Merge combines a global table with a fine-grained table for one designated
// country. All global rows for that country are removed so the fine source
// replaces them, then the fine rows are appended. The fine source is treated
// as authoritative - no reconciliation against the removed rows is attempted
// here, callers wanting the drift can use Reconcile.
// Fails if the two tables do not share an identical date axis.
func Merge(global, fine *Table, country string) (*Table, error) {

	if !SameDates(global.Dates, fine.Dates) {
		return nil, fmt.Errorf("merge: global has %d dates, %s has %d %w", len(global.Dates), country, len(fine.Dates), ErrDateSchema)
	}

	out := &Table{Dates: global.Dates}

	excluded := 0
	for _, r := range global.Rows {
		if strings.EqualFold(r.Region, country) {
			excluded++
			continue
		}
		out.Rows = append(out.Rows, r)
	}

	out.Rows = append(out.Rows, fine.Rows...)

	log.Printf("merge: excluded %d %s rows, added %d fine rows, total:%d", excluded, country, len(fine.Rows), len(out.Rows))

	return out, nil
}

// Reconcile reports the per-date drift between the designated country's rows
// in the global table and the totals of its fine-grained table
// (fine total minus global total per date). The sources are maintained
// independently and do disagree, this makes the disagreement visible.
func Reconcile(global, fine *Table, country string) ([]int, error) {

	if !SameDates(global.Dates, fine.Dates) {
		return nil, fmt.Errorf("merge: reconcile date axes differ %w", ErrDateSchema)
	}

	drift := make([]int, len(global.Dates))
	for _, r := range global.Rows {
		if !strings.EqualFold(r.Region, country) {
			continue
		}
		for i, v := range r.Counts {
			drift[i] -= v
		}
	}
	for _, r := range fine.Rows {
		for i, v := range r.Counts {
			drift[i] += v
		}
	}

	return drift, nil
}
