package explorer

import (
	"fmt"
	"log"
	"time"

	"github.com/iCorv/covid-19-data-explorer/series"
	"github.com/iCorv/covid-19-data-explorer/table"
)

// Input carries the five raw record sets handed over by the retrieval layer.
type Input struct {
	GlobalConfirmed [][]string
	GlobalDeaths    [][]string
	GlobalRecovered [][]string
	USConfirmed     [][]string
	USDeaths        [][]string
}

// Explorer answers the presentation layer's queries from one immutable build
// of the derived tables. It holds no mutable state - a data refresh builds a
// new Explorer and the caller swaps it in.
type Explorer struct {

	// The country whose global rows are replaced by the fine-grained source
	designated string

	// Country aggregates, one row per region
	confirmed *table.Table
	deaths    *table.Table
	recovered *table.Table

	// Fine-grained tables for the map view
	// recovered has no fine-grained source so it stays at global granularity
	fineConfirmed *table.Table
	fineDeaths    *table.Table
	fineRecovered *table.Table

	// Region names in first-seen source order
	regions []string

	// The shared date axis
	dates []time.Time
}

// New normalizes the raw inputs and derives every view the queries serve.
// The designated country's global rows are replaced by its fine-grained
// source in the map tables, the chart aggregates keep the global rows.
func New(in Input, designated string) (*Explorer, error) {

	globalConfirmed, err := table.GlobalSchema.Parse(in.GlobalConfirmed)
	if err != nil {
		return nil, fmt.Errorf("explorer: confirmed %w", err)
	}
	globalDeaths, err := table.GlobalSchema.Parse(in.GlobalDeaths)
	if err != nil {
		return nil, fmt.Errorf("explorer: deaths %w", err)
	}
	globalRecovered, err := table.GlobalSchema.Parse(in.GlobalRecovered)
	if err != nil {
		return nil, fmt.Errorf("explorer: recovered %w", err)
	}

	// The three global tables must agree on the date axis
	if !table.SameDates(globalConfirmed.Dates, globalDeaths.Dates) || !table.SameDates(globalConfirmed.Dates, globalRecovered.Dates) {
		return nil, fmt.Errorf("explorer: global tables disagree on dates %w", table.ErrDateSchema)
	}

	usConfirmed, err := table.USSchema.Parse(in.USConfirmed)
	if err != nil {
		return nil, fmt.Errorf("explorer: us confirmed %w", err)
	}
	usDeaths, err := table.USSchema.Parse(in.USDeaths)
	if err != nil {
		return nil, fmt.Errorf("explorer: us deaths %w", err)
	}

	e := &Explorer{
		designated: designated,
		dates:      globalConfirmed.Dates,
	}

	e.confirmed, err = table.AggregateByRegion(globalConfirmed)
	if err != nil {
		return nil, err
	}
	e.deaths, err = table.AggregateByRegion(globalDeaths)
	if err != nil {
		return nil, err
	}
	e.recovered, err = table.AggregateByRegion(globalRecovered)
	if err != nil {
		return nil, err
	}

	e.fineConfirmed, err = table.Merge(globalConfirmed, usConfirmed, designated)
	if err != nil {
		return nil, err
	}
	e.fineDeaths, err = table.Merge(globalDeaths, usDeaths, designated)
	if err != nil {
		return nil, err
	}
	e.fineRecovered = globalRecovered

	e.regions = e.confirmed.Regions()

	// The fine source is authoritative but we surface how far it drifts from
	// the global rows it replaced
	drift, err := table.Reconcile(globalConfirmed, usConfirmed, designated)
	if err == nil && len(drift) > 0 {
		log.Printf("explorer: %s confirmed drift on last date:%d", designated, drift[len(drift)-1])
	}

	return e, nil
}

// CountrySeries returns the long-form chart series for one region
func (e *Explorer) CountrySeries(region string) ([]series.Point, error) {
	return series.BuildRegionSeries(e.confirmed, e.deaths, e.recovered, region)
}

// CountrySnapshot returns the per-region values for one source metric and date
func (e *Explorer) CountrySnapshot(m series.Metric, date time.Time) ([]table.Snap, error) {
	t, err := e.sourceTable(m, e.confirmed, e.deaths, e.recovered)
	if err != nil {
		return nil, err
	}
	return table.Snapshot(t, date)
}

// FineSnapshot returns the per-location values for one source metric and date
// at the finest granularity available for that metric
func (e *Explorer) FineSnapshot(m series.Metric, date time.Time) ([]table.Snap, error) {
	t, err := e.sourceTable(m, e.fineConfirmed, e.fineDeaths, e.fineRecovered)
	if err != nil {
		return nil, err
	}
	return table.Snapshot(t, date)
}

// sourceTable picks the table backing a source metric
// active is derived so it has no table of its own
func (e *Explorer) sourceTable(m series.Metric, confirmed, deaths, recovered *table.Table) (*table.Table, error) {
	switch m {
	case series.Confirmed:
		return confirmed, nil
	case series.Deaths:
		return deaths, nil
	case series.Recovered:
		return recovered, nil
	}
	return nil, fmt.Errorf("explorer: no source table for metric:%s", m)
}

// Regions returns the region names in first-seen source order
func (e *Explorer) Regions() []string {
	regions := make([]string, len(e.regions))
	copy(regions, e.regions)
	return regions
}

// Dates returns the shared date axis
func (e *Explorer) Dates() []time.Time {
	dates := make([]time.Time, len(e.dates))
	copy(dates, e.dates)
	return dates
}

// Totals holds the worldwide counts for the most recent date.
type Totals struct {
	Date             time.Time `json:"date"`
	Confirmed        int       `json:"confirmed"`
	Deaths           int       `json:"deaths"`
	Recovered        int       `json:"recovered"`
	Active           int       `json:"active"`
	ConfirmedDisplay string    `json:"confirmed_display"`
	DeathsDisplay    string    `json:"deaths_display"`
	RecoveredDisplay string    `json:"recovered_display"`
	ActiveDisplay    string    `json:"active_display"`
}

// LatestTotals sums every region for the last date on the axis
func (e *Explorer) LatestTotals() Totals {

	last := len(e.dates) - 1
	confirmed := e.confirmed.ColumnTotal(last)
	deaths := e.deaths.ColumnTotal(last)
	recovered := e.recovered.ColumnTotal(last)
	active := confirmed - (deaths + recovered)

	return Totals{
		Date:             e.dates[last],
		Confirmed:        confirmed,
		Deaths:           deaths,
		Recovered:        recovered,
		Active:           active,
		ConfirmedDisplay: table.FormatCount(confirmed),
		DeathsDisplay:    table.FormatCount(deaths),
		RecoveredDisplay: table.FormatCount(recovered),
		ActiveDisplay:    table.FormatCount(active),
	}
}
