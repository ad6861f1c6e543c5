package table

import (
	"fmt"
	"log"
	"strconv"
	"time"
)

// dateFormat matches the source date headers, e.g. 1/22/20
const dateFormat = "1/2/06"

// Schema describes how one source's columns map onto the canonical row shape.
// Columns named in Drop are source-specific identifiers and are discarded,
// every remaining column after the canonical ones must be a date header.
type Schema struct {

	// Name identifies the source in errors and logs
	Name string

	// Source header names for the canonical identifying columns
	Region    string
	Subregion string
	Latitude  string
	Longitude string

	// Population column - optional, not all files of a source carry it
	Population string

	// Drop lists source-specific identifier columns to discard
	Drop []string
}

// GlobalSchema matches the global time series files
// Cols: Province/State,Country/Region,Lat,Long,1/22/20,...
var GlobalSchema = Schema{
	Name:      "global",
	Region:    "Country/Region",
	Subregion: "Province/State",
	Latitude:  "Lat",
	Longitude: "Long",
}

// USSchema matches the US time series files
// Cols: UID,iso2,iso3,code3,FIPS,Admin2,Province_State,Country_Region,Lat,Long_,Combined_Key,(Population,)1/22/20,...
var USSchema = Schema{
	Name:       "us",
	Region:     "Country_Region",
	Subregion:  "Province_State",
	Latitude:   "Lat",
	Longitude:  "Long_",
	Population: "Population",
	Drop:       []string{"UID", "iso2", "iso3", "code3", "FIPS", "Admin2", "Combined_Key"},
}

// Parse normalizes raw csv records into a Table with canonical columns.
// Rows sharing a (region, subregion) pair are folded together by summing their
// counts, so the output satisfies the pair uniqueness invariant even for
// sources reporting below subregion level (the US files report per county).
func (s Schema) Parse(records [][]string) (*Table, error) {

	if len(records) == 0 {
		return nil, fmt.Errorf("schema: no records for source:%s %w", s.Name, ErrEmptyInput)
	}

	header := records[0]

	// Locate the canonical identifying columns by header name
	regionCol, err := s.requiredColumn(header, s.Region)
	if err != nil {
		return nil, err
	}
	subregionCol, err := s.requiredColumn(header, s.Subregion)
	if err != nil {
		return nil, err
	}
	latCol, err := s.requiredColumn(header, s.Latitude)
	if err != nil {
		return nil, err
	}
	longCol, err := s.requiredColumn(header, s.Longitude)
	if err != nil {
		return nil, err
	}

	// Population is optional - the us confirmed file omits it
	populationCol := findColumn(header, s.Population)

	// Every column which is neither canonical nor dropped must be a date
	taken := map[int]bool{regionCol: true, subregionCol: true, latCol: true, longCol: true}
	if populationCol >= 0 {
		taken[populationCol] = true
	}
	for _, name := range s.Drop {
		if i := findColumn(header, name); i >= 0 {
			taken[i] = true
		}
	}

	var dates []time.Time
	var dateCols []int
	for i, h := range header {
		if taken[i] {
			continue
		}
		date, err := time.Parse(dateFormat, h)
		if err != nil {
			return nil, fmt.Errorf("schema: source:%s column:%s %w", s.Name, h, ErrDateParse)
		}
		dates = append(dates, date.UTC())
		dateCols = append(dateCols, i)
	}

	t := &Table{Dates: dates}

	// Walk data rows, folding duplicate (region, subregion) pairs
	index := make(map[string]*Row)
	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("schema: source:%s row:%d has %d columns want %d %w", s.Name, i+2, len(record), len(header), ErrSchemaMismatch)
		}

		region := record[regionCol]
		subregion := record[subregionCol]

		counts := make([]int, len(dateCols))
		for ii, col := range dateCols {
			counts[ii] = intValue(record[col])
		}

		key := region + "\x00" + subregion
		if row, ok := index[key]; ok {
			for ii := range counts {
				row.Counts[ii] += counts[ii]
			}
			if populationCol >= 0 {
				row.Population += intValue(record[populationCol])
			}
			continue
		}

		row := &Row{
			Region:    region,
			Subregion: subregion,
			Latitude:  floatValue(record[latCol]),
			Longitude: floatValue(record[longCol]),
			Counts:    counts,
		}
		if populationCol >= 0 {
			row.Population = intValue(record[populationCol])
		}
		index[key] = row
		t.Rows = append(t.Rows, row)
	}

	log.Printf("schema: normalized source:%s rows:%d dates:%d", s.Name, len(t.Rows), len(t.Dates))

	return t, nil
}

// requiredColumn locates a canonical column or fails with ErrSchemaMismatch
func (s Schema) requiredColumn(header []string, name string) (int, error) {
	if i := findColumn(header, name); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("schema: source:%s missing column:%s %w", s.Name, name, ErrSchemaMismatch)
}

func findColumn(header []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// intValue reads one count cell, malformed or missing cells count as zero
// the upstream data occasionally has sparse gaps and float-formatted ints
func intValue(s string) int {
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err == nil {
		return v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return int(f)
	}
	return 0
}

// floatValue reads one coordinate cell, missing coordinates become zero
func floatValue(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
