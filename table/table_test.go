package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dateHeaders = []string{"1/22/20", "1/23/20", "1/24/20", "1/25/20", "1/26/20"}

// globalRecords is a small global confirmed table - one plain country, one
// country with subregions, and two designated-country rows for merge tests
func globalRecords() [][]string {
	return [][]string{
		append([]string{"Province/State", "Country/Region", "Lat", "Long"}, dateHeaders...),
		{"", "Wonderland", "51.0", "-1.0", "10", "20", "30", "40", "50"},
		{"Emerald City", "Oz", "31.0", "11.0", "1", "2", "3", "4", "5"},
		{"Munchkin Country", "Oz", "32.0", "12.0", "2", "3", "4", "5", "6"},
		{"New York", "US", "42.1", "-74.9", "5", "6", "7", "8", "9"},
		{"California", "US", "36.1", "-119.6", "3", "4", "5", "6", "7"},
	}
}

// usRecords is a small US confirmed table at county level, one county per
// state so the folded output keeps four rows
func usRecords() [][]string {
	return [][]string{
		append([]string{"UID", "iso2", "iso3", "code3", "FIPS", "Admin2", "Province_State", "Country_Region", "Lat", "Long_", "Combined_Key"}, dateHeaders...),
		{"84036061", "US", "USA", "840", "36061", "New York", "New York", "US", "40.7", "-73.9", "New York, New York, US", "4", "5", "6", "7", "8"},
		{"84006037", "US", "USA", "840", "6037", "Los Angeles", "California", "US", "34.3", "-118.2", "Los Angeles, California, US", "2", "3", "4", "5", "6"},
		{"84017031", "US", "USA", "840", "17031", "Cook", "Illinois", "US", "41.8", "-87.8", "Cook, Illinois, US", "1", "1", "2", "2", "3"},
		{"84048201", "US", "USA", "840", "48201", "Harris", "Texas", "US", "29.9", "-95.4", "Harris, Texas, US", "0", "1", "1", "2", "2"},
	}
}

func TestSchemaParseGlobal(t *testing.T) {
	tbl, err := GlobalSchema.Parse(globalRecords())
	require.NoError(t, err)

	require.Len(t, tbl.Dates, 5)
	assert.Equal(t, time.Date(2020, 1, 22, 0, 0, 0, 0, time.UTC), tbl.Dates[0])
	assert.Equal(t, time.Date(2020, 1, 26, 0, 0, 0, 0, time.UTC), tbl.Dates[4])

	require.Len(t, tbl.Rows, 5)
	wonderland := tbl.Rows[0]
	assert.Equal(t, "Wonderland", wonderland.Region)
	assert.Equal(t, "", wonderland.Subregion)
	assert.Equal(t, 51.0, wonderland.Latitude)
	assert.Equal(t, []int{10, 20, 30, 40, 50}, wonderland.Counts)

	oz := tbl.Rows[1]
	assert.Equal(t, "Oz", oz.Region)
	assert.Equal(t, "Emerald City", oz.Subregion)
}

func TestSchemaParseMissingColumn(t *testing.T) {
	records := globalRecords()
	records[0][2] = "Latitude" // not the name the source uses

	_, err := GlobalSchema.Parse(records)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestSchemaParseBadDateHeader(t *testing.T) {
	records := globalRecords()
	records[0][4] = "NotADate"

	_, err := GlobalSchema.Parse(records)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDateParse)
}

func TestSchemaParseEmpty(t *testing.T) {
	_, err := GlobalSchema.Parse(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

// Two county rows of the same state fold into one subregion row with
// summed counts, and the source identifier columns are gone
func TestSchemaParseFoldsCounties(t *testing.T) {
	records := usRecords()
	records = append(records, []string{"84036059", "US", "USA", "840", "36059", "Nassau", "New York", "US", "40.7", "-73.6", "Nassau, New York, US", "1", "2", "3", "4", "5"})

	tbl, err := USSchema.Parse(records)
	require.NoError(t, err)

	require.Len(t, tbl.Rows, 4)
	newYork := tbl.Rows[0]
	assert.Equal(t, "New York", newYork.Subregion)
	assert.Equal(t, []int{5, 7, 9, 11, 13}, newYork.Counts)
	// First-seen coordinates win
	assert.Equal(t, 40.7, newYork.Latitude)
}

// Population is optional - present in the us deaths file, absent in confirmed
func TestSchemaParsePopulation(t *testing.T) {
	records := [][]string{
		{"UID", "iso2", "iso3", "code3", "FIPS", "Admin2", "Province_State", "Country_Region", "Lat", "Long_", "Combined_Key", "Population", "1/22/20"},
		{"84036061", "US", "USA", "840", "36061", "New York", "New York", "US", "40.7", "-73.9", "New York, New York, US", "1600000", "4"},
		{"84036059", "US", "USA", "840", "36059", "Nassau", "New York", "US", "40.7", "-73.6", "Nassau, New York, US", "1350000", "1"},
	}

	tbl, err := USSchema.Parse(records)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, 2950000, tbl.Rows[0].Population)
	assert.Equal(t, []int{5}, tbl.Rows[0].Counts)
}

// Malformed cells count as zero, float-formatted ints are read as ints
func TestSchemaParseSparseCells(t *testing.T) {
	records := [][]string{
		append([]string{"Province/State", "Country/Region", "Lat", "Long"}, dateHeaders...),
		{"", "Wonderland", "", "-1.0", "", "junk", "3.0", "4", "5"},
	}

	tbl, err := GlobalSchema.Parse(records)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []int{0, 0, 3, 4, 5}, tbl.Rows[0].Counts)
	assert.Equal(t, 0.0, tbl.Rows[0].Latitude)
}

func TestLocation(t *testing.T) {
	r := &Row{Region: "Wonderland"}
	assert.Equal(t, "Wonderland", r.Location())

	r = &Row{Region: "Oz", Subregion: "Emerald City"}
	assert.Equal(t, "Emerald City, Oz", r.Location())
}

func TestAggregateByRegion(t *testing.T) {
	tbl, err := GlobalSchema.Parse(globalRecords())
	require.NoError(t, err)

	agg, err := AggregateByRegion(tbl)
	require.NoError(t, err)

	// One row per region, first-seen order preserved
	require.Len(t, agg.Rows, 3)
	assert.Equal(t, []string{"Wonderland", "Oz", "US"}, agg.Regions())

	// Subregion counts sum, coordinates are dropped
	oz := agg.Rows[1]
	assert.Equal(t, []int{3, 5, 7, 9, 11}, oz.Counts)
	assert.Equal(t, "", oz.Subregion)
	assert.Equal(t, 0.0, oz.Latitude)
	assert.Equal(t, 0.0, oz.Longitude)

	// Conservation: every date column total survives aggregation
	for i := range tbl.Dates {
		assert.Equal(t, tbl.ColumnTotal(i), agg.ColumnTotal(i), "total changed for date index %d", i)
	}
}

func TestAggregateEmpty(t *testing.T) {
	_, err := AggregateByRegion(&Table{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

// Repeated runs over the same input must list regions identically
func TestRegionsStable(t *testing.T) {
	tbl, err := GlobalSchema.Parse(globalRecords())
	require.NoError(t, err)

	first := tbl.Regions()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, tbl.Regions())
	}
}
