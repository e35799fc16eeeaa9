package loader

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rentrisk/internal/model"
	"github.com/sells-group/rentrisk/internal/source"
)

// asSource renders an exported table the way a postgres source renders
// column values.
func asSource(t *testing.T, tbl Table) *source.Memory {
	t.Helper()
	m := &source.Memory{Label: "published", Header: tbl.ColumnNames()}
	for _, row := range tbl.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			switch x := v.(type) {
			case float64:
				cells[i] = strconv.FormatFloat(x, 'f', -1, 64)
			case string:
				cells[i] = x
			default:
				t.Fatalf("unexpected cell type %T", v)
			}
		}
		m.Rows = append(m.Rows, cells)
	}
	return m
}

var shootingColumns = IncidentColumns{
	Latitude:   "Latitude",
	Longitude:  "Longitude",
	Date:       "OCCUR_DATE",
	Attributes: []string{"OCCUR_DATE", "OCCUR_TIME", "PRECINCT"},
}

var crimeColumns = IncidentColumns{
	Latitude:        "LATITUDE",
	Longitude:       "LONGITUDE",
	Category:        "CATEGORY",
	Label:           "UNIT_NAME",
	Attributes:      []string{"CATEGORY", "STAT_DESC"},
	RequireNonEmpty: []string{"UNIT_NAME"},
}

func TestExportIncidents_ShootingsRoundTrip(t *testing.T) {
	src := &source.Memory{
		Header: []string{"OCCUR_DATE", "OCCUR_TIME", "PRECINCT", "Latitude", "Longitude"},
		Rows: [][]string{
			{"03/15/2024", "21:10:00", "75", "40.75", "-73.95"},
			{"12/31/2023", "02:00:00", "40", "40.65", "-74.05"},
		},
	}
	before, err := LoadIncidents(context.Background(), src, shootingColumns)
	require.NoError(t, err)

	tbl, err := ExportIncidents(before, shootingColumns)
	require.NoError(t, err)
	assert.Equal(t, []string{"Latitude", "Longitude", "OCCUR_DATE", "OCCUR_TIME", "PRECINCT"}, tbl.ColumnNames())
	assert.True(t, tbl.Columns[0].Numeric)
	assert.False(t, tbl.Columns[2].Numeric)

	after, err := LoadIncidents(context.Background(), asSource(t, tbl), shootingColumns)
	require.NoError(t, err)
	assert.Equal(t, before.Rows, after.Rows)

	in2024 := 0
	for _, r := range after.Rows {
		if r.InYear(2024) {
			in2024++
		}
	}
	assert.Equal(t, 1, in2024)
	assert.Equal(t, "75", after.Rows[0].Attributes["PRECINCT"])
}

func TestExportIncidents_CrimesRoundTrip(t *testing.T) {
	src := &source.Memory{
		Header: []string{"LATITUDE", "LONGITUDE", "CATEGORY", "UNIT_NAME", "STAT_DESC"},
		Rows: [][]string{
			{"34.05", "-118.24", "ROBBERY", "Lakewood", "ROBBERY"},
			{"34.10", "-118.30", "ASSAULT", "Compton", "AGG ASSAULT"},
			{"34.10", "-118.30", "ASSAULT", "", "AGG ASSAULT"},
		},
	}
	before, err := LoadIncidents(context.Background(), src, crimeColumns)
	require.NoError(t, err)
	require.Equal(t, 2, before.Len())

	tbl, err := ExportIncidents(before, crimeColumns)
	require.NoError(t, err)
	assert.Equal(t, []string{"LATITUDE", "LONGITUDE", "CATEGORY", "UNIT_NAME", "STAT_DESC"}, tbl.ColumnNames())

	after, err := LoadIncidents(context.Background(), asSource(t, tbl), crimeColumns)
	require.NoError(t, err)
	assert.Equal(t, before.Rows, after.Rows)
	assert.Equal(t, before.Categories, after.Categories)
	assert.Zero(t, after.Dropped)
}

func TestExportIncidents_UnkeptRequiredColumn(t *testing.T) {
	cols := IncidentColumns{RequireNonEmpty: []string{"AREA_NAME"}}
	_, err := ExportIncidents(model.NewIncidents(nil, false, 0), cols)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required column AREA_NAME is not kept")
}

func TestExportListings_RoundTrip(t *testing.T) {
	before, err := LoadListings(context.Background(), listingsFixture(), ListingColumns{})
	require.NoError(t, err)

	tbl := ExportListings(before, ListingColumns{})
	assert.Equal(t, []string{"id", "neighbourhood", "room_type", "price"}, tbl.ColumnNames())
	assert.True(t, tbl.Columns[3].Numeric)

	after, err := LoadListings(context.Background(), asSource(t, tbl), ListingColumns{})
	require.NoError(t, err)
	assert.Equal(t, before.Rows, after.Rows)
	assert.Equal(t, before.RoomTypes, after.RoomTypes)
}

func TestExportListings_CustomNames(t *testing.T) {
	cols := ListingColumns{Neighborhood: "hood", Price: "nightly"}
	tbl := ExportListings(nil, cols)
	assert.Equal(t, []string{"id", "hood", "room_type", "nightly"}, tbl.ColumnNames())
	assert.Empty(t, tbl.Rows)
}
