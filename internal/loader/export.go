package loader

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rentrisk/internal/model"
)

// TableColumn is one column of an exported table.
type TableColumn struct {
	Name    string
	Numeric bool
}

// Table is a cleaned table laid out under a region's source column names,
// so the same column mapping loads it back.
type Table struct {
	Columns []TableColumn
	Rows    [][]any
}

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ExportListings lays out l under the names cols resolves to.
func ExportListings(l *model.Listings, cols ListingColumns) Table {
	t := Table{Columns: []TableColumn{
		{Name: orDefault(cols.ID, "id")},
		{Name: orDefault(cols.Neighborhood, "neighbourhood")},
		{Name: orDefault(cols.RoomType, "room_type")},
		{Name: orDefault(cols.Price, "price"), Numeric: true},
	}}
	if l == nil {
		return t
	}
	t.Rows = make([][]any, 0, len(l.Rows))
	for _, x := range l.Rows {
		t.Rows = append(t.Rows, []any{x.ID, x.Neighborhood, x.RoomType, x.Price})
	}
	return t
}

type incidentField func(model.Incident) any

// ExportIncidents lays out inc under the names cols resolves to: the
// coordinates, then category, date, and label when mapped, then every
// attribute. Dates are written as the raw source text so the configured
// layouts parse them again. A require_nonempty column whose value was not
// kept under any of those roles cannot be reproduced and is an error.
func ExportIncidents(inc *model.Incidents, cols IncidentColumns) (Table, error) {
	var (
		t      Table
		fields []incidentField
		seen   = make(map[string]bool)
	)
	add := func(name string, numeric bool, f incidentField) {
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		t.Columns = append(t.Columns, TableColumn{Name: name, Numeric: numeric})
		fields = append(fields, f)
	}

	add(orDefault(cols.Latitude, "latitude"), true, func(x model.Incident) any { return x.Latitude })
	add(orDefault(cols.Longitude, "longitude"), true, func(x model.Incident) any { return x.Longitude })
	add(cols.Category, false, func(x model.Incident) any { return x.Category })
	add(cols.Date, false, func(x model.Incident) any { return x.RawDate })
	add(cols.Label, false, func(x model.Incident) any { return x.Label })
	for _, name := range cols.Attributes {
		add(name, false, func(x model.Incident) any { return x.Attributes[name] })
	}
	for _, name := range cols.RequireNonEmpty {
		if !seen[strings.ToLower(name)] {
			return Table{}, eris.Errorf("loader: required column %s is not kept; map it as label or an attribute", name)
		}
	}

	if inc == nil {
		return t, nil
	}
	t.Rows = make([][]any, 0, len(inc.Rows))
	for _, x := range inc.Rows {
		row := make([]any, len(fields))
		for i, f := range fields {
			row[i] = f(x)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func orDefault(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
