package aggregate

import "github.com/sells-group/rentrisk/internal/model"

// PointCollection returns every incident with valid coordinates, restricted
// to year when year is non-zero and to category when category is non-empty.
// No sampling or limit is applied.
func PointCollection(incidents *model.Incidents, category string, year int) model.PointCollection {
	out := model.PointCollection{Category: category, Year: year, Points: []model.Point{}}
	if incidents == nil {
		return out
	}
	for _, inc := range incidents.Rows {
		if !inc.HasCoordinates() {
			continue
		}
		if year != 0 && !inc.InYear(year) {
			continue
		}
		if category != "" && inc.Category != category {
			continue
		}
		out.Points = append(out.Points, model.Point{
			Latitude:   inc.Latitude,
			Longitude:  inc.Longitude,
			Category:   inc.Category,
			Label:      inc.Label,
			Attributes: inc.Attributes,
		})
	}
	return out
}
