package loader

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rentrisk/internal/model"
	"github.com/sells-group/rentrisk/internal/source"
)

// DefaultDateLayouts are tried in order when an incident date is parsed.
var DefaultDateLayouts = []string{
	"01/02/2006",
	"01/02/2006 15:04:05",
	"01/02/2006 03:04:05 PM",
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// IncidentColumns maps a region's incident source onto Incident fields.
// Only Latitude and Longitude are required.
type IncidentColumns struct {
	Latitude        string   `yaml:"latitude"`
	Longitude       string   `yaml:"longitude"`
	Category        string   `yaml:"category"`
	Date            string   `yaml:"date"`
	DateLayouts     []string `yaml:"date_layouts"`
	Label           string   `yaml:"label"`
	Attributes      []string `yaml:"attributes"`
	RequireNonEmpty []string `yaml:"require_nonempty"`
}

type attrColumn struct {
	name string
	idx  int
}

// LoadIncidents reads incident rows, keeping only those whose coordinates
// are present, numeric, and within range. Category and year filters are not
// applied here so the same table serves every filter combination.
func LoadIncidents(ctx context.Context, src source.Source, cols IncidentColumns) (*model.Incidents, error) {
	stream, err := src.Open(ctx)
	if err != nil {
		return nil, NewDataLoadError(src.Name(), err)
	}
	log := zap.L().With(zap.String("source", src.Name()))

	latIdx := source.ColumnIndex(stream.Header, cols.Latitude, "latitude", "lat")
	lonIdx := source.ColumnIndex(stream.Header, cols.Longitude, "longitude", "lon", "lng")
	if latIdx < 0 || lonIdx < 0 {
		_ = stream.Each(func([]string) {})
		return nil, NewDataLoadError(src.Name(), eris.New("loader: missing required columns: latitude, longitude"))
	}

	catIdx := optionalColumn(stream.Header, cols.Category, "category", log)
	dateIdx := optionalColumn(stream.Header, cols.Date, "date", log)
	labelIdx := optionalColumn(stream.Header, cols.Label, "label", log)

	var attrs []attrColumn
	for _, name := range cols.Attributes {
		if idx := source.ColumnIndex(stream.Header, name); idx >= 0 {
			attrs = append(attrs, attrColumn{name: name, idx: idx})
		} else {
			log.Warn("loader: attribute column not found", zap.String("column", name))
		}
	}

	var required []int
	for _, name := range cols.RequireNonEmpty {
		idx := source.ColumnIndex(stream.Header, name)
		if idx < 0 {
			_ = stream.Each(func([]string) {})
			return nil, NewDataLoadError(src.Name(), eris.Errorf("loader: missing required column %s", name))
		}
		required = append(required, idx)
	}

	layouts := cols.DateLayouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	var (
		rows        []model.Incident
		badCoords   int
		missingReq  int
		unparsedDts int
	)
	err = stream.Each(func(row []string) {
		lat, latOK := parseCoordinate(source.Cell(row, latIdx), 90)
		lon, lonOK := parseCoordinate(source.Cell(row, lonIdx), 180)
		if !latOK || !lonOK {
			badCoords++
			return
		}
		for _, idx := range required {
			if source.Cell(row, idx) == "" {
				missingReq++
				return
			}
		}

		inc := model.Incident{
			Latitude:  lat,
			Longitude: lon,
			Category:  source.Cell(row, catIdx),
			Label:     source.Cell(row, labelIdx),
			RawDate:   source.Cell(row, dateIdx),
		}
		if inc.RawDate != "" {
			if ts, ok := parseDate(inc.RawDate, layouts); ok {
				inc.OccurredAt = &ts
			} else {
				unparsedDts++
			}
		}
		if len(attrs) > 0 {
			inc.Attributes = make(map[string]string, len(attrs))
			for _, a := range attrs {
				inc.Attributes[a.name] = source.Cell(row, a.idx)
			}
		}
		rows = append(rows, inc)
	})
	if err != nil {
		return nil, NewDataLoadError(src.Name(), err)
	}

	log.Info("loader: incidents loaded",
		zap.Int("rows", len(rows)),
		zap.Int("dropped_coordinates", badCoords),
		zap.Int("dropped_required", missingReq),
		zap.Int("unparsed_dates", unparsedDts),
	)

	return model.NewIncidents(rows, catIdx >= 0, badCoords+missingReq), nil
}

func optionalColumn(header []string, name, role string, log *zap.Logger) int {
	if name == "" {
		return -1
	}
	idx := source.ColumnIndex(header, name)
	if idx < 0 {
		log.Warn("loader: optional column not found", zap.String("role", role), zap.String("column", name))
	}
	return idx
}

func parseCoordinate(raw string, limit float64) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v != v || v < -limit || v > limit {
		return 0, false
	}
	return v, true
}

func parseDate(raw string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
