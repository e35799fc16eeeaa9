// Package region describes the metropolitan areas the explorer serves and
// loads their immutable tables once at startup.
package region

import (
	"bytes"
	_ "embed"
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/rentrisk/internal/aggregate"
	"github.com/sells-group/rentrisk/internal/geo"
	"github.com/sells-group/rentrisk/internal/loader"
	"github.com/sells-group/rentrisk/internal/source"
)

//go:embed defaults.yaml
var defaultDocument []byte

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Document is a region definitions file.
type Document struct {
	Title       string       `yaml:"title" json:"title"`
	Description string       `yaml:"description" json:"description"`
	Regions     []Definition `yaml:"regions" json:"-"`
}

// Center is a map centre point.
type Center struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// Definition is one region: where its inputs live and how to read them.
type Definition struct {
	Key           string           `yaml:"key" json:"key"`
	Name          string           `yaml:"name" json:"name"`
	Description   string           `yaml:"description" json:"description"`
	Center        Center           `yaml:"center" json:"center"`
	Zoom          float64          `yaml:"zoom" json:"zoom"`
	ListingInput  ListingsInput    `yaml:"listings" json:"-"`
	IncidentInput IncidentsInput   `yaml:"incidents" json:"-"`
	Geometry      geo.Config       `yaml:"geometry" json:"-"`
	Limits        aggregate.Limits `yaml:"limits" json:"-"`
}

// ListingsInput locates a region's listings table.
type ListingsInput struct {
	Source  source.Config         `yaml:"source"`
	Columns loader.ListingColumns `yaml:"columns"`
}

// IncidentsInput locates a region's incidents table. A non-zero Year limits
// the point map to that calendar year.
type IncidentsInput struct {
	Title   string                 `yaml:"title"`
	Year    int                    `yaml:"year"`
	Source  source.Config          `yaml:"source"`
	Columns loader.IncidentColumns `yaml:"columns"`
}

// DefaultDocument returns the built-in New York City and Los Angeles
// definitions.
func DefaultDocument() (*Document, error) {
	return ParseDocument(defaultDocument)
}

// LoadDocument reads a definitions file, or the built-in document when
// path is empty.
func LoadDocument(path string) (*Document, error) {
	if path == "" {
		return DefaultDocument()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "region: read %s", path)
	}
	return ParseDocument(data)
}

// ParseDocument decodes and validates a definitions document. Unknown keys
// are rejected.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "region: parse definitions")
	}
	for i := range doc.Regions {
		doc.Regions[i].Limits = doc.Regions[i].Limits.WithDefaults()
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks every definition.
func (d *Document) Validate() error {
	if len(d.Regions) == 0 {
		return eris.New("region: no regions defined")
	}
	seen := make(map[string]bool, len(d.Regions))
	for _, r := range d.Regions {
		if !keyPattern.MatchString(r.Key) {
			return eris.Errorf("region: invalid key %q", r.Key)
		}
		if seen[r.Key] {
			return eris.Errorf("region: duplicate key %q", r.Key)
		}
		seen[r.Key] = true
		if err := r.validate(); err != nil {
			return eris.Wrapf(err, "region %s", r.Key)
		}
	}
	return nil
}

func (r Definition) validate() error {
	if r.Name == "" {
		return eris.New("name is required")
	}
	if !hasLocation(r.ListingInput.Source) {
		return eris.New("listings.source needs a path or table")
	}
	if !hasLocation(r.IncidentInput.Source) {
		return eris.New("incidents.source needs a path or table")
	}
	if r.Geometry.Path == "" {
		return eris.New("geometry.path is required")
	}
	if r.IncidentInput.Year < 0 {
		return eris.Errorf("incidents.year must not be negative, got %d", r.IncidentInput.Year)
	}
	return r.Limits.Validate()
}

func hasLocation(c source.Config) bool {
	return c.Path != "" || c.Table != "" || c.Query != ""
}

// Find returns the definition with the given key.
func (d *Document) Find(key string) (Definition, bool) {
	for _, r := range d.Regions {
		if r.Key == key {
			return r, true
		}
	}
	return Definition{}, false
}
