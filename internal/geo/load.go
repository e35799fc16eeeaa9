package geo

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rentrisk/internal/fetcher"
	"github.com/sells-group/rentrisk/internal/loader"
)

// Config locates a region's boundary file.
type Config struct {
	Path         string `yaml:"path"`
	ZipEntry     string `yaml:"zip_entry"`
	NameProperty string `yaml:"name_property"`
}

// Load reads the boundary file described by cfg. GeoJSON (.geojson, .json,
// or a .zip holding one) and shapefiles (.shp) are supported. Every failure
// is a loader.DataLoadError.
func Load(ctx context.Context, cfg Config, baseDir string) (*Index, error) {
	path := cfg.Path
	if path != "" && baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	name := "geometry:" + path

	if path == "" {
		return nil, loader.NewDataLoadError(name, eris.New("geo: path is required"))
	}
	if err := ctx.Err(); err != nil {
		return nil, loader.NewDataLoadError(name, err)
	}

	idx, err := loadPath(path, cfg)
	if err != nil {
		return nil, loader.NewDataLoadError(name, err)
	}
	if idx.Len() == 0 {
		return nil, loader.NewDataLoadError(name, eris.New("geo: no boundaries found"))
	}

	zap.L().Info("geo: boundaries loaded", zap.String("path", path), zap.Int("boundaries", idx.Len()))
	return idx, nil
}

func loadPath(path string, cfg Config) (*Index, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		field := cfg.NameProperty
		if field == "" {
			field = DefaultNameProperty
		}
		return LoadShapefile(path, field)
	case ".zip":
		rc, err := fetcher.OpenZIPEntry(path, cfg.ZipEntry)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rc.Close() }()
		return LoadGeoJSON(rc, cfg.NameProperty)
	case ".geojson", ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "geo: open file")
		}
		defer func() { _ = f.Close() }()
		return LoadGeoJSON(f, cfg.NameProperty)
	default:
		return nil, eris.Errorf("geo: unsupported boundary file %s", filepath.Base(path))
	}
}
