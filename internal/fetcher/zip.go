package fetcher

import (
	"archive/zip"
	"io"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// zipEntryReader closes the entry and the archive together.
type zipEntryReader struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipEntryReader) Close() error {
	entryErr := z.ReadCloser.Close()
	archiveErr := z.archive.Close()
	if entryErr != nil {
		return entryErr
	}
	return archiveErr
}

// OpenZIPEntry opens a single file inside a ZIP archive for streaming reads.
// An empty name selects the only non-directory entry, which must be unique.
// Names match either the full entry path or its base name.
func OpenZIPEntry(zipPath, name string) (io.ReadCloser, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}

	f, err := findZIPEntry(r.File, name)
	if err != nil {
		_ = r.Close()
		return nil, err
	}

	rc, err := f.Open()
	if err != nil {
		_ = r.Close()
		return nil, eris.Wrap(err, "zip: open entry")
	}

	return &zipEntryReader{ReadCloser: rc, archive: r}, nil
}

func findZIPEntry(files []*zip.File, name string) (*zip.File, error) {
	var candidates []*zip.File
	for _, f := range files {
		if f.FileInfo().IsDir() || strings.HasPrefix(path.Base(f.Name), "._") {
			continue
		}
		if name == "" {
			candidates = append(candidates, f)
			continue
		}
		if f.Name == name || path.Base(f.Name) == name {
			return f, nil
		}
	}

	if name != "" {
		return nil, eris.Errorf("zip: file %q not found in archive", name)
	}
	if len(candidates) != 1 {
		return nil, eris.Errorf("zip: expected exactly 1 file, got %d", len(candidates))
	}
	return candidates[0], nil
}
