package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rentrisk/internal/fetcher"
)

// CSV reads a delimited text file, optionally packed inside a ZIP archive.
type CSV struct {
	Path      string
	ZipEntry  string
	Charset   string
	Delimiter rune
	Comment   rune
	SkipRows  int
	TrimSpace bool
}

// Name implements Source.
func (c *CSV) Name() string {
	if c.ZipEntry != "" {
		return "csv:" + c.Path + "!" + c.ZipEntry
	}
	return "csv:" + c.Path
}

// Open implements Source.
func (c *CSV) Open(ctx context.Context) (*Stream, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if c.ZipEntry != "" || strings.EqualFold(filepath.Ext(c.Path), ".zip") {
		rc, err = fetcher.OpenZIPEntry(c.Path, c.ZipEntry)
	} else {
		rc, err = os.Open(c.Path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "source: open %s", c.Name())
	}

	rows, errs := fetcher.StreamCSV(ctx, rc, fetcher.CSVOptions{
		Delimiter:  c.Delimiter,
		Comment:    c.Comment,
		Charset:    c.Charset,
		SkipRows:   c.SkipRows,
		LazyQuotes: true,
		TrimSpace:  c.TrimSpace,
	})
	return headed(c.Name(), rows, errs, rc.Close)
}

// XLSX reads one sheet of a workbook; the first sheet with rows when Sheet
// is empty.
type XLSX struct {
	Path      string
	Sheet     string
	SkipRows  int
	TrimSpace bool
}

// Name implements Source.
func (x *XLSX) Name() string {
	if x.Sheet != "" {
		return "xlsx:" + x.Path + "#" + x.Sheet
	}
	return "xlsx:" + x.Path
}

// Open implements Source.
func (x *XLSX) Open(ctx context.Context) (*Stream, error) {
	rows, errs := fetcher.StreamXLSX(ctx, x.Path, fetcher.XLSXOptions{
		Sheet:     x.Sheet,
		SkipRows:  x.SkipRows,
		TrimSpace: x.TrimSpace,
	})
	return headed(x.Name(), rows, errs, nil)
}
