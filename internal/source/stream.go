package source

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Stream is an open table: a header plus a channel of data rows.
type Stream struct {
	Header []string
	rows   <-chan []string
	errs   <-chan error
	closer func() error
}

// Each calls fn for every data row, then closes the stream and returns the
// first read error, if any. Rows are always drained so producers can exit.
func (s *Stream) Each(fn func(row []string)) error {
	for row := range s.rows {
		fn(row)
	}

	var first error
	for err := range s.errs {
		if err != nil && first == nil {
			first = err
		}
	}

	if s.closer != nil {
		if err := s.closer(); err != nil && first == nil {
			first = eris.Wrap(err, "source: close")
		}
	}
	return first
}

// headed turns a raw row channel into a Stream whose first row is the header.
func headed(name string, rows <-chan []string, errs <-chan error, closer func() error) (*Stream, error) {
	header, ok := <-rows
	if !ok {
		var err error
		for e := range errs {
			if e != nil && err == nil {
				err = e
			}
		}
		if closer != nil {
			_ = closer()
		}
		if err != nil {
			return nil, eris.Wrapf(err, "source: read %s", name)
		}
		return nil, eris.Errorf("source: %s is empty", name)
	}

	return &Stream{Header: cleanHeader(header), rows: rows, errs: errs, closer: closer}, nil
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

// ColumnIndex finds a header column by case-insensitive name, trying each
// candidate in order. It returns -1 when none match.
func ColumnIndex(header []string, candidates ...string) int {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		for i, h := range header {
			if strings.EqualFold(h, c) {
				return i
			}
		}
	}
	return -1
}

// Cell returns row[idx] trimmed, or "" when idx is out of range.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
