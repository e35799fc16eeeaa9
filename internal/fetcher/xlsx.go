package fetcher

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions selects and shapes the rows read from a workbook.
type XLSXOptions struct {
	Sheet     string // sheet name; the first sheet holding rows when empty
	SkipRows  int    // leading rows dropped before the header
	TrimSpace bool
}

// StreamXLSX sends the rows of one worksheet to a channel. Blank rows and
// trailing empty cells are dropped, and date cells are rendered as ISO dates
// so incident loaders can parse them. Both channels are closed when
// processing completes.
func StreamXLSX(ctx context.Context, path string, opts XLSXOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		wb, err := xlsx.OpenFile(path)
		if err != nil {
			errCh <- eris.Wrap(err, "xlsx: open file")
			return
		}

		sheet, err := pickSheet(wb, opts.Sheet)
		if err != nil {
			errCh <- err
			return
		}

		for i, row := range sheet.Rows {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "xlsx: context cancelled")
				return
			}
			if i < opts.SkipRows {
				continue
			}

			cells := rowCells(row, wb.Date1904, opts.TrimSpace)
			if len(cells) == 0 {
				continue
			}

			select {
			case rowCh <- cells:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "xlsx: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// pickSheet returns the named sheet, or the first one with any rows.
func pickSheet(wb *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := wb.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	for _, sheet := range wb.Sheets {
		if len(sheet.Rows) > 0 {
			return sheet, nil
		}
	}
	return nil, eris.New("xlsx: workbook has no rows")
}

// rowCells renders a row as strings with trailing empty cells removed. A row
// with no content yields nil.
func rowCells(row *xlsx.Row, date1904, trim bool) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	last := -1
	for j, cell := range row.Cells {
		v := cellText(cell, date1904)
		if trim {
			v = strings.TrimSpace(v)
		}
		cells[j] = v
		if strings.TrimSpace(v) != "" {
			last = j
		}
	}
	return cells[:last+1]
}

func cellText(cell *xlsx.Cell, date1904 bool) string {
	if cell == nil {
		return ""
	}
	if cell.Type() == xlsx.CellTypeNumeric && cell.IsTime() {
		if t, err := cell.GetTime(date1904); err == nil {
			t = t.Round(time.Second)
			if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
				return t.Format("2006-01-02")
			}
			return t.Format("2006-01-02T15:04:05")
		}
	}
	return cell.String()
}
