package source

import "context"

// Memory is an in-process table. It backs fixtures and round-trip checks.
type Memory struct {
	Label  string
	Header []string
	Rows   [][]string
}

// Name implements Source.
func (m *Memory) Name() string {
	if m.Label == "" {
		return "memory"
	}
	return "memory:" + m.Label
}

// Open implements Source.
func (m *Memory) Open(ctx context.Context) (*Stream, error) {
	rowCh := make(chan []string, len(m.Rows)+1)
	errCh := make(chan error, 1)
	rowCh <- m.Header
	for _, r := range m.Rows {
		rowCh <- append([]string(nil), r...)
	}
	close(rowCh)
	if ctx.Err() != nil {
		errCh <- ctx.Err()
	}
	close(errCh)
	return headed(m.Name(), rowCh, errCh, nil)
}
