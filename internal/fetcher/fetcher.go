package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher downloads a remote file.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

// ForURL returns the fetcher for rawURL's scheme: http, https, or ftp.
func ForURL(rawURL string, timeout time.Duration) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %q", rawURL)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewHTTPFetcher(HTTPOptions{Timeout: timeout}), nil
	case "ftp":
		return NewFTPFetcher(FTPOptions{Timeout: timeout}), nil
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q in %s", u.Scheme, rawURL)
	}
}

// URLExt returns the lowercased extension of the URL's path, e.g. ".csv".
func URLExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(path.Ext(u.Path))
}

// DownloadToFile copies rawURL into a new file under dir and returns its
// path. The file keeps the URL's extension so readers can sniff the format.
// An empty dir uses the system temp directory.
func DownloadToFile(ctx context.Context, f Fetcher, rawURL, dir string) (string, int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return "", 0, err
	}
	defer body.Close() //nolint:errcheck

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", 0, eris.Wrapf(err, "fetcher: create cache dir %s", dir)
		}
	}
	file, err := os.CreateTemp(dir, "rentrisk-*"+URLExt(rawURL))
	if err != nil {
		return "", 0, eris.Wrap(err, "fetcher: create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, body)
	if err != nil {
		_ = os.Remove(file.Name())
		return "", n, eris.Wrapf(err, "fetcher: write %s", file.Name())
	}

	zap.L().Info("fetcher: downloaded",
		zap.String("url", rawURL),
		zap.String("path", file.Name()),
		zap.Int64("bytes", n),
	)
	return file.Name(), n, nil
}
