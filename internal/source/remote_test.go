package source

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rentrisk/internal/fetcher"
)

const crimesExport = "LA crimes, year to date\n# exported from the open data portal\nLATITUDE,LONGITUDE,CATEGORY\n 34.05 , -118.24 , ROBBERY \n"

func TestRemote_DownloadsOnceAndStreams(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/exports/LA_YTD_Crimes.csv", r.URL.Path)
		_, _ = io.WriteString(w, crimesExport)
	}))
	defer srv.Close()

	src, err := New(Config{
		URL:       srv.URL + "/exports/LA_YTD_Crimes.csv",
		SkipRows:  1,
		Comment:   "#",
		TrimSpace: true,
	}, Options{CacheDir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &Remote{}, src)
	assert.Equal(t, "csv:"+srv.URL+"/exports/LA_YTD_Crimes.csv", src.Name())

	for range 2 {
		header, rows := readAllRows(t, src)
		assert.Equal(t, []string{"LATITUDE", "LONGITUDE", "CATEGORY"}, header)
		assert.Equal(t, [][]string{{"34.05", "-118.24", "ROBBERY"}}, rows)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestRemote_KindFromURL(t *testing.T) {
	src, err := New(Config{URL: "ftp://ftp.example.com/pub/listingsLA.xlsx"}, Options{})
	require.NoError(t, err)
	r := src.(*Remote)
	assert.Equal(t, KindXLSX, r.Kind)
	assert.IsType(t, &fetcher.FTPFetcher{}, r.Fetcher)

	src, err = New(Config{Kind: "csv", URL: "https://data.lacity.org/api/views/2nrs/rows?accessType=DOWNLOAD"}, Options{})
	require.NoError(t, err)
	assert.IsType(t, &fetcher.HTTPFetcher{}, src.(*Remote).Fetcher)
}

func TestRemote_Errors(t *testing.T) {
	_, err := New(Config{URL: "https://example.com/export"}, Options{})
	assert.ErrorContains(t, err, "cannot infer kind")

	_, err = New(Config{Kind: "postgres", URL: "https://example.com/a.csv"}, Options{})
	assert.ErrorContains(t, err, "cannot be fetched from a url")

	_, err = New(Config{URL: "s3://bucket/a.csv"}, Options{})
	assert.ErrorContains(t, err, "unsupported scheme")

	_, err = New(Config{URL: "https://example.com/a.csv", SkipRows: -1}, Options{})
	assert.ErrorContains(t, err, "skip_rows")
}

func TestRemote_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	src, err := New(Config{URL: srv.URL + "/missing.csv"}, Options{CacheDir: t.TempDir()})
	require.NoError(t, err)

	_, err = src.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source: fetch csv:")
	assert.Contains(t, err.Error(), "unexpected status 404")
}
