package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/spotistats/models"
	"github.com/dtnitsch/spotistats/pkg/charts"
	"github.com/dtnitsch/spotistats/pkg/db"
	"github.com/dtnitsch/spotistats/pkg/fetcher"
	"github.com/dtnitsch/spotistats/pkg/normalizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const songsPage = `<html><body>
<table class="wikitable sortable">
<thead><tr><th>Rank</th><th>Song</th><th>Artist(s)</th><th>Streams (billions)</th><th>Release date</th><th>Ref.</th></tr></thead>
<tbody>
<tr><td>1</td><td>"Blinding Lights"</td><td>The Weeknd</td><td>4.81</td><td>29 November 2019</td><td><sup class="reference">[1]</sup></td></tr>
<tr><td>2</td><td>"Shape of You"</td><td>Ed Sheeran</td><td>4.20</td><td>6 January 2017</td><td><sup class="reference">[2]</sup></td></tr>
<tr><td>3</td><td>"Starboy"</td><td>The Weeknd</td><td>3.90</td><td>22 September 2016</td><td><sup class="reference">[3]</sup></td></tr>
<tr><td>4</td><td>"Untitled"</td><td>Someone</td><td>3.10</td><td>TBA</td><td></td></tr>
<tr><td colspan="6">As of 1 June 2025</td></tr>
</tbody>
</table>
</body></html>`

type recorder struct {
	slugs []string
}

func (r *recorder) Render(c models.Chart) error {
	r.slugs = append(r.slugs, c.Slug)
	return nil
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, url string) models.Config {
	t.Helper()
	cfg := models.DefaultConfig()
	cfg.URL = url
	cfg.DBPath = filepath.Join(t.TempDir(), "spotify.db")
	return cfg
}

func testPipeline(out io.Writer, r charts.Renderer) *Pipeline {
	return &Pipeline{
		Fetcher:  fetcher.NewFetcher(),
		Renderer: r,
		Out:      out,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRun_EndToEnd(t *testing.T) {
	srv := serve(t, http.StatusOK, songsPage)
	cfg := testConfig(t, srv.URL)
	var out bytes.Buffer
	rec := &recorder{}

	summary, err := testPipeline(&out, rec).Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Songs)
	assert.Equal(t, 5, summary.SourceRows)
	assert.Equal(t, 1, summary.DroppedAnnotations)
	assert.Equal(t, 1, summary.NullDates)
	assert.Equal(t, []string{"top-songs", "releases-by-year", "top-artists"}, rec.slugs)

	text := out.String()
	assert.Contains(t, text, "Page downloaded successfully")
	assert.Contains(t, text, "Table processed: 4 songs")
	assert.Contains(t, text, "First 3 rows:")
	assert.Contains(t, text, "Data saved to "+cfg.DBPath+", table: most_streamed_songs")
	assert.Contains(t, text, "Chart 3: Top 10 artists by total streams...")

	stored, err := db.NewStore(cfg.DBPath).Load(cfg.Table)
	require.NoError(t, err)
	require.Len(t, stored, 4)
	assert.Equal(t, `"Blinding Lights"`, stored[0].Song)
	assert.InDelta(t, 4.81e9, stored[0].Streams, 1)
	require.NotNil(t, stored[0].ReleaseDate)
	assert.True(t, stored[0].ReleaseDate.Equal(time.Date(2019, time.November, 29, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, stored[3].ReleaseDate)
}

func TestRun_RepeatedRunsDoNotDuplicate(t *testing.T) {
	srv := serve(t, http.StatusOK, songsPage)
	cfg := testConfig(t, srv.URL)
	p := testPipeline(io.Discard, nil)

	_, err := p.Run(cfg)
	require.NoError(t, err)
	_, err = p.Run(cfg)
	require.NoError(t, err)

	stored, err := db.NewStore(cfg.DBPath).Load(cfg.Table)
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestRun_FetchErrorPersistsNothing(t *testing.T) {
	srv := serve(t, http.StatusNotFound, "missing")
	cfg := testConfig(t, srv.URL)
	rec := &recorder{}

	_, err := testPipeline(io.Discard, rec).Run(cfg)
	require.Error(t, err)

	var fe *fetcher.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)

	_, statErr := os.Stat(cfg.DBPath)
	assert.True(t, os.IsNotExist(statErr), "database must not be created")
	assert.Empty(t, rec.slugs)
}

func TestRun_ParseErrorWhenNoTable(t *testing.T) {
	srv := serve(t, http.StatusOK, "<html><body><p>moved</p></body></html>")
	cfg := testConfig(t, srv.URL)

	_, err := testPipeline(io.Discard, nil).Run(cfg)
	var pe *normalizer.ParseError
	require.True(t, errors.As(err, &pe))

	_, statErr := os.Stat(cfg.DBPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCharts_MissingTableSkipsVisualization(t *testing.T) {
	cfg := testConfig(t, "")
	require.NoError(t, db.NewStore(cfg.DBPath).Save(nil, "other"))
	rec := &recorder{}

	_, err := testPipeline(io.Discard, rec).Charts(cfg)
	var se *db.StoreError
	require.True(t, errors.As(err, &se))
	assert.ErrorIs(t, err, db.ErrTableNotFound)
	assert.Empty(t, rec.slugs)
}

func TestCharts_FromSavedTable(t *testing.T) {
	srv := serve(t, http.StatusOK, songsPage)
	cfg := testConfig(t, srv.URL)
	_, err := testPipeline(io.Discard, nil).Run(cfg)
	require.NoError(t, err)

	cfg.ExportDir = filepath.Join(t.TempDir(), "charts")
	var out bytes.Buffer
	p := testPipeline(&out, newRenderer(cfg, &out))

	summary, err := p.Charts(cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Songs)
	require.Len(t, summary.Charts, 3)
	for _, path := range summary.Charts {
		assert.FileExists(t, path)
	}
	assert.Contains(t, out.String(), "Top 10 most-streamed songs on Spotify")
}

func TestShow(t *testing.T) {
	srv := serve(t, http.StatusOK, songsPage)
	cfg := testConfig(t, srv.URL)
	_, err := testPipeline(io.Discard, nil).Run(cfg)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, testPipeline(&out, nil).Show(cfg, 2))
	assert.Contains(t, out.String(), "Blinding Lights")
	assert.Contains(t, out.String(), "4,810,000,000")
	assert.NotContains(t, out.String(), "Starboy")
	assert.Contains(t, out.String(), "2 of 4 songs shown")
}

func TestNewRenderer(t *testing.T) {
	cfg := models.DefaultConfig()

	assert.IsType(t, &charts.Terminal{}, newRenderer(cfg, io.Discard))

	cfg.ExportDir = t.TempDir()
	assert.IsType(t, charts.Multi{}, newRenderer(cfg, io.Discard))

	cfg.NoCharts = true
	assert.IsType(t, &charts.YAMLExporter{}, newRenderer(cfg, io.Discard))

	cfg.ExportDir = ""
	assert.Nil(t, newRenderer(cfg, io.Discard))
}

func TestWriteSummary(t *testing.T) {
	s := &Summary{Database: "spotify.db", Table: "most_streamed_songs", Songs: 42}

	var text bytes.Buffer
	require.NoError(t, WriteSummary(&text, s, "text"))
	assert.Equal(t, "Database: spotify.db\nSongs processed: 42\n", text.String())

	var y bytes.Buffer
	require.NoError(t, WriteSummary(&y, s, "yaml"))
	var fromYAML Summary
	require.NoError(t, yaml.Unmarshal(y.Bytes(), &fromYAML))
	assert.Equal(t, 42, fromYAML.Songs)

	var j bytes.Buffer
	require.NoError(t, WriteSummary(&j, s, "JSON"))
	var fromJSON Summary
	require.NoError(t, json.Unmarshal(j.Bytes(), &fromJSON))
	assert.Equal(t, "most_streamed_songs", fromJSON.Table)

	assert.Error(t, WriteSummary(io.Discard, s, "xml"))
}

func testApp(out io.Writer, action cli.ActionFunc) *cli.App {
	return &cli.App{
		Name:   "spotistats",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url"},
			&cli.StringFlag{Name: "db"},
			&cli.StringFlag{Name: "table", Value: models.DefaultTable},
			&cli.StringFlag{Name: "export-dir"},
			&cli.StringFlag{Name: "format", Value: "text"},
			&cli.BoolFlag{Name: "no-charts"},
			&cli.BoolFlag{Name: "quiet"},
			&cli.IntFlag{Name: "preview"},
		},
		Action: action,
	}
}

func TestRunAction_ViaCLI(t *testing.T) {
	srv := serve(t, http.StatusOK, songsPage)
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	var out bytes.Buffer
	err := testApp(&out, RunAction).Run([]string{"spotistats", "--url", srv.URL, "--db", dbPath, "--no-charts", "--quiet"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Songs processed: 4")
	assert.Contains(t, out.String(), "Database: "+dbPath)
}

func TestActions_FailureBoundary(t *testing.T) {
	notFound := serve(t, http.StatusNotFound, "missing")
	noTable := serve(t, http.StatusOK, "<html><body><p>moved</p></body></html>")

	emptyDB := filepath.Join(t.TempDir(), "empty.db")
	require.NoError(t, db.NewStore(emptyDB).Save(nil, "other"))

	tests := []struct {
		name    string
		action  cli.ActionFunc
		args    []string
		wantMsg string
	}{
		{name: "fetch error", action: RunAction, args: []string{"--url", notFound.URL}, wantMsg: "error 404"},
		{name: "parse error", action: RunAction, args: []string{"--url", noTable.URL}, wantMsg: "no tables found"},
		{name: "invalid url", action: RunAction, args: []string{"--url", "ftp://example.com"}, wantMsg: "unsupported scheme"},
		{name: "missing table", action: ChartsAction, args: []string{"--db", emptyDB}, wantMsg: "table does not exist"},
		{name: "show missing table", action: ShowAction, args: []string{"--db", emptyDB}, wantMsg: "table does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exitCode := -1
			origExiter := cli.OsExiter
			cli.OsExiter = func(code int) { exitCode = code }
			t.Cleanup(func() { cli.OsExiter = origExiter })

			dbPath := filepath.Join(t.TempDir(), "run.db")
			args := append([]string{"spotistats", "--db", dbPath, "--no-charts", "--quiet"}, tt.args...)

			var out bytes.Buffer
			err := testApp(&out, tt.action).Run(args)
			require.Error(t, err)

			assert.Equal(t, 1, exitCode)
			assert.Equal(t, 1, strings.Count(out.String(), "Error during execution:"), out.String())
			assert.Contains(t, out.String(), tt.wantMsg)
			assert.NotContains(t, out.String(), "Songs processed")

			_, statErr := os.Stat(dbPath)
			assert.True(t, os.IsNotExist(statErr), "a failed run must not write the database")
		})
	}
}
