package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dtnitsch/spotistats/models"
	"github.com/dtnitsch/spotistats/pkg/charts"
	"github.com/dtnitsch/spotistats/pkg/db"
	"github.com/dtnitsch/spotistats/pkg/normalizer"
)

// PageFetcher returns the raw body of a page.
type PageFetcher interface {
	GetHtmlBytes(url string) ([]byte, error)
}

// Pipeline wires fetch, normalize, store and visualize together.
// Renderer may be nil to skip chart rendering.
type Pipeline struct {
	Fetcher  PageFetcher
	Renderer charts.Renderer
	Out      io.Writer
	Logger   *slog.Logger
}

// Summary is the final report of a run.
type Summary struct {
	URL                string   `json:"url,omitempty" yaml:"url,omitempty"`
	Database           string   `json:"database" yaml:"database"`
	Table              string   `json:"table" yaml:"table"`
	SourceRows         int      `json:"source_rows,omitempty" yaml:"source_rows,omitempty"`
	Songs              int      `json:"songs" yaml:"songs"`
	DroppedAnnotations int      `json:"dropped_annotations,omitempty" yaml:"dropped_annotations,omitempty"`
	DroppedIncomplete  int      `json:"dropped_incomplete,omitempty" yaml:"dropped_incomplete,omitempty"`
	NullRanks          int      `json:"null_ranks,omitempty" yaml:"null_ranks,omitempty"`
	NullDates          int      `json:"null_dates,omitempty" yaml:"null_dates,omitempty"`
	Charts             []string `json:"charts,omitempty" yaml:"charts,omitempty"`
	ElapsedSeconds     float64  `json:"elapsed_seconds" yaml:"elapsed_seconds"`
}

// Run executes fetch, normalize, save, load and visualize in order.
// The first failing stage ends the run; nothing after it executes.
func (p *Pipeline) Run(cfg models.Config) (*Summary, error) {
	start := time.Now()
	summary := &Summary{URL: cfg.URL, Database: cfg.DBPath, Table: cfg.Table}

	fmt.Fprintln(p.Out, strings.Repeat("=", 50))

	p.Logger.Info("Fetching page", "url", cfg.URL)
	body, err := p.Fetcher.GetHtmlBytes(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	fmt.Fprintln(p.Out, "Page downloaded successfully")

	records, stats, err := normalizer.FromHTML(string(body))
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	if stats.MissingRequired > 0 {
		p.Logger.Warn("Dropped rows without song or artist", "count", stats.MissingRequired)
	}
	p.Logger.Info("Table normalized",
		"source_rows", stats.SourceRows,
		"records", len(records),
		"annotation_rows", stats.AnnotationRows,
		"null_ranks", stats.NullRanks,
		"null_dates", stats.NullDates,
	)
	fmt.Fprintf(p.Out, "Table processed: %d songs\n", len(records))

	summary.SourceRows = stats.SourceRows
	summary.Songs = len(records)
	summary.DroppedAnnotations = stats.AnnotationRows
	summary.DroppedIncomplete = stats.MissingRequired
	summary.NullRanks = stats.NullRanks
	summary.NullDates = stats.NullDates

	if cfg.Preview > 0 {
		fmt.Fprintf(p.Out, "First %d rows:\n", cfg.Preview)
		PrintRecords(p.Out, records, cfg.Preview)
	}

	store := db.NewStore(cfg.DBPath)
	if err := store.Save(records, cfg.Table); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	fmt.Fprintf(p.Out, "Data saved to %s, table: %s\n", cfg.DBPath, cfg.Table)

	loaded, err := store.Load(cfg.Table)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	p.Logger.Info("Records reloaded", "records", len(loaded), "database", cfg.DBPath, "table", cfg.Table)

	if err := p.visualize(loaded); err != nil {
		return nil, err
	}
	summary.Charts = p.exportedPaths(loaded)
	summary.ElapsedSeconds = time.Since(start).Seconds()
	return summary, nil
}

// Charts loads a previously saved table and renders it without touching the network.
func (p *Pipeline) Charts(cfg models.Config) (*Summary, error) {
	start := time.Now()
	loaded, err := db.NewStore(cfg.DBPath).Load(cfg.Table)
	if err != nil {
		return nil, err
	}
	p.Logger.Info("Records loaded", "records", len(loaded), "database", cfg.DBPath, "table", cfg.Table)

	if err := p.visualize(loaded); err != nil {
		return nil, err
	}
	return &Summary{
		Database:       cfg.DBPath,
		Table:          cfg.Table,
		Songs:          len(loaded),
		Charts:         p.exportedPaths(loaded),
		ElapsedSeconds: time.Since(start).Seconds(),
	}, nil
}

// Show prints the first limit records of a saved table.
func (p *Pipeline) Show(cfg models.Config, limit int) error {
	loaded, err := db.NewStore(cfg.DBPath).Load(cfg.Table)
	if err != nil {
		return err
	}
	PrintRecords(p.Out, loaded, limit)
	fmt.Fprintf(p.Out, "%d of %d songs shown\n", min(limit, len(loaded)), len(loaded))
	return nil
}

func (p *Pipeline) visualize(records []models.SongRecord) error {
	if p.Renderer == nil {
		p.Logger.Info("Chart rendering disabled")
		return nil
	}
	for i, chart := range charts.All(records) {
		fmt.Fprintf(p.Out, "Chart %d: %s...\n", i+1, chart.Title)
		if err := p.Renderer.Render(chart); err != nil {
			return fmt.Errorf("render %s: %w", chart.Slug, err)
		}
	}
	return nil
}

// exportedPaths lists chart files written by any YAMLExporter in the renderer.
func (p *Pipeline) exportedPaths(records []models.SongRecord) []string {
	var exporters []*charts.YAMLExporter
	switch r := p.Renderer.(type) {
	case *charts.YAMLExporter:
		exporters = append(exporters, r)
	case charts.Multi:
		for _, inner := range r {
			if e, ok := inner.(*charts.YAMLExporter); ok {
				exporters = append(exporters, e)
			}
		}
	}

	var paths []string
	for _, e := range exporters {
		for _, c := range charts.All(records) {
			paths = append(paths, e.Path(c))
		}
	}
	return paths
}
