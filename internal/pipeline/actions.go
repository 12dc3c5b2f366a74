package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dtnitsch/spotistats/internal/common"
	"github.com/dtnitsch/spotistats/models"
	"github.com/dtnitsch/spotistats/pkg/charts"
	"github.com/dtnitsch/spotistats/pkg/fetcher"
	"github.com/urfave/cli/v2"
)

func newLogger(quiet bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if quiet {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// ConfigFromFlags builds a Config from the shared CLI flags.
func ConfigFromFlags(c *cli.Context) models.Config {
	cfg := models.DefaultConfig()
	cfg.URL = c.String("url")
	cfg.DBPath = c.String("db")
	cfg.Table = c.String("table")
	cfg.ExportDir = c.String("export-dir")
	cfg.Format = c.String("format")
	cfg.Quiet = c.Bool("quiet")
	cfg.Preview = c.Int("preview")
	cfg.NoCharts = c.Bool("no-charts")
	return cfg
}

func newRenderer(cfg models.Config, out io.Writer) charts.Renderer {
	if cfg.NoCharts {
		if cfg.ExportDir != "" {
			return charts.NewYAMLExporter(cfg.ExportDir)
		}
		return nil
	}
	terminal := charts.NewTerminal(out)
	if cfg.ExportDir != "" {
		return charts.Multi{terminal, charts.NewYAMLExporter(cfg.ExportDir)}
	}
	return terminal
}

func newPipeline(cfg models.Config, out io.Writer) *Pipeline {
	return &Pipeline{
		Fetcher:  fetcher.NewFetcher(),
		Renderer: newRenderer(cfg, out),
		Out:      out,
		Logger:   newLogger(cfg.Quiet),
	}
}

// fail is the single failure boundary: one message, one exit status for every error kind.
func fail(out io.Writer, err error) error {
	fmt.Fprintf(out, "\nError during execution: %v\n", err)
	return cli.Exit("", 1)
}

// RunAction fetches, normalizes, stores and charts the songs table.
func RunAction(c *cli.Context) error {
	cfg := ConfigFromFlags(c)
	out := c.App.Writer

	url, err := common.ValidateURL(cfg.URL)
	if err != nil {
		return fail(out, err)
	}
	cfg.URL = url

	p := newPipeline(cfg, out)
	summary, err := p.Run(cfg)
	if err != nil {
		return fail(out, err)
	}
	if err := WriteSummary(out, summary, cfg.Format); err != nil {
		return fail(out, err)
	}
	return nil
}

// ChartsAction renders charts from an existing database table.
func ChartsAction(c *cli.Context) error {
	cfg := ConfigFromFlags(c)
	out := c.App.Writer
	p := newPipeline(cfg, out)

	summary, err := p.Charts(cfg)
	if err != nil {
		return fail(out, err)
	}
	if err := WriteSummary(out, summary, cfg.Format); err != nil {
		return fail(out, err)
	}
	return nil
}

// ShowAction prints stored records.
func ShowAction(c *cli.Context) error {
	cfg := ConfigFromFlags(c)
	out := c.App.Writer
	p := newPipeline(cfg, out)

	if err := p.Show(cfg, c.Int("limit")); err != nil {
		return fail(out, err)
	}
	return nil
}
