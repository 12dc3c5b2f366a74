package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/dtnitsch/spotistats/models"
	"github.com/dtnitsch/spotistats/pkg/storage"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

// Renderer draws or exports one chart. Callers pass it explicitly; there is no
// package-level drawing state.
type Renderer interface {
	Render(chart models.Chart) error
}

// Terminal draws charts as text bar tables. Every chart is drawn with
// horizontal bars regardless of Orientation, since that is what fits a terminal.
type Terminal struct {
	Out        io.Writer
	BarWidth   int // Width of the longest bar in cells
	LabelWidth int // Labels wider than this are truncated
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{Out: out, BarWidth: 40, LabelWidth: 32}
}

func (t *Terminal) Render(chart models.Chart) error {
	if t.Out == nil {
		return errors.New("terminal renderer has no output")
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(t.Out)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(chart.Title)

	valueLabel := chart.XLabel
	labelHeader := ""
	if chart.Orientation == models.Vertical {
		// Vertical charts put categories on the X axis and values on the Y axis.
		labelHeader, valueLabel = chart.XLabel, chart.YLabel
	}
	tw.AppendHeader(table.Row{labelHeader, "", valueLabel})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
	})

	peak := 0.0
	for _, b := range chart.Bars {
		peak = math.Max(peak, b.Value)
	}
	for _, b := range chart.Bars {
		tw.AppendRow(table.Row{
			runewidth.Truncate(b.Label, t.LabelWidth, "…"),
			bar(b.Value, peak, t.BarWidth),
			humanize.FtoaWithDigits(b.Value, 2),
		})
	}
	if len(chart.Bars) == 0 {
		tw.AppendRow(table.Row{"(no data)", "", ""})
	}
	if chart.Note != "" {
		tw.SetCaption(chart.Note)
	}

	tw.Render()
	_, err := fmt.Fprintln(t.Out)
	return err
}

func bar(value, peak float64, width int) string {
	if peak <= 0 || value <= 0 || width <= 0 {
		return ""
	}
	n := int(math.Round(value / peak * float64(width)))
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

// YAMLExporter writes each chart to <Dir>/<slug>.yaml.
type YAMLExporter struct {
	Dir     string
	Storage *storage.Storage
}

func NewYAMLExporter(dir string) *YAMLExporter {
	return &YAMLExporter{Dir: dir, Storage: &storage.Storage{}}
}

// Path returns where chart is written.
func (e *YAMLExporter) Path(chart models.Chart) string {
	return filepath.Join(e.Dir, chart.Slug+".yaml")
}

func (e *YAMLExporter) Render(chart models.Chart) error {
	data, err := yaml.Marshal(chart)
	if err != nil {
		return fmt.Errorf("failed to marshal chart %s: %w", chart.Slug, err)
	}
	return e.Storage.SaveFile(e.Path(chart), data)
}

// Multi fans a chart out to several renderers, stopping at the first error.
type Multi []Renderer

func (m Multi) Render(chart models.Chart) error {
	for _, r := range m {
		if err := r.Render(chart); err != nil {
			return err
		}
	}
	return nil
}
