package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dtnitsch/spotistats/models"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// PrintRecords writes the first limit records as a table.
func PrintRecords(out io.Writer, records []models.SongRecord, limit int) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"", models.ColRank, models.ColSong, models.ColArtist, models.ColStreams, models.ColReleaseDate})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
	})

	for i, r := range records {
		if i >= limit {
			break
		}
		rank := "-"
		if r.Rank != nil {
			rank = fmt.Sprintf("%d", *r.Rank)
		}
		released := "-"
		if r.ReleaseDate != nil {
			released = r.ReleaseDate.Format("2006-01-02")
		}
		t.AppendRow(table.Row{i, rank, r.Song, r.Artist, humanize.Comma(int64(math.Round(r.Streams))), released})
	}
	t.Render()
}

// WriteSummary prints the run summary as text, yaml or json.
func WriteSummary(out io.Writer, s *Summary, format string) error {
	switch strings.ToLower(format) {
	case "yaml":
		data, err := yaml.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		_, err = out.Write(data)
		return err
	case "json":
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "", "text":
		fmt.Fprintf(out, "Database: %s\n", s.Database)
		fmt.Fprintf(out, "Songs processed: %d\n", s.Songs)
		for _, path := range s.Charts {
			fmt.Fprintf(out, "Chart exported: %s\n", path)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
