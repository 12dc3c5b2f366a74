// Package normalizer turns the scraped songs table into canonical SongRecords.
//
// Columns are renamed by position: after any reference column is dropped the
// source table must list rank, title, artist, streams (billions) and release
// date in that order. The header text is not used to find these columns, so a
// reordered source table would be mislabelled; the column count check only
// catches added or removed columns.
package normalizer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dtnitsch/spotistats/models"
	"github.com/dtnitsch/spotistats/pkg/parser"
)

// AnnotationMarker marks footnote rows embedded in the streams column.
const AnnotationMarker = "As of"

// StreamsUnit converts the table's billions into absolute stream counts.
const StreamsUnit = 1e9

// referenceHeaders are footnote/citation column names, compared after lowercasing and trimming dots.
var referenceHeaders = map[string]struct{}{
	"ref":        {},
	"refs":       {},
	"ref(s)":     {},
	"reference":  {},
	"references": {},
	"citation":   {},
	"citations":  {},
}

// ParseError reports markup without a table or a table of unexpected shape.
type ParseError struct {
	Reason string
	Row    int // -1 when not tied to a row
}

func (e *ParseError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("parse error at row %d: %s", e.Row, e.Reason)
	}
	return "parse error: " + e.Reason
}

// Stats counts what happened to the source rows.
type Stats struct {
	SourceRows      int
	AnnotationRows  int // dropped because the streams cell is a footnote
	MissingRequired int // dropped because Song or Artist is empty
	NullRanks       int
	NullDates       int
}

// FromHTML extracts the first table of html and normalizes it.
func FromHTML(html string) ([]models.SongRecord, Stats, error) {
	p := &parser.Parser{}
	doc, err := p.Parse(html)
	if err != nil {
		return nil, Stats{}, &ParseError{Reason: err.Error(), Row: -1}
	}
	table, err := p.FirstTable(doc)
	if err != nil {
		return nil, Stats{}, &ParseError{Reason: err.Error(), Row: -1}
	}
	return Normalize(table)
}

// Normalize converts a raw table into records, preserving source row order.
func Normalize(table *models.Table) ([]models.SongRecord, Stats, error) {
	if table == nil {
		return nil, Stats{}, &ParseError{Reason: parser.ErrNoTables.Error(), Row: -1}
	}

	table = DropReferenceColumns(table)
	if len(table.Headers) != len(models.Columns) {
		return nil, Stats{}, &ParseError{
			Reason: fmt.Sprintf("expected %d columns %v, got %d %q", len(models.Columns), models.Columns, len(table.Headers), table.Headers),
			Row:    -1,
		}
	}

	stats := Stats{SourceRows: len(table.Rows)}
	records := make([]models.SongRecord, 0, len(table.Rows))

	for i, row := range table.Rows {
		if len(row) < len(models.Columns) {
			padded := make([]string, len(models.Columns))
			copy(padded, row)
			row = padded
		}
		rank, song, artist, streamsCell, dateCell := row[0], row[1], row[2], row[3], row[4]

		if strings.Contains(streamsCell, AnnotationMarker) {
			stats.AnnotationRows++
			continue
		}

		streams, err := ParseStreams(streamsCell)
		if err != nil {
			return nil, stats, &ParseError{Reason: err.Error(), Row: i}
		}

		song = strings.TrimSpace(song)
		artist = strings.TrimSpace(artist)
		if song == "" || artist == "" {
			stats.MissingRequired++
			continue
		}

		record := models.SongRecord{
			Rank:        ParseRank(rank),
			Song:        song,
			Artist:      artist,
			Streams:     streams,
			ReleaseDate: ParseDate(dateCell),
		}
		if record.Rank == nil {
			stats.NullRanks++
		}
		if record.ReleaseDate == nil {
			stats.NullDates++
		}
		records = append(records, record)
	}

	return records, stats, nil
}

// DropReferenceColumns removes every footnote/reference column from table.
func DropReferenceColumns(table *models.Table) *models.Table {
	for i := len(table.Headers) - 1; i >= 0; i-- {
		if IsReferenceHeader(table.Headers[i]) {
			table = table.DropColumn(i)
		}
	}
	return table
}

// IsReferenceHeader reports whether header names a citation column such as "Ref.".
func IsReferenceHeader(header string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.TrimRight(h, ".")
	_, ok := referenceHeaders[h]
	return ok
}

// ParseStreams converts a streams cell in billions into an absolute count.
func ParseStreams(cell string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return 0, errors.New("empty streams value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid streams value %q", cell)
	}
	return v * StreamsUnit, nil
}

// ParseRank returns nil for anything that is not an integral number.
func ParseRank(cell string) *int {
	s := strings.TrimSpace(cell)
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return nil
	}
	n := int(f)
	return &n
}

// ParseDate returns nil when cell does not hold a recognisable date.
func ParseDate(cell string) *time.Time {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
