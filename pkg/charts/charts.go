// Package charts builds the descriptive views of a song record set and hands
// them to a Renderer. Builders never modify the records they are given.
package charts

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/dtnitsch/spotistats/models"
	"github.com/dtnitsch/spotistats/pkg/mapreduce"
)

// TopN is the number of bars in the ranking charts.
const TopN = 10

// All returns the three standard charts in display order.
func All(records []models.SongRecord) []models.Chart {
	return []models.Chart{
		TopSongs(records, TopN),
		ReleasesByYear(records),
		TopArtists(records, TopN),
	}
}

// TopSongs ranks songs by streams, largest first. Ties keep source order.
func TopSongs(records []models.SongRecord, n int) models.Chart {
	working := make([]models.SongRecord, len(records))
	copy(working, records)
	sort.SliceStable(working, func(i, j int) bool {
		return working[i].Streams > working[j].Streams
	})

	chart := models.Chart{
		Slug:        "top-songs",
		Title:       fmt.Sprintf("Top %d most-streamed songs on Spotify", n),
		XLabel:      "Streams (billions)",
		Orientation: models.Horizontal,
	}
	for _, r := range working[:limit(len(working), n)] {
		chart.Bars = append(chart.Bars, models.Bar{Label: r.Song, Value: r.StreamsBillions()})
	}
	return chart
}

// ReleasesByYear counts songs per release year, oldest year first.
// Songs without a release date are left out and reported in Note.
func ReleasesByYear(records []models.SongRecord) models.Chart {
	counts := mapreduce.Map(records,
		func(r models.SongRecord) (string, bool) {
			year, ok := yearOf(r)
			return fmt.Sprintf("%04d", year), ok
		},
		func(models.SongRecord) float64 { return 1 },
	)

	// Keys are zero-padded to four digits, so string order is year order.
	years := make([]string, 0, len(counts))
	for y := range counts {
		years = append(years, y)
	}
	sort.Strings(years)

	chart := models.Chart{
		Slug:        "releases-by-year",
		Title:       "Songs in the list by release year",
		XLabel:      "Year",
		YLabel:      "Number of songs",
		Orientation: models.Vertical,
	}
	dated := 0
	for _, y := range years {
		chart.Bars = append(chart.Bars, models.Bar{Label: y, Value: counts[y]})
		dated += int(counts[y])
	}
	if unknown := len(records) - dated; unknown > 0 {
		chart.Note = strconv.Itoa(unknown) + " song(s) without a release date excluded"
	}
	return chart
}

// TopArtists sums streams per artist and ranks the totals, largest first.
// Equal totals are ordered by artist name.
func TopArtists(records []models.SongRecord, n int) models.Chart {
	totals := mapreduce.Map(records,
		func(r models.SongRecord) (string, bool) { return r.Artist, true },
		func(r models.SongRecord) float64 { return r.Streams },
	)

	chart := models.Chart{
		Slug:        "top-artists",
		Title:       fmt.Sprintf("Top %d artists by total streams", n),
		XLabel:      "Artist",
		YLabel:      "Total streams (billions)",
		Orientation: models.Vertical,
	}
	for _, e := range mapreduce.TopN(totals, n) {
		chart.Bars = append(chart.Bars, models.Bar{Label: e.Key, Value: e.Value / 1e9})
	}
	return chart
}

// yearOf is the transient year column; it is never stored on the record.
func yearOf(r models.SongRecord) (int, bool) {
	if r.ReleaseDate == nil {
		return 0, false
	}
	return r.ReleaseDate.Year(), true
}

func limit(length, n int) int {
	if n < 0 {
		return 0
	}
	if length < n {
		return length
	}
	return n
}
