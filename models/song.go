package models

import "time"

// Canonical column names, in table order.
const (
	ColRank        = "Rank"
	ColSong        = "Song"
	ColArtist      = "Artist"
	ColStreams     = "Streams"
	ColReleaseDate = "Release_Date"
)

// Columns is the canonical schema every normalized record set follows.
var Columns = []string{ColRank, ColSong, ColArtist, ColStreams, ColReleaseDate}

// SongRecord is one row of the most-streamed songs table.
type SongRecord struct {
	Rank        *int       `json:"rank" yaml:"rank"`
	Song        string     `json:"song" yaml:"song"`
	Artist      string     `json:"artist" yaml:"artist"`
	Streams     float64    `json:"streams" yaml:"streams"` // Absolute count, not billions
	ReleaseDate *time.Time `json:"release_date" yaml:"release_date"`
}

// StreamsBillions returns the stream count in billions, the unit the source table uses.
func (r SongRecord) StreamsBillions() float64 {
	return r.Streams / 1e9
}
