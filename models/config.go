// Package models defines data structures for configuration, tables and song records.
package models

const (
	DefaultURL   = "https://en.wikipedia.org/wiki/List_of_most-streamed_songs_on_Spotify"
	DefaultDB    = "spotify.db"
	DefaultTable = "most_streamed_songs"
)

// Config holds runtime configuration for a pipeline run.
// All values come from CLI flags, not external config files.
type Config struct {
	URL       string
	DBPath    string
	Table     string
	ExportDir string // Empty disables chart export
	Format    string // text, yaml, json
	Quiet     bool
	Preview   int // Number of records to print after normalization
	NoCharts  bool
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		URL:     DefaultURL,
		DBPath:  DefaultDB,
		Table:   DefaultTable,
		Format:  "text",
		Preview: 3,
	}
}
