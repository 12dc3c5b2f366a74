package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dtnitsch/spotistats/models"
)

// dateLayout is how Release_Date is written; SQLite has no date type.
const dateLayout = "2006-01-02 15:04:05"

const createSongsTable = `
CREATE TABLE %s (
    Rank INTEGER,
    Song TEXT,
    Artist TEXT,
    Streams REAL,
    Release_Date TEXT
)`

// Store persists song records to a single-file SQLite database.
// Each Save and Load opens and closes its own connection.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Save replaces table with records. Any existing table of that name is dropped first.
func (s *Store) Save(records []models.SongRecord, table string) (err error) {
	wrap := func(e error) error {
		return &StoreError{Op: "save", Path: s.path, Table: table, Err: e}
	}
	if table == "" {
		return wrap(errors.New("empty table name"))
	}

	sqlDB, err := openDB(s.path)
	if err != nil {
		return wrap(err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil && err == nil {
			err = wrap(fmt.Errorf("failed to close database: %w", cerr))
		}
	}()

	tx, err := sqlDB.Begin()
	if err != nil {
		return wrap(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() // Rollback error less important than the original error
		}
	}()

	if _, err = tx.Exec("DROP TABLE IF EXISTS " + quoteIdent(table)); err != nil {
		return wrap(fmt.Errorf("failed to drop table: %w", err))
	}
	if _, err = tx.Exec(fmt.Sprintf(createSongsTable, quoteIdent(table))); err != nil {
		return wrap(fmt.Errorf("failed to create table: %w", err))
	}

	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (Rank, Song, Artist, Streams, Release_Date) VALUES (?, ?, ?, ?, ?)",
		quoteIdent(table),
	))
	if err != nil {
		return wrap(fmt.Errorf("failed to prepare insert: %w", err))
	}
	defer stmt.Close()

	for i, r := range records {
		var rank, date any
		if r.Rank != nil {
			rank = *r.Rank
		}
		if r.ReleaseDate != nil {
			date = r.ReleaseDate.UTC().Format(dateLayout)
		}
		if _, err = stmt.Exec(rank, r.Song, r.Artist, r.Streams, date); err != nil {
			return wrap(fmt.Errorf("failed to insert row %d: %w", i, err))
		}
	}

	if err = tx.Commit(); err != nil {
		return wrap(fmt.Errorf("failed to commit: %w", err))
	}
	return nil
}

// Load reads every row of table in insertion order and re-parses Release_Date.
func (s *Store) Load(table string) (records []models.SongRecord, err error) {
	wrap := func(e error) error {
		return &StoreError{Op: "load", Path: s.path, Table: table, Err: e}
	}

	sqlDB, err := openDB(s.path)
	if err != nil {
		return nil, wrap(err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil && err == nil {
			err = wrap(fmt.Errorf("failed to close database: %w", cerr))
		}
	}()

	exists, err := tableExists(sqlDB, table)
	if err != nil {
		return nil, wrap(err)
	}
	if !exists {
		return nil, wrap(ErrTableNotFound)
	}

	rows, err := sqlDB.Query(fmt.Sprintf(
		"SELECT Rank, Song, Artist, Streams, Release_Date FROM %s ORDER BY rowid",
		quoteIdent(table),
	))
	if err != nil {
		return nil, wrap(fmt.Errorf("failed to query table: %w", err))
	}
	defer rows.Close()

	records = []models.SongRecord{}
	for rows.Next() {
		var (
			rank    sql.NullInt64
			song    sql.NullString
			artist  sql.NullString
			streams sql.NullFloat64
			date    sql.NullString
		)
		if err := rows.Scan(&rank, &song, &artist, &streams, &date); err != nil {
			return nil, wrap(fmt.Errorf("failed to scan row: %w", err))
		}

		r := models.SongRecord{
			Song:    song.String,
			Artist:  artist.String,
			Streams: streams.Float64,
		}
		if rank.Valid {
			n := int(rank.Int64)
			r.Rank = &n
		}
		if date.Valid {
			r.ReleaseDate = parseStoredDate(date.String)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(fmt.Errorf("failed to read rows: %w", err))
	}

	return records, nil
}

// parseStoredDate accepts dateLayout and anything else dateparse understands,
// so tables written by other tools still load. Unparsable text becomes nil.
func parseStoredDate(s string) *time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		t, err = dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return nil
		}
	}
	t = t.UTC()
	return &t
}
