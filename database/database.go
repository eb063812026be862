// Package database is the durable sink for the library: a versioned sqlite
// database holding the tracks and playlists collections, plus a separate
// plain-file slot for the last selected track id.
package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"tunecrate/config"
	"tunecrate/models"
)

// schemaVersion is monotonically increasing. Opening an older file replays
// only the missing steps; every step is additive (create-if-absent, never a
// field rewrite).
const schemaVersion = 2

// migrations[v] holds the statements that bring a database at version v-1 to
// version v.
var migrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS tracks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			album TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			duration REAL NOT NULL DEFAULT 0,
			audio_data TEXT NOT NULL,
			cover_art_data TEXT NOT NULL DEFAULT ''
		)`,
	},
	2: {
		`CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			songs TEXT NOT NULL
		)`,
	},
}

type Store struct {
	db        *sql.DB
	prefsPath string
}

// New opens the store at the configured paths, falling back to defaults when
// no config has been loaded.
func New() (*Store, error) {
	dbPath := "tunecrate.db"
	prefsPath := ""
	if config.Config != nil {
		dbPath = config.Config.Database.Path
		prefsPath = config.Config.Database.PrefsPath
	}
	if prefsPath == "" {
		prefsPath = filepath.Join(filepath.Dir(dbPath), "current_track")
	}
	return Open(dbPath, prefsPath)
}

// Open opens (creating if needed) the database at dbPath and uses prefsPath
// for the scalar selection slot.
func Open(dbPath, prefsPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db, prefsPath: prefsPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infof("library database opened at %s", dbPath)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for v := current + 1; v <= schemaVersion; v++ {
		for _, stmt := range migrations[v] {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("migration to version %d failed: %w\nSQL: %s", v, err, stmt)
			}
		}
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
			return fmt.Errorf("bumping schema version to %d: %w", v, err)
		}
		log.Debugf("migrated library database to schema version %d", v)
	}
	return nil
}

// ReplaceAllTracks rewrites the tracks collection in a single transaction:
// clear everything, then insert the persistable projection of each track.
// Transient handles are never written. Any insert failure rolls the whole
// rewrite back.
func (s *Store) ReplaceAllTracks(tracks []models.Track) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin tracks rewrite: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM tracks"); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear tracks: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO tracks (id, title, artist, album, category, duration, audio_data, cover_art_data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tracks {
		if _, err := stmt.Exec(t.ID, t.Title, t.Artist, t.Album, t.Category,
			t.Duration, t.AudioData, t.CoverArtData); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert track %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tracks rewrite: %w", err)
	}
	return nil
}

// LoadAllTracks reads every persisted track and rederives the transient
// handles from the durable payloads.
func (s *Store) LoadAllTracks() ([]models.Track, error) {
	rows, err := s.db.Query(
		`SELECT id, title, artist, album, category, duration, audio_data, cover_art_data
		 FROM tracks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		var t models.Track
		if err := rows.Scan(&t.ID, &t.Title, &t.Artist, &t.Album, &t.Category,
			&t.Duration, &t.AudioData, &t.CoverArtData); err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		if err := t.RestoreHandles(); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// ReplaceAllPlaylists rewrites the playlists collection. Each playlist is
// stored whole, its song snapshots serialized as one JSON document.
func (s *Store) ReplaceAllPlaylists(playlists []models.Playlist) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin playlists rewrite: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM playlists"); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear playlists: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO playlists (id, name, songs) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare playlist insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range playlists {
		songs, err := json.Marshal(p.Songs)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to encode songs for playlist %s: %w", p.ID, err)
		}
		if _, err := stmt.Exec(p.ID, p.Name, string(songs)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert playlist %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlists rewrite: %w", err)
	}
	return nil
}

// LoadAllPlaylists reads every persisted playlist and rederives the transient
// handles of the embedded song snapshots.
func (s *Store) LoadAllPlaylists() ([]models.Playlist, error) {
	rows, err := s.db.Query("SELECT id, name, songs FROM playlists ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var p models.Playlist
		var songs string
		if err := rows.Scan(&p.ID, &p.Name, &songs); err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		if err := json.Unmarshal([]byte(songs), &p.Songs); err != nil {
			return nil, fmt.Errorf("failed to decode songs for playlist %s: %w", p.ID, err)
		}
		for i := range p.Songs {
			if err := p.Songs[i].RestoreHandles(); err != nil {
				return nil, err
			}
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// SaveLastSelectedID writes the selection slot. An empty id clears it.
// The slot deliberately lives outside the transacted database: it is a single
// scalar with no consistency relationship to either collection.
func (s *Store) SaveLastSelectedID(id string) error {
	if err := os.WriteFile(s.prefsPath, []byte(id), 0644); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	return nil
}

// LoadLastSelectedID reads the selection slot. A missing or empty slot means
// no selection.
func (s *Store) LoadLastSelectedID() (string, error) {
	data, err := os.ReadFile(s.prefsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load selection: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
