// Package storage persists the whole application state as one JSON blob in
// a sqlite-backed key-value table, with binary assets stored independently
// by opaque id so they can be hydrated on demand.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/conorfennell/studylib/internal/domain"
)

const appDataKey = "appdata"

// DB represents a wrapper around the SQL database connection. It is an
// explicit handle threaded through every call, never a package global.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// LoadAppData reads the persisted application state. A fresh database
// yields an empty AppData, not an error.
func (db *DB) LoadAppData() (domain.AppData, error) {
	var blob []byte
	row := db.conn.QueryRow(`SELECT value FROM app_state WHERE key = ?`, appDataKey)
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return domain.NewAppData(), nil
		}
		return domain.AppData{}, fmt.Errorf("failed to load app data: %w", err)
	}

	var data domain.AppData
	if err := json.Unmarshal(blob, &data); err != nil {
		return domain.AppData{}, fmt.Errorf("failed to decode app data: %w", err)
	}
	if data.Libraries == nil {
		data.Libraries = map[string]domain.LibraryData{}
	}
	return data, nil
}

// SaveAppData writes the whole application state as one JSON blob.
func (db *DB) SaveAppData(data domain.AppData) error {
	blob, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode app data: %w", err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO app_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, appDataKey, blob, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save app data: %w", err)
	}
	return nil
}

// PutAsset stores a binary asset under its opaque id, replacing any
// previous content.
func (db *DB) PutAsset(id string, data []byte) error {
	_, err := db.conn.Exec(`
		INSERT INTO assets (id, data, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, id, data, time.Now())
	if err != nil {
		return fmt.Errorf("failed to store asset %s: %w", id, err)
	}
	return nil
}

// GetAsset fetches one asset by id. Assets are fetched only when actually
// needed, never eagerly with the tree. Missing ids return domain.ErrNotFound.
func (db *DB) GetAsset(id string) ([]byte, error) {
	var data []byte
	row := db.conn.QueryRow(`SELECT data FROM assets WHERE id = ?`, id)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("asset %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch asset %s: %w", id, err)
	}
	return data, nil
}

// DeleteAsset removes an asset by id.
func (db *DB) DeleteAsset(id string) error {
	_, err := db.conn.Exec(`DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", id, err)
	}
	return nil
}
