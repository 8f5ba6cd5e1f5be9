package db

import (
	"database/sql"
	"fmt"

	"WaveFM/config"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ConnectSQLite opens the SQLite database file and verifies the connection.
func ConnectSQLite(cfg *config.Config) (*sql.DB, error) {
	// _busy_timeout keeps concurrent writers from failing immediately with
	// SQLITE_BUSY; foreign keys are off by default in SQLite.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", cfg.SQLitePath)

	database, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return database, nil
}

// sqliteSchema mirrors the Postgres schema in SQLite dialect. The composite
// unique index on ratings is the enforcement point for the one-rating-per-
// user-per-song invariant.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		first_name TEXT,
		last_name TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_login DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS songs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT,
		duration INTEGER,
		file_path TEXT,
		user_id INTEGER REFERENCES users(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS playlists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		user_id INTEGER REFERENCES users(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS playlist_songs (
		playlist_id INTEGER REFERENCES playlists(id),
		song_id INTEGER REFERENCES songs(id),
		position INTEGER,
		PRIMARY KEY (playlist_id, song_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		song_title TEXT NOT NULL,
		song_artist TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK (rating IN (-1, 1)),
		submitted_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, song_title, song_artist)
	)`,
}

// InitSQLiteSchema creates the tables if they don't exist.
func InitSQLiteSchema(database *sql.DB) error {
	for _, stmt := range sqliteSchema {
		if _, err := database.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply sqlite schema: %w", err)
		}
	}
	return nil
}
