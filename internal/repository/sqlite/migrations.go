package sqlite

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations contains all database migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "announcements",
		Up: `
			CREATE TABLE IF NOT EXISTS announcements (
				streamer_identity TEXT PRIMARY KEY,
				message_id TEXT NOT NULL,
				stream_id TEXT NOT NULL,
				category_name TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX IF NOT EXISTS idx_announcements_stream_id ON announcements(stream_id);
		`,
	},
	{
		Version: 2,
		Name:    "announcements_platform_and_timestamps",
		Up: `
			ALTER TABLE announcements ADD COLUMN platform TEXT NOT NULL DEFAULT '';
			ALTER TABLE announcements ADD COLUMN created_at DATETIME;
			ALTER TABLE announcements ADD COLUMN updated_at DATETIME;

			CREATE INDEX IF NOT EXISTS idx_announcements_platform ON announcements(platform);
		`,
	},
	{
		Version: 3,
		Name:    "announcements_platform_key",
		Up: `
			CREATE TABLE announcements_by_platform (
				platform TEXT NOT NULL,
				streamer_identity TEXT NOT NULL,
				message_id TEXT NOT NULL,
				stream_id TEXT NOT NULL,
				category_name TEXT NOT NULL DEFAULT '',
				created_at DATETIME,
				updated_at DATETIME,
				PRIMARY KEY (platform, streamer_identity)
			);

			INSERT INTO announcements_by_platform
				(platform, streamer_identity, message_id, stream_id, category_name, created_at, updated_at)
			SELECT COALESCE(NULLIF(platform, ''), 'twitch'), streamer_identity, message_id, stream_id,
				category_name, created_at, updated_at
			FROM announcements;

			DROP TABLE announcements;
			ALTER TABLE announcements_by_platform RENAME TO announcements;

			CREATE INDEX IF NOT EXISTS idx_announcements_stream_id ON announcements(stream_id);
		`,
	},
}

// Migrate runs all pending migrations
func Migrate(db *sql.DB) error {
	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.Exec(migration.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			migration.Version,
			migration.Name,
			sql.NullTime{Time: timeNow(), Valid: true},
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// getCurrentVersion returns the current schema version
func getCurrentVersion(db *sql.DB) (int, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var version int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to query version: %w", err)
	}
	return version, nil
}
