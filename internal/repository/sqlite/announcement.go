package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"live-announcer/internal/domain"
)

const announcementColumns = `streamer_identity, platform, message_id, stream_id, category_name, created_at, updated_at`

// AnnouncementRepository implements repository.AnnouncementRepository for SQLite
type AnnouncementRepository struct {
	db *DB
}

// NewAnnouncementRepository creates a new AnnouncementRepository
func NewAnnouncementRepository(db *DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// FindByStreamerIdentity returns the open record for a streamer, or nil if none exists
func (r *AnnouncementRepository) FindByStreamerIdentity(ctx context.Context, platform string, id domain.StreamerIdentity) (*domain.AnnouncementRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+announcementColumns+" FROM announcements WHERE platform = ? AND streamer_identity = ?",
		platform,
		string(id),
	)
	record, err := scanAnnouncement(row)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcement for streamer %s/%s: %w", platform, id, err)
	}
	return record, nil
}

// FindByStreamID returns the open record for a live session, or nil if none exists
func (r *AnnouncementRepository) FindByStreamID(ctx context.Context, streamID string) (*domain.AnnouncementRecord, error) {
	if streamID == "" {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx,
		"SELECT "+announcementColumns+" FROM announcements WHERE stream_id = ? ORDER BY updated_at DESC LIMIT 1",
		streamID,
	)
	record, err := scanAnnouncement(row)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcement for stream %s: %w", streamID, err)
	}
	return record, nil
}

// Upsert inserts the record or replaces every field of the existing one.
// created_at survives replacement so the age of a session's message is kept.
func (r *AnnouncementRepository) Upsert(ctx context.Context, record *domain.AnnouncementRecord) error {
	if record == nil || record.StreamerIdentity == "" {
		return fmt.Errorf("%w: announcement record requires a streamer identity", domain.ErrInvalidInput)
	}
	if record.Platform == "" {
		return fmt.Errorf("%w: announcement record requires a platform", domain.ErrInvalidInput)
	}

	now := timeNow()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO announcements (`+announcementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(platform, streamer_identity) DO UPDATE SET
			message_id = excluded.message_id,
			stream_id = excluded.stream_id,
			category_name = excluded.category_name,
			updated_at = excluded.updated_at
	`,
		string(record.StreamerIdentity),
		record.Platform,
		record.MessageID,
		record.StreamID,
		record.CategoryName,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert announcement: %w", err)
	}
	return nil
}

// Delete removes the record for a streamer
func (r *AnnouncementRepository) Delete(ctx context.Context, platform string, id domain.StreamerIdentity) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM announcements WHERE platform = ? AND streamer_identity = ?",
		platform,
		string(id),
	)
	if err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	return nil
}

// List returns every open record, oldest first
func (r *AnnouncementRepository) List(ctx context.Context) ([]*domain.AnnouncementRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+announcementColumns+" FROM announcements ORDER BY created_at ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}
	defer rows.Close()

	var records []*domain.AnnouncementRecord
	for rows.Next() {
		record, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating announcements: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanAnnouncement reads one row; sql.ErrNoRows yields (nil, nil)
func scanAnnouncement(s scanner) (*domain.AnnouncementRecord, error) {
	var (
		record             domain.AnnouncementRecord
		identity           string
		createdAt, updated sql.NullTime
	)

	err := s.Scan(
		&identity,
		&record.Platform,
		&record.MessageID,
		&record.StreamID,
		&record.CategoryName,
		&createdAt,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	record.StreamerIdentity = domain.StreamerIdentity(identity)
	record.CreatedAt = createdAt.Time
	record.UpdatedAt = updated.Time
	return &record, nil
}
