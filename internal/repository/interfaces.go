package repository

import (
	"context"

	"live-announcer/internal/domain"
)

// AnnouncementRepository persists the pointer from a streamer to their outstanding
// announcement message. Records are keyed by platform and streamer identity, since
// identities are only unique within one platform.
// Find methods return (nil, nil) when no record exists.
type AnnouncementRepository interface {
	FindByStreamerIdentity(ctx context.Context, platform string, id domain.StreamerIdentity) (*domain.AnnouncementRecord, error)
	FindByStreamID(ctx context.Context, streamID string) (*domain.AnnouncementRecord, error)
	// Upsert replaces any existing record for the streamer, without merging
	Upsert(ctx context.Context, record *domain.AnnouncementRecord) error
	// Delete is a no-op when no record exists
	Delete(ctx context.Context, platform string, id domain.StreamerIdentity) error
	List(ctx context.Context) ([]*domain.AnnouncementRecord, error)
}
