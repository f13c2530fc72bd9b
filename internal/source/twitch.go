// Package source turns raw platform events into canonical announcements.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"live-announcer/internal/domain"
	"live-announcer/internal/logger"
)

// TwitchStream is one entry of the stream-changed webhook payload
type TwitchStream struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	GameID       string `json:"game_id"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	StartedAt    string `json:"started_at"`
	ViewerCount  int    `json:"viewer_count"`
	Language     string `json:"language"`
}

// TwitchLive resolves a live webhook payload
type TwitchLive struct {
	stream   TwitchStream
	client   domain.PlatformMetadataClient
	platform domain.Platform
	log      *logger.Logger
}

// NewTwitchLive creates a resolver for one live webhook entry
func NewTwitchLive(stream TwitchStream, client domain.PlatformMetadataClient, platform domain.Platform, log *logger.Logger) *TwitchLive {
	if log == nil {
		log = logger.Default()
	}
	return &TwitchLive{stream: stream, client: client, platform: platform, log: log}
}

// Resolve looks up the streamer and category and builds a live announcement.
// A failed or empty category lookup leaves the category name empty.
func (r *TwitchLive) Resolve(ctx context.Context) (*domain.CanonicalAnnouncement, error) {
	if r.stream.UserID == "" {
		return nil, domain.NewValidationError("stream payload has no user_id")
	}

	profile, err := lookupProfile(ctx, r.client, r.stream.UserID, r.stream.UserName)
	if err != nil {
		return nil, err
	}

	categoryName := ""
	category, err := r.client.LookupCategoryByID(ctx, r.stream.GameID)
	switch {
	case err != nil:
		r.log.Warn("Category lookup failed, announcing without category", map[string]interface{}{
			"game_id": r.stream.GameID,
			"error":   err.Error(),
		})
	case category != nil:
		categoryName = category.Name
	}

	streamID := r.stream.ID
	if streamID == "" {
		// without a session id, fall back to one session per start time
		streamID = r.stream.UserID + "@" + r.stream.StartedAt
	}

	return domain.NewLiveAnnouncement(*profile, r.platform, domain.LiveDetails{
		StreamID:             streamID,
		Title:                r.stream.Title,
		CategoryName:         categoryName,
		ThumbnailURLTemplate: r.stream.ThumbnailURL,
		Language:             r.stream.Language,
		ViewerCount:          r.stream.ViewerCount,
		StartedAt:            parseTime(r.stream.StartedAt),
	}), nil
}

// TwitchOffline resolves an empty webhook payload for a streamer
type TwitchOffline struct {
	userID   string
	client   domain.PlatformMetadataClient
	platform domain.Platform
}

// NewTwitchOffline creates a resolver for a streamer that stopped broadcasting
func NewTwitchOffline(userID string, client domain.PlatformMetadataClient, platform domain.Platform) *TwitchOffline {
	return &TwitchOffline{userID: userID, client: client, platform: platform}
}

// Resolve fetches the latest archived broadcast and builds an offline announcement.
// It returns domain.ErrNoOfflineAnnouncement when the streamer has no replay.
func (r *TwitchOffline) Resolve(ctx context.Context) (*domain.CanonicalAnnouncement, error) {
	video, err := r.client.LookupLatestVideoByUserID(ctx, r.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest video: %w", err)
	}
	if video == nil {
		return nil, domain.ErrNoOfflineAnnouncement
	}

	profile, err := lookupProfile(ctx, r.client, r.userID, "")
	if err != nil {
		return nil, err
	}

	return domain.NewOfflineAnnouncement(*profile, r.platform, domain.OfflineDetails{
		Title: video.Title,
		ArchivedVideo: &domain.ArchivedVideo{
			ID:           video.ID,
			Title:        video.Title,
			ThumbnailURL: video.ThumbnailURL,
			Duration:     video.Duration,
		},
	}), nil
}

// lookupProfile resolves display metadata, falling back to the payload's login
// when the platform no longer knows the user
func lookupProfile(ctx context.Context, client domain.PlatformMetadataClient, userID, userName string) (*domain.StreamerProfile, error) {
	profile, err := client.LookupUserByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && profile == nil) {
		return &domain.StreamerProfile{
			Identity:    domain.StreamerIdentity(userID),
			DisplayName: userName,
			Handle:      userName,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up streamer %s: %w", userID, err)
	}
	if profile.Identity == "" {
		profile.Identity = domain.StreamerIdentity(userID)
	}
	return profile, nil
}

// parseTime accepts RFC 3339 and the zone-less form Glimesh sends; anything else is zero
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
