package source

import (
	"context"

	"live-announcer/internal/domain"
	"live-announcer/internal/glimesh"
)

// Glimesh resolves a channel update from the subscription socket.
// The platform has no replay API, so offline announcements never carry a video.
type Glimesh struct {
	channel  glimesh.Channel
	platform domain.Platform
}

// NewGlimesh creates a resolver for one channel update
func NewGlimesh(channel glimesh.Channel, platform domain.Platform) *Glimesh {
	return &Glimesh{channel: channel, platform: platform}
}

// Identity is the tracked-member key of the channel owner
func (r *Glimesh) Identity() domain.StreamerIdentity {
	return domain.StreamerIdentity(r.channel.Streamer.Username)
}

// Resolve maps status LIVE to a live announcement and every other status to offline
func (r *Glimesh) Resolve(ctx context.Context) (*domain.CanonicalAnnouncement, error) {
	if r.channel.Streamer.Username == "" {
		return nil, domain.NewValidationError("channel update has no streamer username")
	}

	profile := domain.StreamerProfile{
		Identity:    r.Identity(),
		DisplayName: r.channel.Streamer.DisplayName,
		Handle:      r.channel.Streamer.Username,
		AvatarURL:   r.channel.Streamer.AvatarURL,
	}
	if profile.DisplayName == "" {
		profile.DisplayName = profile.Handle
	}

	if !r.channel.IsLive() {
		return domain.NewOfflineAnnouncement(profile, r.platform, domain.OfflineDetails{
			Title: r.channel.Title,
		}), nil
	}

	live := domain.LiveDetails{
		StreamID: "channel-" + r.channel.ID,
		Title:    r.channel.Title,
		Language: r.channel.Language,
	}
	if s := r.channel.Stream; s != nil {
		if s.ID != "" {
			live.StreamID = s.ID
		}
		if live.Title == "" {
			live.Title = s.Title
		}
		if s.Category != nil {
			live.CategoryName = s.Category.Name
		}
		live.ThumbnailURLTemplate = s.Thumbnail
		live.ViewerCount = s.AvgViewers
		live.StartedAt = parseTime(s.StartedAt)
	}

	return domain.NewLiveAnnouncement(profile, r.platform, live), nil
}
