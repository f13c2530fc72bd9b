package service

import (
	"context"
	"errors"
	"fmt"

	"live-announcer/internal/config"
	"live-announcer/internal/domain"
	"live-announcer/internal/glimesh"
	"live-announcer/internal/logger"
	"live-announcer/internal/source"

	"github.com/google/uuid"
)

const reasonNoArchivedVideo = "no archived video"

// Dispatcher routes raw platform events to the matching resolver and reconciles the result.
// Events for streamers outside the tracked set are rejected before any lookup happens.
type Dispatcher struct {
	reconciler domain.AnnouncementService
	twitch     domain.PlatformMetadataClient
	platforms  map[string]domain.Platform
	members    map[memberKey]domain.Member
	logger     *logger.Logger
}

type memberKey struct {
	platform string
	id       string
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	reconciler domain.AnnouncementService,
	twitch domain.PlatformMetadataClient,
	platforms map[string]domain.Platform,
	members []domain.Member,
	log *logger.Logger,
) *Dispatcher {
	if log == nil {
		log = logger.Default()
	}
	tracked := make(map[memberKey]domain.Member, len(members))
	for _, m := range members {
		tracked[memberKey{platform: m.Platform, id: m.ID}] = m
	}
	return &Dispatcher{
		reconciler: reconciler,
		twitch:     twitch,
		platforms:  platforms,
		members:    tracked,
		logger:     log.WithField("component", "ingestion"),
	}
}

// IsTracked reports whether id is a tracked member on platform
func (d *Dispatcher) IsTracked(platform, id string) bool {
	_, ok := d.members[memberKey{platform: platform, id: id}]
	return ok
}

// HandleLiveEvent announces that a tracked Twitch member is live
func (d *Dispatcher) HandleLiveEvent(ctx context.Context, memberID string, stream source.TwitchStream) (domain.Outcome, error) {
	if !d.IsTracked(config.PlatformTwitch, memberID) {
		return domain.Outcome{}, fmt.Errorf("%w: twitch member %s", domain.ErrUnknownStreamer, memberID)
	}
	if stream.UserID == "" {
		stream.UserID = memberID
	}
	if stream.UserID != memberID {
		return domain.Outcome{}, domain.NewValidationError(
			fmt.Sprintf("stream belongs to user %s, not member %s", stream.UserID, memberID))
	}

	resolver := source.NewTwitchLive(stream, d.twitch, d.platforms[config.PlatformTwitch], d.logger)
	return d.dispatch(ctx, config.PlatformTwitch, memberID, domain.LifecycleLive, resolver)
}

// HandleOfflineEvent retires the announcement of a tracked Twitch member
func (d *Dispatcher) HandleOfflineEvent(ctx context.Context, memberID string) (domain.Outcome, error) {
	if !d.IsTracked(config.PlatformTwitch, memberID) {
		return domain.Outcome{}, fmt.Errorf("%w: twitch member %s", domain.ErrUnknownStreamer, memberID)
	}

	resolver := source.NewTwitchOffline(memberID, d.twitch, d.platforms[config.PlatformTwitch])
	return d.dispatch(ctx, config.PlatformTwitch, memberID, domain.LifecycleOffline, resolver)
}

// HandleGlimeshEvent reconciles a channel update from the Glimesh socket
func (d *Dispatcher) HandleGlimeshEvent(ctx context.Context, channel glimesh.Channel) (domain.Outcome, error) {
	username := channel.Streamer.Username
	if !d.IsTracked(config.PlatformGlimesh, username) {
		return domain.Outcome{}, fmt.Errorf("%w: glimesh member %s", domain.ErrUnknownStreamer, username)
	}

	lifecycle := domain.LifecycleOffline
	if channel.IsLive() {
		lifecycle = domain.LifecycleLive
	}

	resolver := source.NewGlimesh(channel, d.platforms[config.PlatformGlimesh])
	return d.dispatch(ctx, config.PlatformGlimesh, username, lifecycle, resolver)
}

func (d *Dispatcher) dispatch(ctx context.Context, platform, memberID string, lifecycle domain.Lifecycle, resolver domain.Resolver) (domain.Outcome, error) {
	requestID := logger.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
		ctx = logger.WithRequestID(ctx, requestID)
	}
	log := d.logger.WithFields(map[string]interface{}{
		"request_id": requestID,
		"platform":   platform,
		"member_id":  memberID,
		"event":      lifecycle.String(),
	})
	log.Debug("Event received", nil)

	announcement, err := resolver.Resolve(ctx)
	if errors.Is(err, domain.ErrNoOfflineAnnouncement) {
		log.Info("Nothing to announce", map[string]interface{}{"reason": reasonNoArchivedVideo})
		return domain.Skipped(reasonNoArchivedVideo), nil
	}
	if err != nil {
		log.Error("Failed to resolve event", map[string]interface{}{"error": err.Error()})
		return domain.Outcome{}, fmt.Errorf("resolve %s event: %w", lifecycle, err)
	}

	outcome, err := d.reconciler.Apply(ctx, announcement)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("apply %s event: %w", lifecycle, err)
	}

	log.Debug("Event handled", map[string]interface{}{"outcome": outcome.Kind.String()})
	return outcome, nil
}
