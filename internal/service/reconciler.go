package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"live-announcer/internal/domain"
	"live-announcer/internal/logger"
	"live-announcer/internal/metrics"
	"live-announcer/internal/repository"
)

const reasonNoOpenAnnouncement = "no open announcement"

// ReconcilerOptions configures NewReconciler
type ReconcilerOptions struct {
	// ChannelID is where announcements are posted
	ChannelID string
	Renderer  *Renderer
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// reconciler implements domain.AnnouncementService
type reconciler struct {
	store     repository.AnnouncementRepository
	chat      domain.ChatClient
	channelID string
	render    *Renderer
	metrics   *metrics.Metrics
	locks     *keyLock
	logger    *logger.Logger
}

// NewReconciler creates the service that keeps one chat message per live streamer
func NewReconciler(store repository.AnnouncementRepository, chat domain.ChatClient, opts ReconcilerOptions) domain.AnnouncementService {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	render := opts.Renderer
	if render == nil {
		render = &Renderer{}
	}
	return &reconciler{
		store:     store,
		chat:      chat,
		channelID: opts.ChannelID,
		render:    render,
		metrics:   opts.Metrics,
		locks:     newKeyLock(),
		logger:    log.WithField("component", "reconciler"),
	}
}

// Apply decides whether to post, edit or retire the streamer's message.
// Calls for the same streamer are serialized; the store only changes after the
// chat write it records has succeeded.
func (r *reconciler) Apply(ctx context.Context, a *domain.CanonicalAnnouncement) (domain.Outcome, error) {
	if err := a.Validate(); err != nil {
		return domain.Outcome{}, err
	}

	unlock := r.locks.Lock(a.Platform.Key + ":" + string(a.Streamer.Identity))
	defer unlock()

	start := time.Now()
	var outcome domain.Outcome
	var err error
	if a.Lifecycle == domain.LifecycleLive {
		outcome, err = r.applyLive(ctx, a)
	} else {
		outcome, err = r.applyOffline(ctx, a)
	}
	r.metrics.Observe(a.Platform.Key, outcome.Kind.String(), err, time.Since(start))

	fields := map[string]interface{}{
		"streamer":  string(a.Streamer.Identity),
		"platform":  a.Platform.Key,
		"lifecycle": a.Lifecycle.String(),
	}
	if id := logger.RequestID(ctx); id != "" {
		fields["request_id"] = id
	}
	if err != nil {
		fields["error"] = err.Error()
		r.logger.Error("Announcement reconciliation failed", fields)
		return domain.Outcome{}, err
	}

	fields["outcome"] = outcome.Kind.String()
	if outcome.MessageID != "" {
		fields["message_id"] = outcome.MessageID
	}
	if outcome.Reason != "" {
		fields["reason"] = outcome.Reason
	}
	r.logger.Info("Announcement reconciled", fields)
	return outcome, nil
}

func (r *reconciler) applyLive(ctx context.Context, a *domain.CanonicalAnnouncement) (domain.Outcome, error) {
	record, err := r.findOpenRecord(ctx, a)
	if err != nil {
		return domain.Outcome{}, err
	}

	content := r.render.LiveContent(a)
	embed := r.render.LiveEmbed(a)

	if record == nil {
		msg, err := r.chat.CreateMessage(ctx, r.channelID, content, embed)
		if err != nil {
			return domain.Outcome{}, fmt.Errorf("failed to post announcement: %w", err)
		}
		if msg == nil || msg.ID == "" {
			return domain.Outcome{}, errors.New("failed to post announcement: chat client returned no message")
		}
		if err := r.store.Upsert(ctx, r.liveRecord(a, msg.ID)); err != nil {
			return domain.Outcome{}, fmt.Errorf("posted message %s but failed to record it: %w", msg.ID, err)
		}
		return domain.Posted(msg.ID), nil
	}

	if _, err := r.chat.EditMessage(ctx, r.channelID, record.MessageID, content, embed); err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to update announcement %s: %w", record.MessageID, err)
	}
	if err := r.store.Upsert(ctx, r.liveRecord(a, record.MessageID)); err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to record announcement %s: %w", record.MessageID, err)
	}
	return domain.Updated(record.MessageID), nil
}

// findOpenRecord prefers the record of the current session and falls back to any
// record still open for the streamer from an earlier session
func (r *reconciler) findOpenRecord(ctx context.Context, a *domain.CanonicalAnnouncement) (*domain.AnnouncementRecord, error) {
	record, err := r.store.FindByStreamID(ctx, a.Live.StreamID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up announcement by stream: %w", err)
	}
	if record != nil && record.Platform == a.Platform.Key && record.StreamerIdentity == a.Streamer.Identity {
		return record, nil
	}

	record, err = r.store.FindByStreamerIdentity(ctx, a.Platform.Key, a.Streamer.Identity)
	if err != nil {
		return nil, fmt.Errorf("failed to look up announcement by streamer: %w", err)
	}
	return record, nil
}

func (r *reconciler) liveRecord(a *domain.CanonicalAnnouncement, messageID string) *domain.AnnouncementRecord {
	return &domain.AnnouncementRecord{
		StreamerIdentity: a.Streamer.Identity,
		Platform:         a.Platform.Key,
		MessageID:        messageID,
		StreamID:         a.Live.StreamID,
		CategoryName:     a.Live.CategoryName,
	}
}

func (r *reconciler) applyOffline(ctx context.Context, a *domain.CanonicalAnnouncement) (domain.Outcome, error) {
	record, err := r.store.FindByStreamerIdentity(ctx, a.Platform.Key, a.Streamer.Identity)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to look up announcement by streamer: %w", err)
	}
	if record == nil {
		return domain.Skipped(reasonNoOpenAnnouncement), nil
	}

	msg, err := r.chat.FetchMessage(ctx, r.channelID, record.MessageID)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to fetch announcement %s: %w", record.MessageID, err)
	}

	var base *domain.Embed
	if msg != nil {
		base = msg.Embed
	}
	embed := r.render.OfflineEmbed(a, base, record)
	if _, err := r.chat.EditMessage(ctx, r.channelID, record.MessageID, r.render.OfflineContent(a), embed); err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to retire announcement %s: %w", record.MessageID, err)
	}

	if err := r.store.Delete(ctx, a.Platform.Key, a.Streamer.Identity); err != nil {
		return domain.Outcome{}, fmt.Errorf("retired announcement %s but failed to forget it: %w", record.MessageID, err)
	}
	return domain.Retired(record.MessageID), nil
}
