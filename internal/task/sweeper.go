package task

import (
	"context"
	"sync"
	"time"

	"live-announcer/internal/config"
	"live-announcer/internal/domain"
	"live-announcer/internal/logger"
	"live-announcer/internal/repository"
)

// OfflineHandler retires the announcement of a member
type OfflineHandler interface {
	HandleOfflineEvent(ctx context.Context, memberID string) (domain.Outcome, error)
}

// StaleSweeper retires Twitch announcements whose offline notification never arrived.
// It polls the platform for every open record and treats "not live" as an offline event.
type StaleSweeper struct {
	store         repository.AnnouncementRepository
	streams       domain.PlatformMetadataClient
	offline       OfflineHandler
	checkInterval time.Duration
	logger        *logger.Logger
	stopCh        chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// NewStaleSweeper creates a new StaleSweeper instance
func NewStaleSweeper(
	store repository.AnnouncementRepository,
	streams domain.PlatformMetadataClient,
	offline OfflineHandler,
	checkInterval time.Duration,
	log *logger.Logger,
) *StaleSweeper {
	if log == nil {
		log = logger.Default()
	}
	return &StaleSweeper{
		store:         store,
		streams:       streams,
		offline:       offline,
		checkInterval: checkInterval,
		logger:        log.WithField("component", "sweeper"),
		stopCh:        make(chan struct{}),
	}
}

// Start begins the background sweep loop
func (s *StaleSweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop gracefully stops the sweeper
func (s *StaleSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

// run is the main loop that periodically sweeps open announcements
func (s *StaleSweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep checks every open Twitch announcement once and returns how many were retired
func (s *StaleSweeper) Sweep(ctx context.Context) int {
	records, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list open announcements", map[string]interface{}{"error": err.Error()})
		return 0
	}

	retired := 0
	for _, record := range records {
		if ctx.Err() != nil {
			return retired
		}
		// Glimesh pushes every status change, so only webhook-driven records can go stale
		if record.Platform != config.PlatformTwitch {
			continue
		}

		memberID := string(record.StreamerIdentity)
		state, err := s.streams.GetStreamState(ctx, memberID)
		if err != nil {
			s.logger.Warn("Failed to get stream state", map[string]interface{}{
				"member_id": memberID,
				"error":     err.Error(),
			})
			continue
		}
		if state != nil && state.IsLive {
			continue
		}

		outcome, err := s.offline.HandleOfflineEvent(ctx, memberID)
		if err != nil {
			s.logger.Error("Failed to retire stale announcement", map[string]interface{}{
				"member_id":  memberID,
				"message_id": record.MessageID,
				"error":      err.Error(),
			})
			continue
		}
		if outcome.Kind == domain.OutcomeRetired {
			retired++
		}
		s.logger.Info("Swept stale announcement", map[string]interface{}{
			"member_id": memberID,
			"outcome":   outcome.Kind.String(),
		})
	}
	return retired
}
