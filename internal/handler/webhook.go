package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"live-announcer/internal/config"
	"live-announcer/internal/domain"
	"live-announcer/internal/logger"
	"live-announcer/internal/source"
)

const maxWebhookBody = 1 << 20

// EventDispatcher is the ingestion surface the webhook endpoint drives
type EventDispatcher interface {
	IsTracked(platform, id string) bool
	HandleLiveEvent(ctx context.Context, memberID string, stream source.TwitchStream) (domain.Outcome, error)
	HandleOfflineEvent(ctx context.Context, memberID string) (domain.Outcome, error)
}

// webhookPayload is the stream-changed notification body.
// An empty data array means the member went offline.
type webhookPayload struct {
	Data []source.TwitchStream `json:"data"`
}

// WebhookHandler handles Twitch stream-changed notifications for tracked members
type WebhookHandler struct {
	dispatcher EventDispatcher
	logger     *logger.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(dispatcher EventDispatcher, log *logger.Logger) *WebhookHandler {
	if log == nil {
		log = logger.Default()
	}
	return &WebhookHandler{
		dispatcher: dispatcher,
		logger:     log.WithField("component", "webhook"),
	}
}

// Register adds the webhook, health, metrics and welcome routes to mux
func (h *WebhookHandler) Register(mux *http.ServeMux, metrics http.Handler) {
	mux.HandleFunc("POST /webhooks/subscribe/team/{member_id}", h.HandleNotification)
	mux.HandleFunc("GET /webhooks/subscribe/team/{member_id}", h.HandleChallenge)
	mux.HandleFunc("GET /healthz", HandleHealth)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	mux.HandleFunc("GET /{$}", HandleWelcome)
}

// HandleNotification reconciles the announcement of one member
// POST /webhooks/subscribe/team/{member_id}
func (h *WebhookHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("member_id")
	if !h.dispatcher.IsTracked(config.PlatformTwitch, memberID) {
		http.Error(w, "Unknown member", http.StatusNotFound)
		return
	}

	var payload webhookPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&payload); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	var (
		outcome domain.Outcome
		err     error
	)
	switch {
	case len(payload.Data) == 0:
		outcome, err = h.dispatcher.HandleOfflineEvent(r.Context(), memberID)
	case payload.Data[0].Type == "live":
		outcome, err = h.dispatcher.HandleLiveEvent(r.Context(), memberID, payload.Data[0])
	default:
		h.logger.Debug("Ignoring non-live stream notification", map[string]interface{}{
			"member_id": memberID,
			"type":      payload.Data[0].Type,
		})
		w.WriteHeader(http.StatusOK)
		return
	}

	if err != nil {
		status := domain.StatusCode(err)
		h.logger.Error("Failed to handle stream notification", map[string]interface{}{
			"request_id": logger.RequestID(r.Context()),
			"member_id":  memberID,
			"status":     status,
			"error":      err.Error(),
		})
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, outcome.Kind.String())
}

// HandleChallenge answers the subscription verification request
// GET /webhooks/subscribe/team/{member_id}
func (h *WebhookHandler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("member_id")
	if !h.dispatcher.IsTracked(config.PlatformTwitch, memberID) {
		http.Error(w, "Unknown member", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, r.URL.Query().Get("hub.challenge"))
}

// HandleHealth reports liveness
// GET /healthz
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

// HandleWelcome greets visitors of the bare URL
// GET /
func HandleWelcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "Stream announcements are running.")
}
