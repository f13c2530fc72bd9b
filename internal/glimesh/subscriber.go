package glimesh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"live-announcer/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	defaultSocketURL         = "wss://glimesh.tv/api/socket/websocket"
	defaultHeartbeatInterval = 20 * time.Second
	defaultReconnectDelay    = 10 * time.Second
	handshakeTimeout         = 10 * time.Second

	controlTopic     = "__absinthe__:control"
	subscriptionData = "subscription:data"
)

const channelSubscription = `subscription ($id: ID) { channel(id: $id) {
	id
	title
	status
	language
	streamer { displayname username avatarUrl }
	stream {
		id
		title
		thumbnail
		startedAt
		avgViewers
		category { name }
		subcategory { name }
	}
} }`

// Handler receives every channel update decoded from the socket
type Handler func(ctx context.Context, channel Channel) error

// Options configures a Subscriber. Zero durations use the defaults.
type Options struct {
	URL               string
	ClientID          string
	ChannelID         string
	HeartbeatInterval time.Duration
	ReconnectDelay    time.Duration
	Logger            *logger.Logger
}

// Subscriber keeps a channel subscription open and hands decoded updates to a Handler
type Subscriber struct {
	opts    Options
	handler Handler
	log     *logger.Logger
}

// NewSubscriber creates a new Subscriber
func NewSubscriber(opts Options, handler Handler) *Subscriber {
	if opts.URL == "" {
		opts.URL = defaultSocketURL
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = defaultHeartbeatInterval
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Subscriber{
		opts:    opts,
		handler: handler,
		log:     log.WithField("component", "glimesh"),
	}
}

// Run connects and resubscribes until ctx is cancelled.
// Frames are handled one at a time in socket order, so a streamer's
// OFFLINE can never overtake the LIVE sent before it.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		s.log.Warn("Glimesh socket closed, reconnecting", map[string]interface{}{
			"error": fmt.Sprint(err),
			"delay": s.opts.ReconnectDelay.String(),
		})

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.opts.ReconnectDelay):
		}
	}
}

// session runs one socket connection from dial to close
func (s *Subscriber) session(ctx context.Context) error {
	endpoint, err := url.Parse(s.opts.URL)
	if err != nil {
		return fmt.Errorf("invalid socket url: %w", err)
	}
	q := endpoint.Query()
	q.Set("vsn", "2.0.0")
	q.Set("client_id", s.opts.ClientID)
	endpoint.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	defer conn.Close()

	// gorilla connections allow one concurrent writer
	var writeMu sync.Mutex
	send := func(frame []interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(frame)
	}

	if err := send([]interface{}{"1", "1", controlTopic, "phx_join", map[string]interface{}{}}); err != nil {
		return fmt.Errorf("failed to join control topic: %w", err)
	}
	doc := map[string]interface{}{
		"query":     channelSubscription,
		"variables": map[string]interface{}{"id": s.opts.ChannelID},
	}
	if err := send([]interface{}{"1", "1", controlTopic, "doc", doc}); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	s.log.Info("Subscribed to Glimesh channel", map[string]interface{}{"channel_id": s.opts.ChannelID})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(s.opts.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				// unblocks ReadMessage
				conn.Close()
				return
			case <-ticker.C:
				if err := send([]interface{}{"1", "1", "phoenix", "heartbeat", map[string]interface{}{}}); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		channel, ok, err := decodeFrame(data)
		if err != nil {
			s.log.Warn("Skipping malformed Glimesh frame", map[string]interface{}{"error": err.Error()})
			continue
		}
		if !ok {
			continue
		}

		if err := s.handler(ctx, *channel); err != nil {
			s.log.Error("Glimesh event handling failed", map[string]interface{}{
				"username": channel.Streamer.Username,
				"error":    err.Error(),
			})
		}
	}
}

// decodeFrame extracts the channel from a subscription:data frame.
// Other frames (replies, heartbeats) report ok=false.
func decodeFrame(data []byte) (*Channel, bool, error) {
	var frame []json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, false, fmt.Errorf("decode frame: %w", err)
	}
	if len(frame) < 5 {
		return nil, false, errors.New("frame has fewer than 5 elements")
	}

	var event string
	if err := json.Unmarshal(frame[3], &event); err != nil {
		return nil, false, fmt.Errorf("decode event name: %w", err)
	}
	if event != subscriptionData {
		return nil, false, nil
	}

	var payload struct {
		Result struct {
			Data struct {
				Channel *Channel `json:"channel"`
			} `json:"data"`
		} `json:"result"`
	}
	if err := json.Unmarshal(frame[4], &payload); err != nil {
		return nil, false, fmt.Errorf("decode subscription payload: %w", err)
	}
	if payload.Result.Data.Channel == nil {
		return nil, false, errors.New("subscription payload has no channel")
	}
	return payload.Result.Data.Channel, true, nil
}
