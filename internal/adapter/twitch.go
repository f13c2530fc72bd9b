package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"live-announcer/internal/cache"
	"live-announcer/internal/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultTwitchAPIBaseURL  = "https://api.twitch.tv/helix"
	defaultTwitchTokenURL    = "https://id.twitch.tv/oauth2/token"
	defaultCategoryCacheTTL  = time.Hour
	defaultTwitchHTTPTimeout = 10 * time.Second
)

// TwitchOptions configures a TwitchClient. Zero values use the public Twitch endpoints.
type TwitchOptions struct {
	ClientID         string
	ClientSecret     string
	APIBaseURL       string
	TokenURL         string
	CategoryCacheTTL time.Duration
}

// TwitchClient implements domain.PlatformMetadataClient against the Helix API.
// It authenticates with an app access token obtained through the client
// credentials flow; the oauth2 transport refreshes the token when it expires.
type TwitchClient struct {
	clientID   string
	baseURL    string
	httpClient *http.Client
	categories *cache.Cache[string, string]
}

// NewTwitchClient creates a new Twitch metadata client
func NewTwitchClient(ctx context.Context, opts TwitchOptions) *TwitchClient {
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = defaultTwitchAPIBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = defaultTwitchTokenURL
	}
	if opts.CategoryCacheTTL <= 0 {
		opts.CategoryCacheTTL = defaultCategoryCacheTTL
	}

	creds := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
		// Twitch expects client_id and client_secret as form parameters
		AuthStyle: oauth2.AuthStyleInParams,
	}

	httpClient := creds.Client(ctx)
	httpClient.Timeout = defaultTwitchHTTPTimeout

	return &TwitchClient{
		clientID:   opts.ClientID,
		baseURL:    opts.APIBaseURL,
		httpClient: httpClient,
		categories: cache.New[string, string](opts.CategoryCacheTTL),
	}
}

// get performs an authenticated GET against a Helix endpoint and decodes the JSON body into out
func (t *TwitchClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	reqURL := t.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Client-Id", t.clientID)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", domain.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twitch api returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// LookupCategoryByID resolves a game id to its name. Returns nil when the game is unknown.
func (t *TwitchClient) LookupCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	if id == "" {
		return nil, nil
	}
	if name, ok := t.categories.Get(id); ok {
		return &domain.Category{ID: id, Name: name}, nil
	}

	var result struct {
		Data []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := t.get(ctx, "/games", url.Values{"id": {id}}, &result); err != nil {
		return nil, err
	}

	if len(result.Data) == 0 {
		return nil, nil
	}

	t.categories.Set(id, result.Data[0].Name)
	return &domain.Category{ID: result.Data[0].ID, Name: result.Data[0].Name}, nil
}

// LookupUserByID resolves a user id to the streamer's display metadata
func (t *TwitchClient) LookupUserByID(ctx context.Context, id string) (*domain.StreamerProfile, error) {
	var result struct {
		Data []struct {
			ID              string `json:"id"`
			Login           string `json:"login"`
			DisplayName     string `json:"display_name"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := t.get(ctx, "/users", url.Values{"id": {id}}, &result); err != nil {
		return nil, err
	}

	if len(result.Data) == 0 {
		return nil, fmt.Errorf("%w: twitch user %s", domain.ErrNotFound, id)
	}

	user := result.Data[0]
	return &domain.StreamerProfile{
		Identity:    domain.StreamerIdentity(user.ID),
		DisplayName: user.DisplayName,
		Handle:      user.Login,
		AvatarURL:   user.ProfileImageURL,
	}, nil
}

// LookupLatestVideoByUserID returns the most recent archived broadcast of a user,
// or nil when the user has none
func (t *TwitchClient) LookupLatestVideoByUserID(ctx context.Context, id string) (*domain.VideoSummary, error) {
	var result struct {
		Data []struct {
			ID           string `json:"id"`
			Title        string `json:"title"`
			ThumbnailURL string `json:"thumbnail_url"`
			Duration     string `json:"duration"`
		} `json:"data"`
	}
	query := url.Values{
		"user_id": {id},
		"type":    {"archive"},
		"first":   {"1"},
	}
	if err := t.get(ctx, "/videos", query, &result); err != nil {
		return nil, err
	}

	if len(result.Data) == 0 {
		return nil, nil
	}

	video := result.Data[0]
	return &domain.VideoSummary{
		ID:           video.ID,
		Title:        video.Title,
		ThumbnailURL: video.ThumbnailURL,
		Duration:     video.Duration,
	}, nil
}

// GetStreamState reports whether a user is live right now.
// An empty data array means the channel is not currently streaming.
func (t *TwitchClient) GetStreamState(ctx context.Context, userID string) (*domain.StreamState, error) {
	var result struct {
		Data []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"data"`
	}
	if err := t.get(ctx, "/streams", url.Values{"user_id": {userID}}, &result); err != nil {
		return nil, err
	}

	if len(result.Data) == 0 || result.Data[0].Type != "live" {
		return &domain.StreamState{IsLive: false}, nil
	}
	return &domain.StreamState{IsLive: true, StreamID: result.Data[0].ID}, nil
}
