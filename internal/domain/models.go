package domain

import "time"

// StreamerIdentity is the opaque per-platform key for a streamer.
// It is the primary key into the announcement store.
type StreamerIdentity string

// Lifecycle is the state a stream event reports
type Lifecycle int

const (
	// LifecycleLive means the streamer is currently broadcasting
	LifecycleLive Lifecycle = iota
	// LifecycleOffline means the broadcast has ended (or the platform reports any non-live state)
	LifecycleOffline
)

// String returns the lowercase name of the lifecycle
func (l Lifecycle) String() string {
	switch l {
	case LifecycleLive:
		return "live"
	case LifecycleOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Platform describes a streaming service and how links to it are built
type Platform struct {
	Name         string // Human name, e.g. "Twitch"
	Key          string // Lowercase key used in config and metrics, e.g. "twitch"
	BaseURL      string // Profile links are BaseURL + handle, videos are BaseURL + "videos/" + id
	ColorOnline  int
	ColorOffline int
}

// ProfileURL returns the link to a streamer's channel page
func (p Platform) ProfileURL(handle string) string {
	return p.BaseURL + handle
}

// VideoURL returns the link to an archived video
func (p Platform) VideoURL(videoID string) string {
	return p.BaseURL + "videos/" + videoID
}

// StreamerProfile holds the display metadata of a streamer
type StreamerProfile struct {
	Identity    StreamerIdentity
	DisplayName string
	Handle      string // login / username used in profile links
	AvatarURL   string
}

// LiveDetails carries the fields that only exist while a session is live
type LiveDetails struct {
	StreamID             string
	Title                string
	CategoryName         string // empty when the category lookup found nothing
	ThumbnailURLTemplate string // contains "{width}x{height}"
	Language             string
	ViewerCount          int
	StartedAt            time.Time
}

// ArchivedVideo is the replay of a finished session
type ArchivedVideo struct {
	ID           string
	Title        string
	ThumbnailURL string // contains "%{width}x%{height}"
	Duration     string // platform formatted, e.g. "2h3m10s"
}

// OfflineDetails carries the fields that only exist once a session has ended
type OfflineDetails struct {
	Title         string
	ArchivedVideo *ArchivedVideo // nil when no replay is available
}

// CanonicalAnnouncement is the platform-agnostic description of a stream's state.
// Exactly one of Live or Offline is non-nil, matching Lifecycle.
type CanonicalAnnouncement struct {
	Streamer  StreamerProfile
	Platform  Platform
	Lifecycle Lifecycle
	Live      *LiveDetails
	Offline   *OfflineDetails
}

// NewLiveAnnouncement builds a live announcement
func NewLiveAnnouncement(streamer StreamerProfile, platform Platform, live LiveDetails) *CanonicalAnnouncement {
	return &CanonicalAnnouncement{
		Streamer:  streamer,
		Platform:  platform,
		Lifecycle: LifecycleLive,
		Live:      &live,
	}
}

// NewOfflineAnnouncement builds an offline announcement
func NewOfflineAnnouncement(streamer StreamerProfile, platform Platform, offline OfflineDetails) *CanonicalAnnouncement {
	return &CanonicalAnnouncement{
		Streamer:  streamer,
		Platform:  platform,
		Lifecycle: LifecycleOffline,
		Offline:   &offline,
	}
}

// Validate checks that the live-only and offline-only fields match the lifecycle
func (a *CanonicalAnnouncement) Validate() error {
	if a == nil {
		return ErrInvalidInput
	}
	if a.Streamer.Identity == "" {
		return NewValidationError("streamer identity is required")
	}
	switch a.Lifecycle {
	case LifecycleLive:
		if a.Live == nil || a.Offline != nil {
			return NewValidationError("live announcement must carry live details only")
		}
		if a.Live.StreamID == "" {
			return NewValidationError("live announcement requires a stream id")
		}
	case LifecycleOffline:
		if a.Offline == nil || a.Live != nil {
			return NewValidationError("offline announcement must carry offline details only")
		}
	default:
		return NewValidationError("unknown lifecycle")
	}
	return nil
}

// AnnouncementRecord points from a streamer to their outstanding live message.
// It exists only while a live message is outstanding.
type AnnouncementRecord struct {
	StreamerIdentity StreamerIdentity
	Platform         string // platform key
	MessageID        string
	StreamID         string
	CategoryName     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OutcomeKind enumerates what a reconciliation did
type OutcomeKind int

const (
	OutcomePosted OutcomeKind = iota
	OutcomeUpdated
	OutcomeRetired
	OutcomeSkipped
)

// String returns the lowercase name of the outcome kind
func (k OutcomeKind) String() string {
	switch k {
	case OutcomePosted:
		return "posted"
	case OutcomeUpdated:
		return "updated"
	case OutcomeRetired:
		return "retired"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Outcome is the result of applying one announcement
type Outcome struct {
	Kind      OutcomeKind
	MessageID string // empty for skipped
	Reason    string // only set for skipped
}

// Posted returns an outcome for a newly created message
func Posted(messageID string) Outcome {
	return Outcome{Kind: OutcomePosted, MessageID: messageID}
}

// Updated returns an outcome for a message edited in place while live
func Updated(messageID string) Outcome {
	return Outcome{Kind: OutcomeUpdated, MessageID: messageID}
}

// Retired returns an outcome for a message switched to its offline form
func Retired(messageID string) Outcome {
	return Outcome{Kind: OutcomeRetired, MessageID: messageID}
}

// Skipped returns an outcome for an event that intentionally changed nothing
func Skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

// Embed is the rich body attached to an announcement message
type Embed struct {
	Title        string
	URL          string
	Description  string // omitted by chat clients when empty
	Color        int
	ImageURL     string
	ThumbnailURL string
	AuthorName   string
	AuthorIcon   string
	Footer       string
}

// Message is a chat message as seen by the reconciler
type Message struct {
	ID        string
	ChannelID string
	Content   string
	Embed     *Embed // first embed, nil when the message has none
}

// VideoSummary is the latest replay returned by a platform metadata lookup
type VideoSummary struct {
	ID           string
	Title        string
	ThumbnailURL string
	Duration     string
}

// Category is a game / category resolved by id
type Category struct {
	ID   string
	Name string
}

// StreamState is the current stream of a streamer as reported by a platform poll
type StreamState struct {
	IsLive   bool
	StreamID string
}

// Member is a tracked streamer from configuration
type Member struct {
	Name     string `yaml:"name"`
	ID       string `yaml:"id"`
	Platform string `yaml:"platform"`
}
