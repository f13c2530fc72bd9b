package domain

import "context"

// Resolver converts one raw platform event into a canonical announcement.
// Each source adapter binds its raw event at construction and resolves lazily,
// since resolution may need external metadata lookups.
type Resolver interface {
	Resolve(ctx context.Context) (*CanonicalAnnouncement, error)
}

// ChatClient posts and edits announcement messages.
// Errors (not found, rate limited, permission denied) are returned unchanged to the caller.
type ChatClient interface {
	// FetchMessage retrieves an existing message
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)

	// CreateMessage posts a new message with an optional embed
	CreateMessage(ctx context.Context, channelID, content string, embed *Embed) (*Message, error)

	// EditMessage replaces the content and embed of an existing message
	EditMessage(ctx context.Context, channelID, messageID, content string, embed *Embed) (*Message, error)
}

// PlatformMetadataClient looks up stream metadata on the primary platform.
// Category and video lookups that find nothing return (nil, nil); an unknown user is ErrNotFound.
type PlatformMetadataClient interface {
	// LookupCategoryByID resolves a game / category id to its name
	LookupCategoryByID(ctx context.Context, id string) (*Category, error)

	// LookupUserByID resolves a user id to its profile
	LookupUserByID(ctx context.Context, id string) (*StreamerProfile, error)

	// LookupLatestVideoByUserID returns the most recent archived video of a user
	LookupLatestVideoByUserID(ctx context.Context, id string) (*VideoSummary, error)

	// GetStreamState reports whether a user is currently broadcasting
	GetStreamState(ctx context.Context, userID string) (*StreamState, error)
}

// AnnouncementService applies canonical announcements against stored message state
type AnnouncementService interface {
	Apply(ctx context.Context, announcement *CanonicalAnnouncement) (Outcome, error)
}
