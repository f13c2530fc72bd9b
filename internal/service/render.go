package service

import (
	"strings"
	"time"

	"live-announcer/internal/domain"
)

const (
	liveFooter    = "Started streaming"
	offlineFooter = "Finished streaming"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"`", "\\`",
	"|", `\|`,
	">", `\>`,
)

// escapeMarkdown keeps names like "__bob__" from being rendered as formatting
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Renderer builds message content and embeds from canonical announcements
type Renderer struct {
	// MentionRoleID is pinged on live messages when Production is set
	MentionRoleID string
	Production    bool
	// ImageSize replaces the width/height placeholders of thumbnail templates, e.g. "1280x720"
	ImageSize string
	Location  *time.Location
	now       func() time.Time
}

func (r *Renderer) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Renderer) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.UTC
}

// LiveContent is the plain text line of a live announcement
func (r *Renderer) LiveContent(a *domain.CanonicalAnnouncement) string {
	prefix := ""
	if r.Production && r.MentionRoleID != "" {
		prefix = "<@&" + r.MentionRoleID + "> "
	}
	return prefix + escapeMarkdown(a.Streamer.Handle) + " is now live on " + a.Platform.Name + "! " +
		a.Platform.ProfileURL(a.Streamer.Handle)
}

// LiveEmbed is the rich body of a live announcement
func (r *Renderer) LiveEmbed(a *domain.CanonicalAnnouncement) *domain.Embed {
	started := a.Live.StartedAt
	if started.IsZero() {
		started = r.clock()
	}

	return &domain.Embed{
		Title:        a.Live.Title,
		URL:          a.Platform.ProfileURL(a.Streamer.Handle),
		Description:  a.Live.CategoryName,
		Color:        a.Platform.ColorOnline,
		ImageURL:     r.imageURL(a.Live.ThumbnailURLTemplate, "{width}", "{height}"),
		ThumbnailURL: a.Streamer.AvatarURL,
		AuthorName:   a.Streamer.DisplayName,
		AuthorIcon:   a.Streamer.AvatarURL,
		Footer:       liveFooter + " • Today at " + started.In(r.location()).Format("15:04"),
	}
}

// OfflineContent is the plain text line of a retired announcement
func (r *Renderer) OfflineContent(a *domain.CanonicalAnnouncement) string {
	return a.Streamer.DisplayName + " was online!"
}

// OfflineEmbed rewrites the live embed of an outstanding message for a finished session.
// base is the embed currently on the message and may be nil.
func (r *Renderer) OfflineEmbed(a *domain.CanonicalAnnouncement, base *domain.Embed, record *domain.AnnouncementRecord) *domain.Embed {
	embed := &domain.Embed{}
	if base != nil {
		copied := *base
		embed = &copied
	}

	embed.URL = a.Platform.ProfileURL(a.Streamer.Handle)
	embed.Color = a.Platform.ColorOffline
	embed.Footer = offlineFooter
	embed.Description = ""
	if record != nil {
		embed.Description = record.CategoryName
	}

	if a.Streamer.DisplayName != "" {
		embed.AuthorName = a.Streamer.DisplayName
	}
	if a.Streamer.AvatarURL != "" {
		embed.AuthorIcon = a.Streamer.AvatarURL
		embed.ThumbnailURL = a.Streamer.AvatarURL
	}
	if embed.Title == "" {
		embed.Title = a.Offline.Title
	}

	if video := a.Offline.ArchivedVideo; video != nil {
		if video.ID != "" {
			embed.URL = a.Platform.VideoURL(video.ID)
		}
		if video.Title != "" {
			embed.Title = video.Title
		}
		if video.ThumbnailURL != "" {
			embed.ImageURL = r.imageURL(video.ThumbnailURL, "%{width}", "%{height}")
		}
		if video.Duration != "" {
			embed.Footer += " • Streamed for " + video.Duration
		}
	}

	return embed
}

// imageURL substitutes the configured size into a thumbnail template
func (r *Renderer) imageURL(template, widthToken, heightToken string) string {
	width, height, ok := strings.Cut(r.ImageSize, "x")
	if !ok {
		return template
	}
	return strings.NewReplacer(widthToken, width, heightToken, height).Replace(template)
}
