// Package glimesh subscribes to channel updates over the Glimesh Phoenix socket.
package glimesh

// StatusLive is the only channel status that announces a live session
const StatusLive = "LIVE"

// Channel is the channel object delivered by the subscription
type Channel struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Status   string   `json:"status"`
	Language string   `json:"language"`
	Streamer Streamer `json:"streamer"`
	Stream   *Stream  `json:"stream"`
}

// Streamer is the owner of a channel
type Streamer struct {
	DisplayName string `json:"displayname"`
	Username    string `json:"username"`
	AvatarURL   string `json:"avatarUrl"`
}

// Stream is the current session of a channel; nil when the channel is offline
type Stream struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Thumbnail   string    `json:"thumbnail"`
	StartedAt   string    `json:"startedAt"`
	AvgViewers  int       `json:"avgViewers"`
	Category    *Category `json:"category"`
	Subcategory *Category `json:"subcategory"`
}

// Category is a Glimesh category or subcategory
type Category struct {
	Name string `json:"name"`
}

// IsLive reports whether the channel status announces a live session
func (c Channel) IsLive() bool {
	return c.Status == StatusLive
}
