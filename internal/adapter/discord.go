package adapter

import (
	"context"
	"fmt"

	"live-announcer/internal/domain"

	"github.com/bwmarrin/discordgo"
)

// discordSession is the subset of *discordgo.Session the chat client calls
type discordSession interface {
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordClient implements domain.ChatClient over the Discord REST API.
// It never opens a gateway connection; announcements only need message CRUD.
type DiscordClient struct {
	session discordSession
}

// NewDiscordClient creates a chat client authenticated as a bot
func NewDiscordClient(token string) (*DiscordClient, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordClient{session: session}, nil
}

// FetchMessage retrieves an existing message
func (d *DiscordClient) FetchMessage(ctx context.Context, channelID, messageID string) (*domain.Message, error) {
	msg, err := d.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", messageID, err)
	}
	return fromDiscordMessage(msg), nil
}

// CreateMessage posts a new message to channelID
func (d *DiscordClient) CreateMessage(ctx context.Context, channelID, content string, embed *domain.Embed) (*domain.Message, error) {
	send := &discordgo.MessageSend{Content: content}
	if embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{toDiscordEmbed(embed)}
	}

	msg, err := d.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create message in %s: %w", channelID, err)
	}
	return fromDiscordMessage(msg), nil
}

// EditMessage replaces the content and embed of an existing message
func (d *DiscordClient) EditMessage(ctx context.Context, channelID, messageID, content string, embed *domain.Embed) (*domain.Message, error) {
	edit := discordgo.NewMessageEdit(channelID, messageID).SetContent(content)
	if embed != nil {
		edit.SetEmbeds([]*discordgo.MessageEmbed{toDiscordEmbed(embed)})
	}

	msg, err := d.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to edit message %s: %w", messageID, err)
	}
	return fromDiscordMessage(msg), nil
}

// toDiscordEmbed maps an embed to the Discord wire type, leaving empty blocks out
func toDiscordEmbed(e *domain.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeRich,
		Title:       e.Title,
		URL:         e.URL,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.ImageURL != "" {
		out.Image = &discordgo.MessageEmbedImage{URL: e.ImageURL}
	}
	if e.ThumbnailURL != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.ThumbnailURL}
	}
	if e.AuthorName != "" || e.AuthorIcon != "" {
		out.Author = &discordgo.MessageEmbedAuthor{Name: e.AuthorName, IconURL: e.AuthorIcon}
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	return out
}

func fromDiscordEmbed(e *discordgo.MessageEmbed) *domain.Embed {
	out := &domain.Embed{
		Title:       e.Title,
		URL:         e.URL,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.Image != nil {
		out.ImageURL = e.Image.URL
	}
	if e.Thumbnail != nil {
		out.ThumbnailURL = e.Thumbnail.URL
	}
	if e.Author != nil {
		out.AuthorName = e.Author.Name
		out.AuthorIcon = e.Author.IconURL
	}
	if e.Footer != nil {
		out.Footer = e.Footer.Text
	}
	return out
}

func fromDiscordMessage(m *discordgo.Message) *domain.Message {
	if m == nil {
		return nil
	}
	out := &domain.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
	}
	if len(m.Embeds) > 0 && m.Embeds[0] != nil {
		out.Embed = fromDiscordEmbed(m.Embeds[0])
	}
	return out
}
