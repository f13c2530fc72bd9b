package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"live-announcer/internal/domain"

	"gopkg.in/yaml.v3"
)

const (
	// PlatformTwitch is the primary platform key (webhook delivered)
	PlatformTwitch = "twitch"
	// PlatformGlimesh is the secondary platform key (socket delivered)
	PlatformGlimesh = "glimesh"
)

// Config holds all application configuration loaded from environment variables
type Config struct {
	// Runtime
	Environment string
	LogLevel    string
	Location    *time.Location

	// Database configuration
	DatabasePath string

	// Server configuration
	ServerPort string

	// Discord configuration
	DiscordBotToken       string
	AnnouncementChannelID string
	AnnouncementRoleID    string
	AnnouncementImageSize string

	// Platform API keys
	TwitchClientID  string
	TwitchSecret    string
	GlimeshClientID string
	GlimeshChannel  string

	// Platform presentation
	TwitchColorOnline  int
	GlimeshColorOnline int
	ColorOffline       int

	// Tracked members
	MembersPath string
	Members     []domain.Member

	// Background work
	SweepInterval    time.Duration
	CategoryCacheTTL time.Duration
}

// Load reads configuration from environment variables and the members file
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvOrDefault("APP_ENV", "development"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),

		DatabasePath: getEnvOrDefault("DATABASE_PATH", "./data/announcements.db"),
		ServerPort:   getEnvOrDefault("SERVER_PORT", "8080"),

		DiscordBotToken:       os.Getenv("DISCORD_BOT_TOKEN"),
		AnnouncementChannelID: os.Getenv("DISCORD_ANNOUNCEMENTS_CHANNEL_ID"),
		AnnouncementRoleID:    os.Getenv("DISCORD_ANNOUNCEMENTS_ROLE_ID"),
		AnnouncementImageSize: getEnvOrDefault("ANNOUNCEMENT_IMAGE_SIZE", "1280x720"),

		TwitchClientID:  os.Getenv("TWITCH_CLIENT_ID"),
		TwitchSecret:    os.Getenv("TWITCH_SECRET"),
		GlimeshClientID: os.Getenv("GLIMESH_CLIENT_ID"),
		GlimeshChannel:  os.Getenv("GLIMESH_CHANNEL_ID"),

		MembersPath: getEnvOrDefault("MEMBERS_PATH", "./members.yaml"),
	}

	var err error
	if cfg.Location, err = time.LoadLocation(getEnvOrDefault("TIMEZONE", "UTC")); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if cfg.TwitchColorOnline, err = parseColor(getEnvOrDefault("TWITCH_COLOR_ONLINE", "#9146FF")); err != nil {
		return nil, fmt.Errorf("invalid TWITCH_COLOR_ONLINE: %w", err)
	}
	if cfg.GlimeshColorOnline, err = parseColor(getEnvOrDefault("GLIMESH_COLOR_ONLINE", "#0E1826")); err != nil {
		return nil, fmt.Errorf("invalid GLIMESH_COLOR_ONLINE: %w", err)
	}
	if cfg.ColorOffline, err = parseColor(getEnvOrDefault("COLOR_OFFLINE", "#747F8D")); err != nil {
		return nil, fmt.Errorf("invalid COLOR_OFFLINE: %w", err)
	}

	if cfg.SweepInterval, err = time.ParseDuration(getEnvOrDefault("SWEEP_INTERVAL", "10m")); err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL format: %w", err)
	}
	if cfg.CategoryCacheTTL, err = time.ParseDuration(getEnvOrDefault("CATEGORY_CACHE_TTL", "1h")); err != nil {
		return nil, fmt.Errorf("invalid CATEGORY_CACHE_TTL format: %w", err)
	}

	if cfg.Members, err = LoadMembers(cfg.MembersPath); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// membersFile is the on-disk shape of the tracked member list
type membersFile struct {
	Broadcaster *domain.Member  `yaml:"broadcaster"`
	Members     []domain.Member `yaml:"members"`
}

// LoadMembers reads the tracked streamers from a YAML file.
// The broadcaster entry, if present, is tracked like any team member.
func LoadMembers(path string) ([]domain.Member, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read members file: %w", err)
	}

	var file membersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse members file: %w", err)
	}

	members := make([]domain.Member, 0, len(file.Members)+1)
	members = append(members, file.Members...)
	if file.Broadcaster != nil {
		members = append(members, *file.Broadcaster)
	}

	for i := range members {
		m := &members[i]
		m.Platform = strings.ToLower(strings.TrimSpace(m.Platform))
		if m.Platform == "" {
			m.Platform = PlatformTwitch
		}
		if m.ID == "" {
			return nil, fmt.Errorf("member %q has no id", m.Name)
		}
		if m.Platform != PlatformTwitch && m.Platform != PlatformGlimesh {
			return nil, fmt.Errorf("member %q has unsupported platform %q", m.Name, m.Platform)
		}
	}

	return members, nil
}

// Validate checks that all required configuration values are present and valid
func (c *Config) Validate() error {
	if c.DiscordBotToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN environment variable is required")
	}
	if c.AnnouncementChannelID == "" {
		return fmt.Errorf("DISCORD_ANNOUNCEMENTS_CHANNEL_ID environment variable is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH cannot be empty")
	}
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}
	if c.IsProduction() && c.AnnouncementRoleID == "" {
		return fmt.Errorf("DISCORD_ANNOUNCEMENTS_ROLE_ID is required in production")
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("SWEEP_INTERVAL must not be negative, got %s", c.SweepInterval)
	}
	if len(c.Members) == 0 {
		return fmt.Errorf("no tracked members configured in %s", c.MembersPath)
	}
	return nil
}

// IsProduction reports whether announcements should mention the live role
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// GlimeshEnabled reports whether the secondary platform socket should run
func (c *Config) GlimeshEnabled() bool {
	return c.GlimeshClientID != "" && c.GlimeshChannel != ""
}

// Platforms returns the presentation settings for each supported platform
func (c *Config) Platforms() map[string]domain.Platform {
	return map[string]domain.Platform{
		PlatformTwitch: {
			Name:         "Twitch",
			Key:          PlatformTwitch,
			BaseURL:      "https://twitch.tv/",
			ColorOnline:  c.TwitchColorOnline,
			ColorOffline: c.ColorOffline,
		},
		PlatformGlimesh: {
			Name:         "Glimesh",
			Key:          PlatformGlimesh,
			BaseURL:      "https://glimesh.tv/",
			ColorOnline:  c.GlimeshColorOnline,
			ColorOffline: c.ColorOffline,
		},
	}
}

// LogConfiguration logs all loaded configuration values, excluding secrets
func (c *Config) LogConfiguration() {
	log.Println("=== Application Configuration ===")
	log.Printf("Environment: %s", c.Environment)
	log.Printf("Database Path: %s", c.DatabasePath)
	log.Printf("Server Port: %s", c.ServerPort)
	log.Printf("Discord Bot Token: %s", maskSecret(c.DiscordBotToken))
	log.Printf("Announcements Channel: %s", c.AnnouncementChannelID)
	log.Printf("Twitch Client ID: %s", maskSecret(c.TwitchClientID))
	log.Printf("Glimesh Client ID: %s", maskSecret(c.GlimeshClientID))
	log.Printf("Timezone: %s", c.Location)
	log.Printf("Tracked Members: %d", len(c.Members))
	log.Printf("Sweep Interval: %s", c.SweepInterval)

	if c.TwitchClientID == "" || c.TwitchSecret == "" {
		log.Println("WARNING: TWITCH_CLIENT_ID or TWITCH_SECRET not set - Twitch metadata lookups will fail")
	}
	if !c.GlimeshEnabled() {
		log.Println("WARNING: GLIMESH_CLIENT_ID or GLIMESH_CHANNEL_ID not set - Glimesh announcements disabled")
	}

	log.Println("=================================")
}

// parseColor accepts "#RRGGBB", "0xRRGGBB" or a decimal integer
func parseColor(s string) (int, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"):
		v, err := strconv.ParseInt(s[1:], 16, 32)
		return int(v), err
	case strings.HasPrefix(strings.ToLower(s), "0x"):
		v, err := strconv.ParseInt(s[2:], 16, 32)
		return int(v), err
	default:
		return strconv.Atoi(s)
	}
}

// getEnvOrDefault returns the environment variable value or a default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// maskSecret masks a secret string for logging, showing only first 4 characters
func maskSecret(secret string) string {
	if secret == "" {
		return "[not set]"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
