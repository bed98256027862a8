package discord

import (
	"time"
)

// Guild is an immutable snapshot of a Discord server as rendered in the
// guild navigation rail. It is rebuilt on every query; no relationships
// are persisted.
type Guild struct {
	// ID is the platform-assigned numeric identifier
	ID string `json:"id"`

	// Name is the display name derived from the rendered tree item
	Name string `json:"name"`

	// Icon is an optional icon reference (empty when not extracted)
	Icon string `json:"icon,omitempty"`
}

// Channel is a snapshot of a channel discovered inside a guild.
type Channel struct {
	// ID is the platform-assigned numeric identifier
	ID string `json:"id"`

	// Name is the cleaned link text (symbol-trimmed, whitespace-collapsed)
	Name string `json:"name"`

	// Type is the channel type marker (0 for text channels)
	Type int `json:"type"`

	// GuildID is the owning guild, empty where the guild is implicit
	GuildID string `json:"guild_id,omitempty"`
}

// Message is a single message extracted from the rendered chat view or
// from search results. IDs may be synthesized when the DOM node carries
// none (sequence-based for chat nodes, positional for search results).
type Message struct {
	// ID is the message identifier, unique within one extraction call
	ID string `json:"id"`

	// Content is the text content (may be empty for attachment-only messages)
	Content string `json:"content"`

	// AuthorName is the author's display name ("Unknown" when not found)
	AuthorName string `json:"author_name"`

	// AuthorID is best-effort; the web client rarely exposes it, so this
	// is usually the sentinel "unknown"
	AuthorID string `json:"author_id"`

	// ChannelID is the owning channel
	ChannelID string `json:"channel_id"`

	// Timestamp is UTC; falls back to extraction time when unparseable
	Timestamp time.Time `json:"timestamp"`

	// Attachments holds CDN attachment URLs in document order
	Attachments []string `json:"attachments"`
}

// MessageContext is the window of messages surrounding a search hit,
// built once per request and never cached.
type MessageContext struct {
	// Target is the message the search result jumped to
	Target Message

	// Before holds the messages immediately preceding the target, oldest first
	Before []Message

	// After holds the messages immediately following the target
	After []Message

	// ChannelName is the owning channel's display name (best-effort)
	ChannelName string

	// ChannelID is the owning channel's identifier, parsed from the URL
	ChannelID string
}

// SearchFilters is the set of criteria composed into one query string
// using Discord's own search-syntax tokens. Invalid combinations are
// whatever Discord's search accepts; no validation happens here.
type SearchFilters struct {
	// Query is the free text to search for
	Query string

	// InChannels filters by channel names (rendered as "in: name")
	InChannels []string

	// FromUsers filters by author usernames (rendered as "from: name")
	FromUsers []string

	// MentionsUsers filters by mentioned usernames
	MentionsUsers []string

	// Has filters by content type: image, video, link, file, embed
	Has []string

	// Before, After, During are YYYY-MM-DD date bounds
	Before string
	After  string
	During string

	// AuthorType filters by author type: user, bot, webhook
	AuthorType string

	// Pinned restricts the search to pinned messages when true
	Pinned bool
}

// Options configures a scraping session.
type Options struct {
	// Email is the Discord account email
	Email string

	// Password is the Discord account password
	Password string

	// Headless controls whether Chromium runs without a visible window
	Headless bool

	// ExtraWait is added to every settle delay to accommodate slower
	// environments
	ExtraWait time.Duration

	// StateFile is the path of the persisted browser storage-state blob.
	// Defaults to ~/.discord-mcp-state.json when empty.
	StateFile string
}
