package mcp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/discord-mcp/pkg/discord"
)

func TestValidateSearchArgsRequiresQueryOrFilter(t *testing.T) {
	msg := validateSearchArgs(discord.SearchFilters{}, 1, 25)
	assert.Equal(t, "Must provide query text or at least one filter", msg)

	msg = validateSearchArgs(discord.SearchFilters{Query: "   "}, 1, 25)
	assert.Equal(t, "Must provide query text or at least one filter", msg, "whitespace-only query is not a query")
}

func TestValidateSearchArgsFilterAloneIsEnough(t *testing.T) {
	tests := []struct {
		name    string
		filters discord.SearchFilters
	}{
		{name: "channel filter", filters: discord.SearchFilters{InChannels: []string{"general"}}},
		{name: "author filter", filters: discord.SearchFilters{FromUsers: []string{"alice"}}},
		{name: "mentions filter", filters: discord.SearchFilters{MentionsUsers: []string{"bob"}}},
		{name: "has filter", filters: discord.SearchFilters{Has: []string{"image"}}},
		{name: "before date", filters: discord.SearchFilters{Before: "2024-01-01"}},
		{name: "author type", filters: discord.SearchFilters{AuthorType: "bot"}},
		{name: "pinned true", filters: discord.SearchFilters{Pinned: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, validateSearchArgs(tt.filters, 1, 25))
		})
	}
}

func TestValidateSearchArgsBounds(t *testing.T) {
	f := discord.SearchFilters{Query: "deploy"}

	assert.Empty(t, validateSearchArgs(f, 1, 1))
	assert.Empty(t, validateSearchArgs(f, 3, 100))
	assert.Equal(t, "max_results must be between 1 and 100", validateSearchArgs(f, 1, 0))
	assert.Equal(t, "max_results must be between 1 and 100", validateSearchArgs(f, 1, 101))
	assert.Equal(t, "page must be at least 1", validateSearchArgs(f, 0, 25))
}

func TestValidateSearchArgsEnums(t *testing.T) {
	msg := validateSearchArgs(discord.SearchFilters{Query: "x", Has: []string{"image", "gif"}}, 1, 25)
	assert.Equal(t, "has_filters must be from: image, video, link, file, embed", msg)

	msg = validateSearchArgs(discord.SearchFilters{Query: "x", AuthorType: "admin"}, 1, 25)
	assert.Equal(t, "author_type must be one of: user, bot, webhook", msg)

	assert.Empty(t, validateSearchArgs(discord.SearchFilters{
		Query:      "x",
		Has:        []string{"image", "video", "link", "file", "embed"},
		AuthorType: "webhook",
	}, 1, 25))
}

func TestMessageJSONTimestampAndAttachments(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	m := discord.Message{
		ID:          "chat-messages-42",
		Content:     "hello",
		AuthorName:  "alice",
		Timestamp:   ts,
		Attachments: []string{"https://cdn.discordapp.com/attachments/a/b/c.png"},
	}

	got := messageJSON(m, true)
	assert.Equal(t, "2024-03-15T10:30:00Z", got["timestamp"])
	assert.Equal(t, []string{"https://cdn.discordapp.com/attachments/a/b/c.png"}, got["attachments"])

	got = messageJSON(m, false)
	_, present := got["attachments"]
	assert.False(t, present, "context windows omit attachments")
}

func TestMessageJSONNilAttachmentsSerializeAsEmptyList(t *testing.T) {
	got := messageJSON(discord.Message{ID: "m1", Timestamp: time.Now()}, true)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"attachments":[]`)
}

func TestMessagesJSONEmptySliceIsNotNull(t *testing.T) {
	data, err := json.Marshal(messagesJSON(nil, true))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
