package discord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawMessageNode(id, content, author, datetime string, attachments ...string) map[string]interface{} {
	atts := make([]interface{}, len(attachments))
	for i, a := range attachments {
		atts[i] = a
	}
	return map[string]interface{}{
		"id":          id,
		"content":     content,
		"author":      author,
		"datetime":    datetime,
		"attachments": atts,
	}
}

func TestMessageFromRaw(t *testing.T) {
	rec := rawMessageNode("chat-messages-555", "hello", "alice", "2025-06-01T12:00:00.000Z")

	msg, ok := messageFromRaw(rec, "chan1", 0)

	require.True(t, ok)
	assert.Equal(t, "555", msg.ID)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "alice", msg.AuthorName)
	assert.Equal(t, "unknown", msg.AuthorID)
	assert.Equal(t, "chan1", msg.ChannelID)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), msg.Timestamp)
	assert.Empty(t, msg.Attachments)
}

func TestMessageFromRaw_SynthesizesID(t *testing.T) {
	rec := rawMessageNode("", "no id here", "bob", "")

	msg, ok := messageFromRaw(rec, "chan1", 7)

	require.True(t, ok)
	assert.Equal(t, "message-7", msg.ID)
}

func TestMessageFromRaw_SkipsEmptyNodes(t *testing.T) {
	rec := rawMessageNode("chat-messages-1", "", "carol", "")

	_, ok := messageFromRaw(rec, "chan1", 0)

	assert.False(t, ok, "node with neither content nor attachments is skipped")
}

func TestMessageFromRaw_AttachmentOnly(t *testing.T) {
	rec := rawMessageNode("chat-messages-2", "", "", "",
		"https://cdn.discordapp.com/attachments/1/2/cat.png")

	msg, ok := messageFromRaw(rec, "chan1", 0)

	require.True(t, ok)
	assert.Equal(t, "Unknown", msg.AuthorName)
	assert.Equal(t, []string{"https://cdn.discordapp.com/attachments/1/2/cat.png"}, msg.Attachments)
}

func TestMessageFromRaw_TimestampFallback(t *testing.T) {
	before := time.Now().UTC()
	msg, ok := messageFromRaw(rawMessageNode("chat-messages-3", "x", "a", "not-a-date"), "c", 0)
	after := time.Now().UTC()

	require.True(t, ok)
	assert.False(t, msg.Timestamp.Before(before))
	assert.False(t, msg.Timestamp.After(after))
}

func TestWithinIDBounds(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		before string
		after  string
		want   bool
	}{
		{"no bounds", "500", "", "", true},
		{"below before bound", "400", "500", "", true},
		{"equal to before bound excluded", "500", "500", "", false},
		{"above before bound excluded", "600", "500", "", false},
		{"above after bound", "600", "", "500", true},
		{"equal to after bound excluded", "500", "", "500", false},
		{"below after bound excluded", "400", "", "500", false},
		{"inside both bounds", "500", "600", "400", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withinIDBounds(tt.id, tt.before, tt.after))
		})
	}
}

func TestSortMessagesNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	messages := []Message{
		{ID: "a", Timestamp: base.Add(1 * time.Hour)},
		{ID: "b", Timestamp: base.Add(3 * time.Hour)},
		{ID: "c", Timestamp: base.Add(2 * time.Hour)},
	}

	sortMessagesNewestFirst(messages)

	assert.Equal(t, []string{"b", "c", "a"}, []string{messages[0].ID, messages[1].ID, messages[2].ID})
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i-1].Timestamp.Before(messages[i].Timestamp))
	}
}

func TestSortMessagesNewestFirst_StableOnTies(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	messages := []Message{
		{ID: "first", Timestamp: ts},
		{ID: "second", Timestamp: ts},
	}

	sortMessagesNewestFirst(messages)

	assert.Equal(t, "first", messages[0].ID)
	assert.Equal(t, "second", messages[1].ID)
}

func TestFilterSince(t *testing.T) {
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	messages := []Message{
		{ID: "old", Timestamp: cutoff.Add(-time.Minute)},
		{ID: "boundary", Timestamp: cutoff},
		{ID: "new", Timestamp: cutoff.Add(time.Minute)},
	}

	recent := filterSince(messages, cutoff)

	require.Len(t, recent, 2)
	assert.Equal(t, "boundary", recent[0].ID)
	assert.Equal(t, "new", recent[1].ID)
}
