package discord

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawContextNode(id, author, content string) map[string]interface{} {
	return map[string]interface{}{
		"id":       id,
		"author":   author,
		"content":  content,
		"datetime": "",
	}
}

func renderedList(n int) []map[string]interface{} {
	records := make([]map[string]interface{}, n)
	for i := range records {
		records[i] = rawContextNode(fmt.Sprintf("msg-%d", i), "user", fmt.Sprintf("text %d", i))
	}
	return records
}

func TestParseJumpURL(t *testing.T) {
	channelID, messageID := parseJumpURL("https://discord.com/channels/111/222/333")
	assert.Equal(t, "222", channelID)
	assert.Equal(t, "333", messageID)
}

func TestContextFromRaw_ClampsWindows(t *testing.T) {
	// 8 rendered messages, target at index 4: min(5,4)=4 before and
	// min(5,3)=3 after, without raising on the clamp.
	ctx, ok := contextFromRaw(renderedList(8), "chan", "msg-4", 5, 5)

	require.True(t, ok)
	assert.Equal(t, "msg-4", ctx.Target.ID)
	assert.Len(t, ctx.Before, 4)
	assert.Len(t, ctx.After, 3)
	assert.Equal(t, "msg-0", ctx.Before[0].ID)
	assert.Equal(t, "msg-7", ctx.After[2].ID)
}

func TestContextFromRaw_TargetByIDMatch(t *testing.T) {
	ctx, ok := contextFromRaw(renderedList(10), "chan", "msg-8", 2, 2)

	require.True(t, ok)
	assert.Equal(t, "msg-8", ctx.Target.ID)
	assert.Len(t, ctx.Before, 2)
	assert.Len(t, ctx.After, 1)
}

func TestContextFromRaw_MidpointFallback(t *testing.T) {
	// Unknown target id: fall back to the visually central node.
	ctx, ok := contextFromRaw(renderedList(9), "chan", "not-present", 1, 1)

	require.True(t, ok)
	assert.Equal(t, "msg-4", ctx.Target.ID)
}

func TestContextFromRaw_ZeroCounts(t *testing.T) {
	ctx, ok := contextFromRaw(renderedList(5), "chan", "msg-2", 0, 0)

	require.True(t, ok)
	assert.Empty(t, ctx.Before)
	assert.Empty(t, ctx.After)
}

func TestContextFromRaw_SkipsAnonymousEmptyNodes(t *testing.T) {
	records := []map[string]interface{}{
		rawContextNode("msg-0", "", ""),
		rawContextNode("msg-1", "alice", "hello"),
		rawContextNode("msg-2", "", "attachment caption"),
	}

	ctx, ok := contextFromRaw(records, "chan", "msg-1", 5, 5)

	require.True(t, ok)
	assert.Equal(t, "msg-1", ctx.Target.ID)
	require.Len(t, ctx.After, 1)
	assert.Equal(t, "Unknown", ctx.After[0].AuthorName)
}

func TestContextFromRaw_EmptyList(t *testing.T) {
	_, ok := contextFromRaw(nil, "chan", "msg-1", 5, 5)
	assert.False(t, ok)
}

func TestContextFromRaw_ChannelIDThreaded(t *testing.T) {
	ctx, ok := contextFromRaw(renderedList(3), "chan-77", "msg-1", 1, 1)

	require.True(t, ok)
	assert.Equal(t, "chan-77", ctx.ChannelID)
	assert.Equal(t, "chan-77", ctx.Target.ChannelID)
}
