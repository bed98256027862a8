package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawChannelLink(id, text string) map[string]interface{} {
	return map[string]interface{}{"id": id, "text": text}
}

func TestChannelsFromRaw(t *testing.T) {
	records := []map[string]interface{}{
		rawChannelLink("111", "# general"),
		rawChannelLink("222", "🔊  voice   chat"),
		rawChannelLink("333", ""),
		rawChannelLink("", "no id"),
	}

	channels := channelsFromRaw(records, "g1")

	require.Len(t, channels, 3)
	assert.Equal(t, Channel{ID: "111", Name: "# general", Type: 0, GuildID: "g1"}, channels[0])
	assert.Equal(t, "voice chat", channels[1].Name)
	assert.Equal(t, "channel-333", channels[2].Name)
}

func TestMergeChannels_DirectTakesPrecedence(t *testing.T) {
	direct := []Channel{
		{ID: "1", Name: "general"},
		{ID: "2", Name: "random"},
	}
	browse := []Channel{
		{ID: "2", Name: "random-from-browse"},
		{ID: "3", Name: "hidden"},
	}

	merged := mergeChannels(direct, browse)

	require.Len(t, merged, 3)
	assert.Equal(t, "general", merged[0].Name)
	assert.Equal(t, "random", merged[1].Name, "direct entry wins over browse duplicate")
	assert.Equal(t, "hidden", merged[2].Name)
}

func TestMergeChannels_Idempotent(t *testing.T) {
	direct := []Channel{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}
	browse := []Channel{{ID: "3", Name: "c"}, {ID: "1", Name: "a-dup"}}

	once := mergeChannels(direct, browse)
	twice := mergeChannels(direct, browse)

	assert.Equal(t, once, twice)

	// Merging the merged result with the same browse set adds nothing new.
	again := mergeChannels(once, browse)
	assert.Equal(t, once, again)
}

func TestMergeChannels_Empty(t *testing.T) {
	assert.Empty(t, mergeChannels(nil, nil))

	browseOnly := mergeChannels(nil, []Channel{{ID: "9", Name: "x"}})
	require.Len(t, browseOnly, 1)
	assert.Equal(t, "9", browseOnly[0].ID)
}
