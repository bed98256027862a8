package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawGuildItem(listItemID string, texts []string, fullText string) map[string]interface{} {
	converted := make([]interface{}, len(texts))
	for i, t := range texts {
		converted[i] = t
	}
	return map[string]interface{}{
		"listItemId": listItemID,
		"texts":      converted,
		"fullText":   fullText,
	}
}

func TestGuildsFromRaw_SingleGuild(t *testing.T) {
	records := []map[string]interface{}{
		rawGuildItem("guildsnav___123456789012345", []string{"My Server"}, "My Server"),
	}

	guilds := guildsFromRaw(records)

	require.Len(t, guilds, 1)
	assert.Equal(t, "123456789012345", guilds[0].ID)
	assert.Equal(t, "My Server", guilds[0].Name)
}

func TestGuildsFromRaw_FiltersHomeEntry(t *testing.T) {
	records := []map[string]interface{}{
		rawGuildItem("guildsnav___home", []string{"Direct Messages"}, "Direct Messages"),
		rawGuildItem("guildsnav___42", []string{"Answers"}, "Answers"),
	}

	guilds := guildsFromRaw(records)

	require.Len(t, guilds, 1)
	assert.Equal(t, "42", guilds[0].ID)
}

func TestGuildsFromRaw_KeepsOnlyNumericIDs(t *testing.T) {
	records := []map[string]interface{}{
		rawGuildItem("guildsnav___abc123", []string{"Not A Guild"}, "Not A Guild"),
		rawGuildItem("something_else", []string{"Ignored"}, "Ignored"),
		rawGuildItem("guildsnav___987", []string{"Real Guild"}, "Real Guild"),
	}

	guilds := guildsFromRaw(records)

	require.Len(t, guilds, 1)
	assert.Equal(t, "987", guilds[0].ID)
}

func TestGuildsFromRaw_DeduplicatesByID(t *testing.T) {
	records := []map[string]interface{}{
		rawGuildItem("guildsnav___100", []string{"First Seen"}, "First Seen"),
		rawGuildItem("guildsnav___100", []string{"Second Seen"}, "Second Seen"),
		rawGuildItem("guildsnav___200", []string{"Other Guild"}, "Other Guild"),
	}

	guilds := guildsFromRaw(records)

	require.Len(t, guilds, 2)
	assert.Equal(t, "First Seen", guilds[0].Name)
	assert.Equal(t, "200", guilds[1].ID)

	ids := make(map[string]bool)
	for _, g := range guilds {
		assert.False(t, ids[g.ID], "duplicate id %s", g.ID)
		ids[g.ID] = true
	}
}

func TestGuildName(t *testing.T) {
	tests := []struct {
		name     string
		texts    []string
		fullText string
		want     string
	}{
		{
			name:  "first plausible candidate wins",
			texts: []string{"12", "My Server", "other text"},
			want:  "My Server",
		},
		{
			name:  "skips notification phrases",
			texts: []string{"3 notifications pending", "Gaming Hub"},
			want:  "Gaming Hub",
		},
		{
			name:  "skips unread markers",
			texts: []string{"unread messages", "Book Club"},
			want:  "Book Club",
		},
		{
			name:  "skips bare numbers",
			texts: []string{"42", "128", "Dev Corner"},
			want:  "Dev Corner",
		},
		{
			name:  "skips too short and too long",
			texts: []string{"ab", "Ops"},
			want:  "Ops",
		},
		{
			name:     "falls back to full text with mention prefix stripped",
			texts:    []string{"ab"},
			fullText: "2 mentions, My   Server",
			want:     "My Server",
		},
		{
			name:     "empty when nothing usable",
			texts:    nil,
			fullText: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guildName(tt.texts, tt.fullText))
		})
	}
}
