package discord

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var channelSymbolPrefix = regexp.MustCompile(`^[^a-zA-Z0-9#\-_]+`)

// channelHarvest matches anchor elements whose target URL points into the
// given guild and captures the channel id and raw link text. String
// slicing instead of an interpolated regex keeps arbitrary guild ids from
// breaking the script.
const channelHarvest = `
	(guildId) => {
		const out = [];
		const seen = new Set();
		const marker = '/channels/' + guildId + '/';
		document.querySelectorAll('a[href*="/channels/"]').forEach(link => {
			const href = link.href || '';
			const at = href.indexOf(marker);
			if (at === -1) return;
			const id = href.slice(at + marker.length).split('/')[0];
			if (!/^[0-9]+$/.test(id) || seen.has(id)) return;
			seen.add(id);
			out.push({ id: id, text: link.textContent?.trim() || '' });
		});
		return out;
	}
`

// scrollAllOverflowing drives every overflowing element to its maximum
// scroll extent, triggering lazy-loaded entries in the browse dialog.
const scrollAllOverflowing = `
	() => {
		Array.from(document.querySelectorAll('*'))
			.filter(el => el.scrollHeight > el.clientHeight + 5)
			.forEach(el => el.scrollTop = el.scrollHeight);
	}
`

// Channels lists the channels of a guild. Direct navigation links are the
// primary set; a secondary "Browse Channels" pass adds entries hidden from
// the sidebar. Any failure in the secondary pass is swallowed because the
// direct set alone is an acceptable result.
func (s Session) Channels(guildID string) (Session, []Channel, error) {
	s, err := s.Login()
	if err != nil {
		return s, nil, err
	}

	if err := s.goto_(fmt.Sprintf("%s/channels/%s", baseURL, guildID)); err != nil {
		return s, nil, err
	}
	s.settle(navSettle)

	direct := channelsFromRaw(s.evalRecords(channelHarvest, guildID), guildID)
	s.log.Debug("direct channel pass finished", zap.Int("count", len(direct)))

	browse := s.browseChannels(guildID)
	s.log.Debug("browse channel pass finished", zap.Int("count", len(browse)))

	merged := mergeChannels(direct, browse)
	s.log.Debug("total unique channels", zap.Int("count", len(merged)))
	return s, merged, nil
}

// browseChannels runs the secondary discovery pass. Fail-safe throughout:
// a missing or broken browse dialog yields an empty set.
func (s Session) browseChannels(guildID string) []Channel {
	browseEl, err := s.page.QuerySelector(`*:has-text("Browse Channels")`)
	if err != nil || browseEl == nil {
		return nil
	}
	visible, err := browseEl.IsVisible()
	if err != nil || !visible {
		return nil
	}
	if err := browseEl.Click(); err != nil {
		s.log.Debug("browse channels click failed", zap.Error(err))
		return nil
	}
	s.settle(browseOpenSettle)

	if _, err := s.page.Evaluate(scrollAllOverflowing); err != nil {
		s.log.Debug("browse scroll failed", zap.Error(err))
	}
	s.settle(browseScrollSettle)

	return channelsFromRaw(s.evalRecords(channelHarvest, guildID), guildID)
}

// channelsFromRaw derives Channel entities from harvested link records,
// cleaning the link text (symbol-trimmed, whitespace-collapsed) and
// synthesizing a name for unlabeled links.
func channelsFromRaw(records []map[string]interface{}, guildID string) []Channel {
	var channels []Channel
	for _, rec := range records {
		id := recordString(rec, "id")
		if id == "" {
			continue
		}
		name := channelSymbolPrefix.ReplaceAllString(recordString(rec, "text"), "")
		name = strings.TrimSpace(spaceRuns.ReplaceAllString(name, " "))
		if name == "" {
			name = "channel-" + id
		}
		channels = append(channels, Channel{ID: id, Name: name, Type: 0, GuildID: guildID})
	}
	return channels
}

// mergeChannels combines the direct and browse discovery sets: direct
// entries first in encounter order, then browse entries whose identifier
// was not already present. The merge is idempotent.
func mergeChannels(direct, browse []Channel) []Channel {
	seen := make(map[string]bool, len(direct))
	merged := make([]Channel, 0, len(direct)+len(browse))
	for _, ch := range direct {
		if seen[ch.ID] {
			continue
		}
		seen[ch.ID] = true
		merged = append(merged, ch)
	}
	for _, ch := range browse {
		if seen[ch.ID] {
			continue
		}
		seen[ch.ID] = true
		merged = append(merged, ch)
	}
	return merged
}
