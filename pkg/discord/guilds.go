package discord

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const guildItemPrefix = "guildsnav___"

var (
	numericID     = regexp.MustCompile(`^[0-9]+$`)
	mentionPrefix = regexp.MustCompile(`^\d+\s+mentions?,\s*`)
	spaceRuns     = regexp.MustCompile(`\s+`)
)

// guildRailScroll force-renders the virtualized guild rail: up to 20
// incremental ticks or until the scroll position saturates.
const guildRailScroll = `
	() => {
		const guildNav = document.querySelector('[data-list-id="guildsnav"]');
		const container = guildNav?.closest('[class*="guilds"]') || guildNav?.parentElement;
		if (container) {
			container.scrollTop = 0;
			return new Promise(resolve => {
				let scrolls = 0;
				const interval = setInterval(() => {
					container.scrollBy(0, 100);
					if (++scrolls >= 20 || container.scrollTop + container.clientHeight >= container.scrollHeight - 10) {
						clearInterval(interval);
						resolve();
					}
				}, 100);
			});
		}
	}
`

// guildHarvest pulls one raw record per rendered tree item: the list-item
// id attribute, every descendant text, and the full node text. Name
// derivation happens in Go so the heuristics stay in one testable place.
const guildHarvest = `
	() => {
		const items = [];
		document.querySelectorAll('[data-list-id="guildsnav"] [role="treeitem"]').forEach(item => {
			const texts = [];
			item.querySelectorAll('*').forEach(el => {
				const t = el.textContent?.trim();
				if (t) texts.push(t);
			});
			items.push({
				listItemId: item.getAttribute('data-list-item-id') || '',
				texts: texts,
				fullText: item.textContent?.trim() || ''
			});
		});
		return items;
	}
`

// Guilds lists every server visible in the guild navigation rail.
func (s Session) Guilds() (Session, []Guild, error) {
	s, err := s.Login()
	if err != nil {
		return s, nil, err
	}

	s.log.Debug("starting guild detection")
	if err := s.goto_(homeURL); err != nil {
		return s, nil, err
	}

	// Rail rendering and scrolling are best-effort: a sparse rail still
	// yields whatever is visible.
	if s.waitVisible(guildNavItems, selectorTimeout) {
		s.settle(navSettle)
		if _, err := s.page.Evaluate(guildRailScroll); err != nil {
			s.log.Debug("guild rail scroll failed", zap.Error(err))
		}
		s.settle(railScrollSettle)
	}

	records := s.evalRecords(guildHarvest)
	guilds := guildsFromRaw(records)
	s.log.Debug("guild detection finished", zap.Int("count", len(guilds)))
	return s, guilds, nil
}

// guildsFromRaw derives Guild entities from harvested tree-item records:
// drops the "home" pseudo-guild, keeps only numeric identifiers, derives
// a display name and deduplicates by identifier in encounter order.
func guildsFromRaw(records []map[string]interface{}) []Guild {
	seen := make(map[string]bool)
	var guilds []Guild
	for _, rec := range records {
		listItemID := recordString(rec, "listItemId")
		if !strings.HasPrefix(listItemID, guildItemPrefix) || listItemID == guildItemPrefix+"home" {
			continue
		}
		id := strings.TrimPrefix(listItemID, guildItemPrefix)
		if !numericID.MatchString(id) {
			continue
		}
		name := guildName(recordStrings(rec, "texts"), recordString(rec, "fullText"))
		if name == "" || seen[id] {
			continue
		}
		seen[id] = true
		guilds = append(guilds, Guild{ID: id, Name: name})
	}
	return guilds
}

// guildName scans descendant texts for the first plausible display name:
// length 3-99, not a bare number, not a notification-count phrase. Falls
// back to the full node text with the mention-count prefix stripped.
func guildName(texts []string, fullText string) string {
	for _, t := range texts {
		if len(t) > 2 && len(t) < 100 &&
			!strings.Contains(t, "notification") && !strings.Contains(t, "unread") &&
			!numericID.MatchString(t) {
			return strings.TrimSpace(mentionPrefix.ReplaceAllString(t, ""))
		}
	}
	if fullText == "" {
		return ""
	}
	name := mentionPrefix.ReplaceAllString(fullText, "")
	name = spaceRuns.ReplaceAllString(name, " ")
	return strings.TrimSpace(mentionPrefix.ReplaceAllString(name, ""))
}
