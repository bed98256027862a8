package discord

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

const (
	searchBox          = `[role="combobox"]`
	searchResultMarker = `[class*="searchResult"]`
	maxResultScrolls   = 5
	typeDelayMs        = 50.0
	dedupeContentRunes = 50
)

// Fallback-cleanup patterns for search result nodes without a content
// element: the short and the long date/time renderings Discord mixes into
// the node text.
var (
	shortDateTime = regexp.MustCompile(`(?i)\d{1,2}/\d{1,2}/\d{2,4},?\s*\d{1,2}:\d{2}\s*(AM|PM)?`)
	longDateTime  = regexp.MustCompile(`(?i)(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday),?\s*(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s*\d{4}\s+at\s+\d{1,2}:\d{2}\s*(AM|PM)?`)
)

// composeQuery renders the filters into one query string using Discord's
// own search-syntax tokens, in fixed field order: query, in, from,
// mentions, has, before, after, during, authorType, pinned.
func composeQuery(f SearchFilters) string {
	var parts []string
	if f.Query != "" {
		parts = append(parts, f.Query)
	}
	for _, channel := range f.InChannels {
		parts = append(parts, "in: "+channel)
	}
	for _, user := range f.FromUsers {
		parts = append(parts, "from: "+user)
	}
	for _, user := range f.MentionsUsers {
		parts = append(parts, "mentions: "+user)
	}
	for _, has := range f.Has {
		parts = append(parts, "has: "+has)
	}
	if f.Before != "" {
		parts = append(parts, "before: "+f.Before)
	}
	if f.After != "" {
		parts = append(parts, "after: "+f.After)
	}
	if f.During != "" {
		parts = append(parts, "during: "+f.During)
	}
	if f.AuthorType != "" {
		parts = append(parts, "authorType: "+f.AuthorType)
	}
	if f.Pinned {
		parts = append(parts, "pinned: true")
	}
	return strings.Join(parts, " ")
}

// searchResultHarvest pulls one raw record per rendered search result.
// When the content selector cascade misses, the node's innerHTML is
// returned instead so the fallback cleanup can run in Go.
const searchResultHarvest = `
	() => {
		const out = [];
		document.querySelectorAll('[class*="searchResult"]').forEach((el, index) => {
			const usernameEl = el.querySelector('[class*="username"], [class*="author"]');
			const timeEl = el.querySelector('time, [class*="timestamp"]');
			const contentEl = el.querySelector('[class*="messageContent"], [class*="markup"]');
			const channelEl = el.querySelector('[class*="channel"]');
			out.push({
				author: usernameEl?.textContent?.trim() || '',
				datetime: timeEl?.getAttribute('datetime') || '',
				content: contentEl?.textContent?.trim() || '',
				fallbackHtml: contentEl ? '' : (el.innerHTML || ''),
				channel: channelEl?.textContent?.trim() || '',
				index: index
			});
		});
		return out;
	}
`

// resultContainerScrollBottom scrolls the search results container to its
// bottom to trigger infinite-scroll loading.
const resultContainerScrollBottom = `
	() => {
		const results = document.querySelectorAll('[class*="searchResult"]');
		if (results.length > 0) {
			const container = results[0].closest('[class*="scroller"], [class*="scroll"]');
			if (container) {
				container.scrollTop = container.scrollHeight;
			}
		}
	}
`

// SearchMessages runs Discord's guild search with the composed filters and
// scrapes the rendered result list, accumulating across infinite-scroll
// loads until the limit is met or the scroll budget runs out. A timeout
// waiting for results yields an empty list, not an error.
func (s Session) SearchMessages(guildID string, filters SearchFilters, page, limit int) (Session, []Message, error) {
	s, err := s.runSearch(guildID, filters, page)
	if err != nil {
		return s, nil, err
	}
	if !s.waitVisible(searchResultMarker, shortSelectorTimeout) {
		s.log.Debug("no search results or timeout waiting for results")
		return s, []Message{}, nil
	}
	s.settle(searchResultSettle)

	if page > 1 {
		if !navigateToResultsPage(playwrightPager{s: s}, page) {
			s.log.Debug("could not navigate to results page", zap.Int("page", page))
		}
		s.settle(pageButtonSettle)
	}

	seen := make(map[string]bool)
	var messages []Message
	fallbackChannel := ""
	if len(filters.InChannels) > 0 {
		fallbackChannel = filters.InChannels[0]
	}

	for scrolls := 0; len(messages) < limit && scrolls < maxResultScrolls; scrolls++ {
		records := s.evalRecords(searchResultHarvest)
		for _, rec := range records {
			if len(messages) >= limit {
				break
			}
			msg, ok := searchResultFromRaw(rec, fallbackChannel, len(messages))
			if !ok {
				continue
			}
			key := dedupeKey(msg.AuthorName, msg.Content)
			if seen[key] {
				continue
			}
			seen[key] = true
			messages = append(messages, msg)
		}
		if len(messages) >= limit {
			break
		}
		if _, err := s.page.Evaluate(resultContainerScrollBottom); err != nil {
			s.log.Debug("result scroll failed", zap.Error(err))
		}
		s.settle(resultScrollSettle)
	}

	s.log.Debug("search finished", zap.Int("count", len(messages)))
	if len(messages) > limit {
		messages = messages[:limit]
	}
	return s, messages, nil
}

// runSearch authenticates, navigates to the guild and submits the composed
// query through the search box. A missing search box is a hard error.
func (s Session) runSearch(guildID string, filters SearchFilters, page int) (Session, error) {
	s, err := s.Login()
	if err != nil {
		return s, err
	}

	query := composeQuery(filters)
	s.log.Debug("searching", zap.String("query", query), zap.String("guild", guildID))

	if err := s.goto_(fmt.Sprintf("%s/channels/%s", baseURL, guildID)); err != nil {
		return s, err
	}
	if err := s.mustWaitVisible(searchBox, selectorTimeout); err != nil {
		return s, fmt.Errorf("could not find search box: %w", err)
	}
	s.settle(searchBoxSettle)

	if err := s.page.Click(searchBox); err != nil {
		return s, fmt.Errorf("could not focus search box: %w", err)
	}
	s.settle(searchBoxSettle)

	if err := s.page.Keyboard().Type(query, playwright.KeyboardTypeOptions{
		Delay: playwright.Float(typeDelayMs),
	}); err != nil {
		return s, fmt.Errorf("could not type search query: %w", err)
	}
	s.settle(searchBoxSettle)

	if err := s.page.Keyboard().Press("Enter"); err != nil {
		return s, fmt.Errorf("could not submit search: %w", err)
	}
	return s, nil
}

// searchResultFromRaw derives a Message from one harvested search result.
// Results carry no stable id; a positional one is synthesized. Content
// falls back to a heuristic cleanup of the node's full text when the
// content selector cascade missed.
func searchResultFromRaw(rec map[string]interface{}, fallbackChannel string, position int) (Message, bool) {
	author := recordString(rec, "author")
	if author == "" {
		author = "Unknown"
	}
	content := recordString(rec, "content")
	if content == "" {
		content = cleanResultFallback(recordString(rec, "fallbackHtml"), author)
	}
	if content == "" {
		return Message{}, false
	}
	if len(content) > 500 {
		content = content[:500]
	}

	channel := recordString(rec, "channel")
	if channel == "" {
		channel = fallbackChannel
	}
	return Message{
		ID:          fmt.Sprintf("search-%d", position),
		Content:     content,
		AuthorName:  author,
		AuthorID:    "unknown",
		ChannelID:   channel,
		Timestamp:   parseTimestamp(recordString(rec, "datetime")),
		Attachments: []string{},
	}, true
}

// cleanResultFallback flattens the node HTML and strips the pieces that
// are not message text: the author's own name (it may appear repeatedly),
// "Jump" labels and both date/time renderings.
func cleanResultFallback(fallbackHTML, author string) string {
	if fallbackHTML == "" {
		return ""
	}
	text := flattenHTML(fallbackHTML)
	if author != "" && author != "Unknown" {
		text = strings.ReplaceAll(text, author, "")
	}
	text = strings.ReplaceAll(text, "Jump", "")
	text = shortDateTime.ReplaceAllString(text, "")
	text = longDateTime.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "—", " ")
	return strings.TrimSpace(spaceRuns.ReplaceAllString(text, " "))
}

// dedupeKey builds the composite deduplication key: author plus the first
// 50 characters of content.
func dedupeKey(author, content string) string {
	if len(content) > dedupeContentRunes {
		content = content[:dedupeContentRunes]
	}
	return author + ":" + content
}
