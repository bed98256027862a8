package discord

import (
	"strings"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

const chatMessageNodes = `[id^="chat-messages-"]`

// contextHarvest extracts the currently rendered messages in document
// order after jumping into a channel view. Attachment links are not
// collected here; context windows only need author/content/timestamp.
const contextHarvest = `
	() => {
		const out = [];
		document.querySelectorAll('[id^="chat-messages-"]').forEach((el, index) => {
			const usernameEl = el.querySelector('[class*="username"]');
			const timeEl = el.querySelector('time');
			const contentEl = el.querySelector('[class*="messageContent"], [class*="markup"]');
			out.push({
				id: (el.id || '').replace('chat-messages-', ''),
				author: usernameEl?.textContent?.trim() || '',
				content: contentEl?.textContent?.trim() || '',
				datetime: timeEl?.getAttribute('datetime') || '',
				index: index
			});
		});
		return out;
	}
`

// channelHeaderName probes the channel header title, taking the first
// capitalized segment to work around the duplicated text Discord renders.
const channelHeaderName = `
	() => {
		const title = document.querySelector('h1[class*="title"], [class*="channelName"]');
		if (title) {
			const text = title.textContent?.trim() || '';
			const parts = text.split(/(?=[A-Z])/);
			return parts[0] || text;
		}
		return '';
	}
`

// SearchResultContext searches with a narrowed filter set, clicks through
// the result at the requested index into its channel view and extracts
// the surrounding message window. A nil context with nil error means the
// result could not be located ("not found" semantics, not a failure).
func (s Session) SearchResultContext(guildID string, filters SearchFilters, resultIndex, beforeCount, afterCount, page int) (Session, *MessageContext, error) {
	s, err := s.runSearch(guildID, filters, page)
	if err != nil {
		return s, nil, err
	}
	if !s.waitVisible(searchResultMarker, shortSelectorTimeout) {
		s.log.Debug("no search results for context lookup")
		return s, nil, nil
	}
	s.settle(searchResultSettle + contextListSettle)

	if page > 1 {
		if !navigateToResultsPage(playwrightPager{s: s}, page) {
			s.log.Debug("could not navigate to results page", zap.Int("page", page))
		}
		s.settle(pageButtonSettle)
	}

	// Result containers are the DIVs, not the wrapper SECTION/UL elements
	// the class substring also matches.
	results := s.page.Locator(`div[class*="searchResult"]`)
	count, err := results.Count()
	if err != nil {
		return s, nil, err
	}
	if resultIndex >= count {
		s.log.Debug("result index out of range",
			zap.Int("index", resultIndex), zap.Int("count", count))
		return s, nil, nil
	}

	target := results.Nth(resultIndex)
	if err := target.ScrollIntoViewIfNeeded(); err != nil {
		s.log.Debug("scroll into view failed", zap.Error(err))
	}
	if err := target.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		return s, nil, err
	}
	s.settle(jumpSettle)

	channelID, targetMessageID := parseJumpURL(s.page.URL())

	if err := s.mustWaitVisible(chatMessageNodes, shortSelectorTimeout); err != nil {
		return s, nil, err
	}
	s.settle(contextListSettle)

	records := s.evalRecords(contextHarvest)
	ctx, ok := contextFromRaw(records, channelID, targetMessageID, beforeCount, afterCount)
	if !ok {
		s.log.Debug("no messages found in channel view")
		return s, nil, nil
	}

	ctx.ChannelName = s.channelName(filters)
	s.log.Debug("context built",
		zap.Int("before", len(ctx.Before)), zap.Int("after", len(ctx.After)))
	return s, ctx, nil
}

// channelName prefers the caller-provided channel filter, else probes the
// header title. Fail-safe empty.
func (s Session) channelName(filters SearchFilters) string {
	if len(filters.InChannels) > 0 {
		return filters.InChannels[0]
	}
	result, err := s.page.Evaluate(channelHeaderName)
	if err != nil {
		return ""
	}
	name, _ := result.(string)
	return strings.TrimSpace(name)
}

// parseJumpURL takes the trailing two path segments of a channel jump URL
// (/channels/{guild}/{channel}/{message}) as channel id and message id.
func parseJumpURL(url string) (channelID, messageID string) {
	parts := strings.Split(url, "/")
	if len(parts) >= 2 {
		channelID = parts[len(parts)-2]
	}
	if len(parts) >= 1 {
		messageID = parts[len(parts)-1]
	}
	return channelID, messageID
}

// contextFromRaw locates the target inside the rendered list — a node
// whose id contains the URL-derived target id, else the visually central
// node — and slices the clamped before/after windows around it.
func contextFromRaw(records []map[string]interface{}, channelID, targetMessageID string, beforeCount, afterCount int) (*MessageContext, bool) {
	var messages []Message
	for _, rec := range records {
		author := recordString(rec, "author")
		content := recordString(rec, "content")
		if content == "" && author == "" {
			continue
		}
		if author == "" {
			author = "Unknown"
		}
		messages = append(messages, Message{
			ID:          recordString(rec, "id"),
			Content:     content,
			AuthorName:  author,
			AuthorID:    "unknown",
			ChannelID:   channelID,
			Timestamp:   parseTimestamp(recordString(rec, "datetime")),
			Attachments: []string{},
		})
	}
	if len(messages) == 0 {
		return nil, false
	}

	// Midpoint fallback is a documented best-effort heuristic: a jump that
	// lands near the edge of the loaded window may pick a neighbour.
	targetIdx := len(messages) / 2
	if targetMessageID != "" {
		for i, msg := range messages {
			if strings.Contains(msg.ID, targetMessageID) {
				targetIdx = i
				break
			}
		}
	}

	beforeStart := targetIdx - beforeCount
	if beforeStart < 0 {
		beforeStart = 0
	}
	afterEnd := targetIdx + afterCount + 1
	if afterEnd > len(messages) {
		afterEnd = len(messages)
	}

	return &MessageContext{
		Target:    messages[targetIdx],
		Before:    messages[beforeStart:targetIdx],
		After:     messages[targetIdx+1 : afterEnd],
		ChannelID: channelID,
	}, true
}
