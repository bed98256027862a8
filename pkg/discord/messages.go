package discord

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	chatListMarker    = `[data-list-id="chat-messages"]`
	messageEditor     = `[data-slate-editor="true"]`
	maxPageUpAttempts = 10
)

// chatScrollBottom jumps the chat list to its newest messages.
const chatScrollBottom = `
	() => {
		const chat = document.querySelector('[data-list-id="chat-messages"]');
		if (chat) chat.scrollTo(0, chat.scrollHeight);
		window.scrollTo(0, document.body.scrollHeight);
	}
`

// messageHarvest pulls one raw record per rendered message node. The
// selector cascades (first match wins) live here; everything downstream
// of the snapshot is pure Go.
const messageHarvest = `
	() => {
		const records = [];
		document.querySelectorAll('[data-list-id="chat-messages"] [id^="chat-messages-"]').forEach(el => {
			let content = '';
			for (const sel of ['[class*="messageContent"]', '[class*="markup"]', '.messageContent']) {
				const node = el.querySelector(sel);
				if (node && node.textContent?.trim()) {
					content = node.textContent.trim();
					break;
				}
			}
			let author = '';
			for (const sel of ['[class*="username"]', '[class*="authorName"]', '.username']) {
				const node = el.querySelector(sel);
				if (node && node.textContent?.trim()) {
					author = node.textContent.trim();
					break;
				}
			}
			const timeEl = el.querySelector('time');
			const attachments = [];
			el.querySelectorAll('a[href*="cdn.discordapp.com"]').forEach(a => {
				if (a.href) attachments.push(a.href);
			});
			records.push({
				id: el.id || '',
				content: content,
				author: author,
				datetime: timeEl?.getAttribute('datetime') || '',
				attachments: attachments
			});
		});
		return records;
	}
`

// Messages reads up to limit messages from a channel, newest first. The
// chat view is scrolled to the bottom and paged backwards (PageUp) until
// the limit is met or the attempt budget runs out. Optional before/after
// id bounds filter lexicographically on the message id.
func (s Session) Messages(guildID, channelID string, limit int, before, after string) (Session, []Message, error) {
	s, err := s.Login()
	if err != nil {
		return s, nil, err
	}

	if err := s.goto_(fmt.Sprintf("%s/channels/%s/%s", baseURL, guildID, channelID)); err != nil {
		return s, nil, err
	}
	if err := s.mustWaitVisible(chatListMarker, selectorTimeout); err != nil {
		return s, nil, err
	}

	if _, err := s.page.Evaluate(chatScrollBottom); err != nil {
		s.log.Debug("chat scroll failed", zap.Error(err))
	}
	s.settle(chatScrollSettle)

	seen := make(map[string]bool)
	var messages []Message

	for attempt := 0; attempt < maxPageUpAttempts; attempt++ {
		records := s.evalRecords(messageHarvest)
		if len(records) == 0 {
			s.pageUp()
			continue
		}

		// Walk newest-first as rendered.
		for i := len(records) - 1; i >= 0 && len(messages) < limit; i-- {
			msg, ok := messageFromRaw(records[i], channelID, len(seen))
			if !ok || seen[msg.ID] {
				continue
			}
			if !withinIDBounds(msg.ID, before, after) {
				continue
			}
			seen[msg.ID] = true
			messages = append(messages, msg)
		}

		if len(messages) >= limit {
			break
		}
		s.pageUp()
	}

	sortMessagesNewestFirst(messages)
	if len(messages) > limit {
		messages = messages[:limit]
	}
	s.log.Debug("message read finished", zap.Int("count", len(messages)))
	return s, messages, nil
}

// RecentMessages reads channel messages and keeps only those newer than
// the given look-back window.
func (s Session) RecentMessages(guildID, channelID string, hoursBack, limit int) (Session, []Message, error) {
	s, messages, err := s.Messages(guildID, channelID, limit, "", "")
	if err != nil {
		return s, nil, err
	}
	cutoff := time.Now().UTC().Add(-time.Duration(hoursBack) * time.Hour)
	return s, filterSince(messages, cutoff), nil
}

// SendMessage fills the message editor with one pre-chunked piece of
// content (callers guarantee it is at most 2000 characters) and submits
// it with Enter. A missing editor is a hard error. The returned id is
// synthesized: the UI does not expose the platform's message id after
// sending.
func (s Session) SendMessage(guildID, channelID, content string) (Session, string, error) {
	s, err := s.Login()
	if err != nil {
		return s, "", err
	}

	if err := s.goto_(fmt.Sprintf("%s/channels/%s/%s", baseURL, guildID, channelID)); err != nil {
		return s, "", err
	}
	if err := s.mustWaitVisible(messageEditor, shortSelectorTimeout); err != nil {
		return s, "", fmt.Errorf("could not find message input: %w", err)
	}

	if err := s.page.Fill(messageEditor, content); err != nil {
		return s, "", fmt.Errorf("failed to fill message input: %w", err)
	}
	if err := s.page.Keyboard().Press("Enter"); err != nil {
		return s, "", fmt.Errorf("failed to submit message: %w", err)
	}
	s.settle(sendSettle)

	return s, "sent-" + uuid.NewString(), nil
}

// pageUp scrolls the chat backwards one screen and lets rendering settle.
func (s Session) pageUp() {
	if err := s.page.Keyboard().Press("PageUp"); err != nil {
		s.log.Debug("page up failed", zap.Error(err))
	}
	s.settle(pageUpSettle)
}

// messageFromRaw derives a Message from one harvested chat node. Nodes
// that yield neither content nor attachments are skipped. An id is
// synthesized from the collection sequence when the node carries none.
func messageFromRaw(rec map[string]interface{}, channelID string, seq int) (Message, bool) {
	id := strings.TrimPrefix(recordString(rec, "id"), "chat-messages-")
	if id == "" {
		id = fmt.Sprintf("message-%d", seq)
	}
	content := recordString(rec, "content")
	attachments := recordStrings(rec, "attachments")
	if content == "" && len(attachments) == 0 {
		return Message{}, false
	}
	author := recordString(rec, "author")
	if author == "" {
		author = "Unknown"
	}
	return Message{
		ID:          id,
		Content:     content,
		AuthorName:  author,
		AuthorID:    "unknown",
		ChannelID:   channelID,
		Timestamp:   parseTimestamp(recordString(rec, "datetime")),
		Attachments: attachments,
	}, true
}

// withinIDBounds applies the optional before/after id bounds using string
// comparison, matching the platform's snowflake ordering for equal-length
// ids.
func withinIDBounds(id, before, after string) bool {
	if before != "" && id >= before {
		return false
	}
	if after != "" && id <= after {
		return false
	}
	return true
}

// sortMessagesNewestFirst orders messages by timestamp descending; the
// sort is stable so extraction order breaks ties.
func sortMessagesNewestFirst(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.After(messages[j].Timestamp)
	})
}

// filterSince keeps messages at or after the cutoff, preserving order.
func filterSince(messages []Message, cutoff time.Time) []Message {
	recent := make([]Message, 0, len(messages))
	for _, m := range messages {
		if !m.Timestamp.Before(cutoff) {
			recent = append(recent, m)
		}
	}
	return recent
}
