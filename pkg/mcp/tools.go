package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/entrhq/discord-mcp/pkg/discord"
)

var (
	validHasFilters  = map[string]bool{"image": true, "video": true, "link": true, "file": true, "embed": true}
	validAuthorTypes = map[string]bool{"user": true, "bot": true, "webhook": true}
)

// interChunkDelay spaces sequential chunk sends to reduce rate-limit risk.
const interChunkDelay = 500 * time.Millisecond

func (s *Server) registerTools() {
	stringItems := mcpgo.Items(map[string]interface{}{"type": "string"})

	s.srv.AddTool(mcpgo.NewTool("get_servers",
		mcpgo.WithDescription("List all Discord servers you have access to"),
		mcpgo.WithTitleAnnotation("List Discord Servers"),
		mcpgo.WithReadOnlyHintAnnotation(true),
		mcpgo.WithDestructiveHintAnnotation(false),
	), s.handleGetServers)

	s.srv.AddTool(mcpgo.NewTool("get_channels",
		mcpgo.WithDescription("List all channels in a specific Discord server"),
		mcpgo.WithTitleAnnotation("List Server Channels"),
		mcpgo.WithReadOnlyHintAnnotation(true),
		mcpgo.WithDestructiveHintAnnotation(false),
		mcpgo.WithString("server_id", mcpgo.Required(), mcpgo.Description("Discord server ID")),
	), s.handleGetChannels)

	s.srv.AddTool(mcpgo.NewTool("read_messages",
		mcpgo.WithDescription("Read recent messages from a specific channel"),
		mcpgo.WithTitleAnnotation("Read Channel Messages"),
		mcpgo.WithReadOnlyHintAnnotation(true),
		mcpgo.WithDestructiveHintAnnotation(false),
		mcpgo.WithString("server_id", mcpgo.Required(), mcpgo.Description("Discord server ID")),
		mcpgo.WithString("channel_id", mcpgo.Required(), mcpgo.Description("Channel ID to read from")),
		mcpgo.WithNumber("max_messages", mcpgo.Required(), mcpgo.Description("Maximum number of messages to retrieve (1-1000)")),
		mcpgo.WithNumber("hours_back", mcpgo.Description("How many hours back to search (default 24, max 8760)")),
	), s.handleReadMessages)

	s.srv.AddTool(mcpgo.NewTool("send_message",
		mcpgo.WithDescription("Send a message to a specific Discord channel. Long messages are automatically split."),
		mcpgo.WithTitleAnnotation("Send Message"),
		mcpgo.WithReadOnlyHintAnnotation(false),
		mcpgo.WithDestructiveHintAnnotation(true),
		mcpgo.WithString("server_id", mcpgo.Required(), mcpgo.Description("Discord server ID")),
		mcpgo.WithString("channel_id", mcpgo.Required(), mcpgo.Description("Channel ID to send message to")),
		mcpgo.WithString("content", mcpgo.Required(), mcpgo.Description("Message content (automatically splits if >2000 characters)")),
	), s.handleSendMessage)

	s.srv.AddTool(mcpgo.NewTool("search_messages",
		mcpgo.WithDescription("Search for messages in a Discord server with filters for channels, users, dates, and content types"),
		mcpgo.WithTitleAnnotation("Search Messages"),
		mcpgo.WithReadOnlyHintAnnotation(true),
		mcpgo.WithDestructiveHintAnnotation(false),
		mcpgo.WithString("server_id", mcpgo.Required(), mcpgo.Description("Discord server/guild ID")),
		mcpgo.WithString("query", mcpgo.Description("Search text content to find")),
		mcpgo.WithArray("in_channels", stringItems, mcpgo.Description("Channel names to search in (e.g. [\"general\", \"memes\"])")),
		mcpgo.WithArray("from_users", stringItems, mcpgo.Description("Usernames to filter by author")),
		mcpgo.WithArray("mentions_users", stringItems, mcpgo.Description("Usernames to filter by mentions")),
		mcpgo.WithArray("has_filters", stringItems, mcpgo.Description("Content type filters: image, video, link, file, embed")),
		mcpgo.WithString("before", mcpgo.Description("Date filter YYYY-MM-DD (messages before this date)")),
		mcpgo.WithString("after", mcpgo.Description("Date filter YYYY-MM-DD (messages after this date)")),
		mcpgo.WithString("during", mcpgo.Description("Date filter YYYY-MM-DD (messages on this specific date)")),
		mcpgo.WithString("author_type", mcpgo.Description("Filter by author type: user, bot, webhook")),
		mcpgo.WithBoolean("pinned", mcpgo.Description("If true, only search pinned messages")),
		mcpgo.WithNumber("page", mcpgo.Description("Page number of results (1-indexed, default 1)")),
		mcpgo.WithNumber("max_results", mcpgo.Description("Maximum number of results per page (1-100, default 25)")),
	), s.handleSearchMessages)

	s.srv.AddTool(mcpgo.NewTool("get_search_result_context",
		mcpgo.WithDescription("Jump to a search result and get surrounding message context for conversation analysis"),
		mcpgo.WithTitleAnnotation("Get Search Result Context"),
		mcpgo.WithReadOnlyHintAnnotation(true),
		mcpgo.WithDestructiveHintAnnotation(false),
		mcpgo.WithString("server_id", mcpgo.Required(), mcpgo.Description("Discord server/guild ID")),
		mcpgo.WithString("query", mcpgo.Required(), mcpgo.Description("Search query to find the target message")),
		mcpgo.WithNumber("result_index", mcpgo.Description("Which search result to jump to (0-indexed, default 0)")),
		mcpgo.WithNumber("before_count", mcpgo.Description("Number of messages to get before target (default 5)")),
		mcpgo.WithNumber("after_count", mcpgo.Description("Number of messages to get after target (default 5)")),
		mcpgo.WithArray("in_channels", stringItems, mcpgo.Description("Optional channel names to filter search")),
		mcpgo.WithArray("from_users", stringItems, mcpgo.Description("Optional usernames to filter search by author")),
		mcpgo.WithNumber("page", mcpgo.Description("Search results page number (default 1)")),
	), s.handleGetSearchResultContext)
}

func (s *Server) handleGetServers(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	var guilds []discord.Guild
	err := s.withFreshSession(ctx, func(sess discord.Session) (discord.Session, error) {
		var err error
		sess, guilds, err = sess.Guilds()
		return sess, err
	})
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	out := make([]map[string]string, 0, len(guilds))
	for _, g := range guilds {
		out = append(out, map[string]string{"id": g.ID, "name": g.Name})
	}
	return jsonResult(out)
}

func (s *Server) handleGetChannels(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	args := req.GetArguments()
	serverID, err := requireString(args, "server_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	var channels []discord.Channel
	err = s.withFreshSession(ctx, func(sess discord.Session) (discord.Session, error) {
		var err error
		sess, channels, err = sess.Channels(serverID)
		return sess, err
	})
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	out := make([]map[string]string, 0, len(channels))
	for _, ch := range channels {
		out = append(out, map[string]string{
			"id":   ch.ID,
			"name": ch.Name,
			"type": fmt.Sprintf("%d", ch.Type),
		})
	}
	return jsonResult(out)
}

func (s *Server) handleReadMessages(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	args := req.GetArguments()
	serverID, err := requireString(args, "server_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	channelID, err := requireString(args, "channel_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	maxMessages, err := argInt(args, "max_messages", 0)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	hoursBack, err := argInt(args, "hours_back", 24)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	if hoursBack < 1 || hoursBack > 8760 {
		return mcpgo.NewToolResultError("hours_back must be between 1 and 8760 (1 year)"), nil
	}
	if maxMessages < 1 || maxMessages > 1000 {
		return mcpgo.NewToolResultError("max_messages must be between 1 and 1000"), nil
	}

	var messages []discord.Message
	err = s.withFreshSession(ctx, func(sess discord.Session) (discord.Session, error) {
		var err error
		sess, messages, err = sess.RecentMessages(serverID, channelID, hoursBack, maxMessages)
		return sess, err
	})
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return jsonResult(messagesJSON(messages, true))
}

func (s *Server) handleSendMessage(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	args := req.GetArguments()
	serverID, err := requireString(args, "server_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	channelID, err := requireString(args, "channel_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	content := argString(args, "content", "")
	if len(content) == 0 {
		return mcpgo.NewToolResultError("Message content cannot be empty"), nil
	}

	chunks := SplitMessage(content)
	s.log.Info("sending message", zap.Int("chunks", len(chunks)), zap.Int("length", len(content)))

	messageIDs := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		var messageID string
		err := s.withFreshSession(ctx, func(sess discord.Session) (discord.Session, error) {
			var err error
			sess, messageID, err = sess.SendMessage(serverID, channelID, chunk)
			return sess, err
		})
		if err != nil {
			return mcpgo.NewToolResultError(err.Error()), nil
		}
		messageIDs = append(messageIDs, messageID)

		if i < len(chunks)-1 {
			select {
			case <-time.After(interChunkDelay):
			case <-ctx.Done():
				return mcpgo.NewToolResultError(ctx.Err().Error()), nil
			}
		}
	}

	return jsonResult(map[string]interface{}{
		"message_ids":  messageIDs,
		"status":       "sent",
		"chunks":       len(chunks),
		"total_length": len(content),
	})
}

func (s *Server) handleSearchMessages(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	args := req.GetArguments()
	serverID, err := requireString(args, "server_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	filters := discord.SearchFilters{
		Query:         argString(args, "query", ""),
		InChannels:    argStringSlice(args, "in_channels"),
		FromUsers:     argStringSlice(args, "from_users"),
		MentionsUsers: argStringSlice(args, "mentions_users"),
		Has:           argStringSlice(args, "has_filters"),
		Before:        argString(args, "before", ""),
		After:         argString(args, "after", ""),
		During:        argString(args, "during", ""),
		AuthorType:    argString(args, "author_type", ""),
	}
	if pinned, ok := argBool(args, "pinned"); ok {
		filters.Pinned = pinned
	}
	page, err := argInt(args, "page", 1)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	maxResults, err := argInt(args, "max_results", 25)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	if msg := validateSearchArgs(filters, page, maxResults); msg != "" {
		return mcpgo.NewToolResultError(msg), nil
	}

	var messages []discord.Message
	err = s.withFreshSession(ctx, func(sess discord.Session) (discord.Session, error) {
		var err error
		sess, messages, err = sess.SearchMessages(serverID, filters, page, maxResults)
		return sess, err
	})
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return jsonResult(messagesJSON(messages, true))
}

func (s *Server) handleGetSearchResultContext(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	args := req.GetArguments()
	serverID, err := requireString(args, "server_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	query, err := requireString(args, "query")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	resultIndex, err := argInt(args, "result_index", 0)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	beforeCount, err := argInt(args, "before_count", 5)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	afterCount, err := argInt(args, "after_count", 5)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	page, err := argInt(args, "page", 1)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	if resultIndex < 0 {
		return mcpgo.NewToolResultError("result_index must be >= 0"), nil
	}
	if beforeCount < 0 || afterCount < 0 {
		return mcpgo.NewToolResultError("before_count and after_count must be >= 0"), nil
	}
	if page < 1 {
		return mcpgo.NewToolResultError("page must be >= 1"), nil
	}

	filters := discord.SearchFilters{
		Query:      query,
		InChannels: argStringSlice(args, "in_channels"),
		FromUsers:  argStringSlice(args, "from_users"),
	}

	var msgCtx *discord.MessageContext
	err = s.withFreshSession(ctx, func(sess discord.Session) (discord.Session, error) {
		var err error
		sess, msgCtx, err = sess.SearchResultContext(serverID, filters, resultIndex, beforeCount, afterCount, page)
		return sess, err
	})
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	if msgCtx == nil {
		return jsonResult(map[string]interface{}{
			"error": "Could not get message context",
			"found": false,
		})
	}
	return jsonResult(map[string]interface{}{
		"found":           true,
		"channel_name":    msgCtx.ChannelName,
		"channel_id":      msgCtx.ChannelID,
		"target_message":  messageJSON(msgCtx.Target, false),
		"messages_before": messagesJSON(msgCtx.Before, false),
		"messages_after":  messagesJSON(msgCtx.After, false),
	})
}

// validateSearchArgs enforces the search tool's contract before any
// browser work begins. Returns an error message, empty when valid.
func validateSearchArgs(f discord.SearchFilters, page, maxResults int) string {
	hasFilter := len(f.InChannels) > 0 || len(f.FromUsers) > 0 || len(f.MentionsUsers) > 0 ||
		len(f.Has) > 0 || f.Before != "" || f.After != "" || f.During != "" ||
		f.AuthorType != "" || f.Pinned
	if strings.TrimSpace(f.Query) == "" && !hasFilter {
		return "Must provide query text or at least one filter"
	}
	if maxResults < 1 || maxResults > 100 {
		return "max_results must be between 1 and 100"
	}
	if page < 1 {
		return "page must be at least 1"
	}
	for _, h := range f.Has {
		if !validHasFilters[h] {
			return "has_filters must be from: image, video, link, file, embed"
		}
	}
	if f.AuthorType != "" && !validAuthorTypes[f.AuthorType] {
		return "author_type must be one of: user, bot, webhook"
	}
	return ""
}

// messageJSON serializes one message with an ISO-8601 timestamp.
// Attachments are included for list results but omitted from context
// windows, mirroring the tool contract.
func messageJSON(m discord.Message, withAttachments bool) map[string]interface{} {
	out := map[string]interface{}{
		"id":          m.ID,
		"content":     m.Content,
		"author_name": m.AuthorName,
		"timestamp":   m.Timestamp.UTC().Format(time.RFC3339),
	}
	if withAttachments {
		attachments := m.Attachments
		if attachments == nil {
			attachments = []string{}
		}
		out["attachments"] = attachments
	}
	return out
}

func messagesJSON(messages []discord.Message, withAttachments bool) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageJSON(m, withAttachments))
	}
	return out
}

// jsonResult marshals a value into a text tool result.
func jsonResult(v interface{}) (*mcpgo.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcpgo.NewToolResultError(fmt.Sprintf("failed to serialize result: %v", err)), nil
	}
	return mcpgo.NewToolResultText(string(data)), nil
}
