package workspace

import (
	"context"
	"fmt"
	"log/slog"
)

// ChatHistory resolves the target and returns its full message history,
// following continuation cursors until the upstream reports exhaustion.
func (s *Service) ChatHistory(ctx context.Context, target Target) ([]Message, error) {
	conversationID, err := s.ResolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	return s.fetchAll(ctx, conversationID)
}

// fetchAll accumulates every history page for one conversation. Messages
// keep upstream delivery order within and across pages. The page cap guards
// against a cursor that never terminates; hitting it with a live cursor is
// an upstream failure, not a partial success.
func (s *Service) fetchAll(ctx context.Context, conversationID string) ([]Message, error) {
	var (
		messages []Message
		cursor   string
	)
	for page := 0; page < s.maxPages; page++ {
		result, err := s.historyPage(ctx, conversationID, cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: history for %s: %v", ErrUpstream, conversationID, err)
		}
		for _, raw := range result.Messages {
			messages = append(messages, normalizeMessage(raw))
		}
		cursor = result.NextCursor
		if cursor == "" {
			return messages, nil
		}
	}
	s.logger.Error("pagination did not terminate",
		slog.String("conversation_id", conversationID),
		slog.Int("max_pages", s.maxPages),
	)
	return nil, fmt.Errorf("%w: pagination did not terminate after %d pages", ErrUpstream, s.maxPages)
}

// historyPage performs one bounded history call.
func (s *Service) historyPage(ctx context.Context, conversationID, cursor string) (HistoryPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.client.History(ctx, conversationID, cursor, s.pageLimit)
}
