package workspace

import (
	"context"
	"fmt"
	"log/slog"
)

// channelResult tags one channel's outcome so the skip decision stays
// inspectable before the public boundary flattens it.
type channelResult struct {
	channel  string
	messages []ChannelMessage
	skipped  bool
	reason   error
}

// Activity returns the first batch of messages from every listed channel,
// tagged with the channel name, in channel-listing order. A channel whose
// history call fails is logged and skipped; it never aborts the whole
// aggregation. Only the channel listing itself is fatal.
func (s *Service) Activity(ctx context.Context) ([]ChannelMessage, error) {
	listCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	channels, err := s.client.ListChannels(listCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: list channels: %v", ErrUpstream, err)
	}

	activity := make([]ChannelMessage, 0)
	for _, ch := range channels {
		result := s.collectChannel(ctx, ch)
		if result.skipped {
			s.logger.Warn("skipping channel activity",
				slog.String("channel", result.channel),
				slog.Any("error", result.reason),
			)
			continue
		}
		activity = append(activity, result.messages...)
	}
	return activity, nil
}

// collectChannel fetches exactly one history page for the channel: activity
// intentionally surfaces only the most recent batch, never paginating.
func (s *Service) collectChannel(ctx context.Context, ch UpstreamChannel) channelResult {
	page, err := s.historyPage(ctx, ch.ID, "")
	if err != nil {
		return channelResult{channel: ch.Name, skipped: true, reason: err}
	}
	messages := make([]ChannelMessage, 0, len(page.Messages))
	for _, raw := range page.Messages {
		messages = append(messages, ChannelMessage{
			Channel: ch.Name,
			Text:    raw.Text,
			User:    raw.UserID,
			Time:    formatTimestamp(raw.Timestamp),
		})
	}
	return channelResult{channel: ch.Name, messages: messages}
}
