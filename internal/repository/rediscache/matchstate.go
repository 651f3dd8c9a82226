package rediscache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Key patterns for Redis match state.
func stateKey(matchID string) string  { return "match:" + matchID + ":state" }
func cancelKey(matchID string) string { return "match:" + matchID + ":cancel" }

// SetMatchState stores a serialized snapshot of a match's engine state
// (typically the latest event log plus current phase), for mid-match
// inspection or recovery after a crash.
func (c *Client) SetMatchState(ctx context.Context, matchID string, state json.RawMessage) error {
	return c.rdb.Set(ctx, stateKey(matchID), []byte(state), 0).Err()
}

// GetMatchState retrieves the most recent snapshot for a match, or nil if
// none has been stored.
func (c *Client) GetMatchState(ctx context.Context, matchID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(matchID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get match state: %w", err)
	}
	return json.RawMessage(data), nil
}

// DeleteMatchState removes a match's cached state; the tournament scheduler
// calls it when the match's run ends, before the result is persisted.
func (c *Client) DeleteMatchState(ctx context.Context, matchID string) error {
	return c.rdb.Del(ctx, stateKey(matchID)).Err()
}

// PublishCancellation asks a running match's worker to stop at the next
// safe point (the next completed Step), for an operator-initiated abort. The
// tournament scheduler's workers subscribe to it but never publish it
// themselves; it is advisory — a worker that misses the message still stops
// at its own maxSteps bound.
func (c *Client) PublishCancellation(ctx context.Context, matchID string) error {
	return c.rdb.Publish(ctx, cancelKey(matchID), "cancel").Err()
}

// SubscribeCancellation returns a subscription a match worker can select on
// to learn it should cancel. Callers must Close the subscription when done.
func (c *Client) SubscribeCancellation(ctx context.Context, matchID string) *redis.PubSub {
	return c.rdb.Subscribe(ctx, cancelKey(matchID))
}
