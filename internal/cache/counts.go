// Package cache keeps per-meetup badge counts (participants, total
// reactions) in Redis for the list view. Writes invalidate, reads rebuild
// lazily from the meetup snapshot; every cache failure degrades to the
// document itself, never to an error for the caller.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	countsTTL         = 24 * time.Hour
	countsKeyPrefix   = "meetup:counts:"
	fieldParticipants = "participants"
	fieldReactions    = "reactions"
)

// Counts holds the badge numbers shown on a meetup card
type Counts struct {
	Participants int `json:"participants"`
	Reactions    int `json:"reactions"`
}

// CountCache is a Redis-backed count cache. A nil *CountCache is valid and
// disables caching, so callers don't need to branch on configuration.
type CountCache struct {
	rdb *redis.Client
}

// New connects to Redis from a URL. An empty URL disables the cache.
func New(redisURL string) (*CountCache, error) {
	if redisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &CountCache{rdb: rdb}, nil
}

func countsKey(meetupID string) string {
	return countsKeyPrefix + meetupID
}

// Get returns cached counts and whether the cache held them
func (c *CountCache) Get(ctx context.Context, meetupID string) (Counts, bool, error) {
	if c == nil {
		return Counts{}, false, nil
	}

	fields, err := c.rdb.HGetAll(ctx, countsKey(meetupID)).Result()
	if err != nil || len(fields) == 0 {
		return Counts{}, false, err
	}

	participants, _ := strconv.Atoi(fields[fieldParticipants])
	reactions, _ := strconv.Atoi(fields[fieldReactions])
	return Counts{Participants: participants, Reactions: reactions}, true, nil
}

// Set backfills counts after a cache miss
func (c *CountCache) Set(ctx context.Context, meetupID string, counts Counts) error {
	if c == nil {
		return nil
	}

	key := countsKey(meetupID)
	if err := c.rdb.HSet(ctx, key,
		fieldParticipants, counts.Participants,
		fieldReactions, counts.Reactions,
	).Err(); err != nil {
		return err
	}
	return c.rdb.Expire(ctx, key, countsTTL).Err()
}

// Invalidate deletes the counts key after a write; the next read rebuilds
// it from the document
func (c *CountCache) Invalidate(ctx context.Context, meetupID string) error {
	if c == nil {
		return nil
	}
	return c.rdb.Del(ctx, countsKey(meetupID)).Err()
}
