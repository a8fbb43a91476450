package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mondaychat/monday/internal/chat"
)

// ErrSessionNotFound is returned for operations on a session id the
// store has never seen (or one that already expired).
var ErrSessionNotFound = errors.New("session not found")

// Gateway is the session/message store over Redis. Each session owns a
// list of JSON-encoded entries capped at MaxItems and a meta hash, both
// expiring after TTL of inactivity. Redis is the source of truth; any
// in-process caching sits in front of it, never instead of it.
type Gateway struct {
	rdb      *redis.Client
	maxItems int
	ttl      time.Duration
	locks    sessionLocks
	log      *logrus.Logger
}

func NewGateway(rdb *redis.Client, maxItems int, ttl time.Duration, log *logrus.Logger) *Gateway {
	return &Gateway{rdb: rdb, maxItems: maxItems, ttl: ttl, log: log}
}

func (g *Gateway) msgKey(sid string) string  { return "monday:sess:" + sid + ":msgs" }
func (g *Gateway) metaKey(sid string) string { return "monday:sess:" + sid + ":meta" }

// Ping reports store reachability for the health endpoint.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.rdb.Ping(ctx).Err()
}

// Start creates a session with an immutable fact set and returns its id.
func (g *Gateway) Start(ctx context.Context, facts []string) (string, error) {
	sid := uuid.New().String()
	now := time.Now().UnixMilli()

	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return "", fmt.Errorf("encode facts: %w", err)
	}

	pipe := g.rdb.TxPipeline()
	pipe.HSet(ctx, g.metaKey(sid), "created", now, "last", now, "facts", string(factsJSON))
	pipe.Expire(ctx, g.metaKey(sid), g.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return sid, nil
}

// Facts returns the fact set attached at session start.
func (g *Gateway) Facts(ctx context.Context, sid string) ([]string, error) {
	raw, err := g.rdb.HGet(ctx, g.metaKey(sid), "facts").Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read facts: %w", err)
	}
	var facts []string
	if err := json.Unmarshal([]byte(raw), &facts); err != nil {
		return nil, fmt.Errorf("decode facts: %w", err)
	}
	return facts, nil
}

// AppendBatch appends entries to the session's list, trims it to the
// retained maximum (newest kept) and renews the expiry, all in one
// MULTI/EXEC unit. Entries must already be normalized; invalid ones are
// excluded, never fatal. Returns the count actually saved.
func (g *Gateway) AppendBatch(ctx context.Context, sid string, entries []chat.Entry) (int, error) {
	values := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		if !e.Valid() {
			continue
		}
		b, err := json.Marshal(e)
		if err != nil {
			continue
		}
		values = append(values, b)
	}
	if len(values) == 0 {
		return 0, nil
	}

	unlock := g.locks.lock(sid)
	defer unlock()

	now := time.Now().UnixMilli()
	pipe := g.rdb.TxPipeline()
	pipe.RPush(ctx, g.msgKey(sid), values...)
	pipe.LTrim(ctx, g.msgKey(sid), int64(-g.maxItems), -1)
	pipe.Expire(ctx, g.msgKey(sid), g.ttl)
	pipe.HSet(ctx, g.metaKey(sid), "last", now)
	pipe.Expire(ctx, g.metaKey(sid), g.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("append batch: %w", err)
	}
	return len(values), nil
}

// List returns all retained entries in insertion order, hidden and
// summary entries included. Unparseable records are skipped, not fatal.
func (g *Gateway) List(ctx context.Context, sid string) ([]chat.Entry, error) {
	raw, err := g.rdb.LRange(ctx, g.msgKey(sid), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	entries := make([]chat.Entry, 0, len(raw))
	for _, item := range raw {
		var e chat.Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			g.log.WithField("sid", sid).WithError(err).Warn("skipping malformed stored entry")
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// PurgeHidden removes every hidden non-summary entry and rewrites the
// list atomically as a whole (DEL plus RPUSH of the kept set in one
// transaction), so a concurrent reader never observes a partial state.
func (g *Gateway) PurgeHidden(ctx context.Context, sid string) (removed, kept int, err error) {
	unlock := g.locks.lock(sid)
	defer unlock()

	raw, err := g.rdb.LRange(ctx, g.msgKey(sid), 0, -1).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("purge read: %w", err)
	}

	keptValues, removed := partitionKept(raw)
	kept = len(keptValues)
	if removed == 0 {
		return 0, kept, nil
	}

	pipe := g.rdb.TxPipeline()
	pipe.Del(ctx, g.msgKey(sid))
	if kept > 0 {
		pipe.RPush(ctx, g.msgKey(sid), keptValues...)
		pipe.Expire(ctx, g.msgKey(sid), g.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("purge rewrite: %w", err)
	}
	return removed, kept, nil
}

// partitionKept splits raw stored records into the kept set (visible
// entries and summaries) and a removed count. Unparseable records are
// counted as removed; the rewrite drops them along with the hidden ones.
func partitionKept(raw []string) (kept []interface{}, removed int) {
	kept = make([]interface{}, 0, len(raw))
	for _, item := range raw {
		var e chat.Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		if e.Hidden && !e.IsSummary() {
			continue
		}
		kept = append(kept, item)
	}
	return kept, len(raw) - len(kept)
}

// End reads out the session's entries and facts, then discards the
// session. Callers flush the returned entries to durable storage.
func (g *Gateway) End(ctx context.Context, sid string) ([]chat.Entry, []string, error) {
	unlock := g.locks.lock(sid)
	defer unlock()

	facts, err := g.Facts(ctx, sid)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}

	entries, err := g.List(ctx, sid)
	if err != nil {
		return nil, nil, err
	}

	if err := g.rdb.Del(ctx, g.msgKey(sid), g.metaKey(sid)).Err(); err != nil {
		return nil, nil, fmt.Errorf("end session: %w", err)
	}
	return entries, facts, nil
}
