package remindstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Client provides namespaced Redis operations over the reminder store.
// It is the sole mutator of reminder and profile state - command handlers
// and the scheduler both go through it and hold no caches of their own.
// The client is thread-safe and can be used concurrently from multiple
// goroutines.
type Client struct {
	rdb  *redis.Client
	keys Keyspace
}

// NewClient creates a new store client for the given keyspace.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - keys: namespace plus collection names (see DefaultKeyspace)
//
// Returns an error if the namespace is empty.
func NewClient(redisOpts *redis.Options, keys Keyspace) (*Client, error) {
	if keys.Namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	if keys.Future == "" || keys.Past == "" || keys.Profiles == "" {
		return nil, fmt.Errorf("collection names cannot be empty")
	}

	return &Client{
		rdb:  redis.NewClient(redisOpts),
		keys: keys,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Keys returns the keyspace this client operates on.
func (c *Client) Keys() Keyspace {
	return c.keys
}

// RedisClient exposes the underlying connection for Pub/Sub consumers
// (gateway inbound, notifier outbound).
func (c *Client) RedisClient() *redis.Client {
	return c.rdb
}

// InsertFuture writes a new reminder into the future-set and indexes it in
// the schedule ZSET, as one transaction. Assigns a store ID if the reminder
// does not carry one yet. Returns the assigned id.
func (c *Client) InsertFuture(ctx context.Context, r *Reminder) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	if err := r.Validate(); err != nil {
		return "", fmt.Errorf("invalid reminder: %w", err)
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, c.keys.FutureKey(r.ID), ReminderToHash(r))
		pipe.ZAdd(ctx, c.keys.ScheduleKey(), redis.Z{
			Score:  DueScore(r.DueAt),
			Member: r.ID,
		})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert reminder: %w", err)
	}

	return r.ID, nil
}

// FindFutureByID retrieves an outstanding reminder by store id.
// Returns (nil, redis.Nil) if it doesn't exist. Use IsNotFound to check.
func (c *Client) FindFutureByID(ctx context.Context, reminderID string) (*Reminder, error) {
	return c.findByKey(ctx, c.keys.FutureKey(reminderID))
}

// FindPastByID retrieves an archived reminder by store id.
func (c *Client) FindPastByID(ctx context.Context, reminderID string) (*Reminder, error) {
	return c.findByKey(ctx, c.keys.PastKey(reminderID))
}

// FindAnyByID looks a reminder up by store id in the future-set first and
// falls back to the past-set. The throttle policy needs this because the id
// it inspects may have been archived already.
func (c *Client) FindAnyByID(ctx context.Context, reminderID string) (*Reminder, error) {
	r, err := c.FindFutureByID(ctx, reminderID)
	if err == nil {
		return r, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}
	return c.FindPastByID(ctx, reminderID)
}

func (c *Client) findByKey(ctx context.Context, key string) (*Reminder, error) {
	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read reminder from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	reminder, err := HashToReminder(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize reminder: %w", err)
	}

	return reminder, nil
}

// FindFutureByFriendlyID looks an outstanding reminder up by its user-facing
// id. Friendly ids are a field-equality lookup, not a key: the schedule
// index is walked and each candidate's friendly_id field compared. Friendly
// ids are only practically unique; on the rare collision the earliest-due
// match wins.
func (c *Client) FindFutureByFriendlyID(ctx context.Context, friendlyID string) (*Reminder, error) {
	return c.findFutureByFriendly(ctx, friendlyID, "")
}

// FindFutureByFriendlyIDForAuthor is FindFutureByFriendlyID restricted to
// reminders owned by authorID. Handlers use it for the delete path so that
// a non-owner gets the same answer as a missing id.
func (c *Client) FindFutureByFriendlyIDForAuthor(ctx context.Context, friendlyID, authorID string) (*Reminder, error) {
	return c.findFutureByFriendly(ctx, friendlyID, authorID)
}

func (c *Client) findFutureByFriendly(ctx context.Context, friendlyID, authorID string) (*Reminder, error) {
	ids, err := c.rdb.ZRange(ctx, c.keys.ScheduleKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan future reminders: %w", err)
	}

	for _, id := range ids {
		r, err := c.FindFutureByID(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				// Index member without a document: a partially-deleted
				// reminder. Skip; the scheduler re-converges the index.
				continue
			}
			return nil, err
		}
		if r.FriendlyID != friendlyID {
			continue
		}
		if authorID != "" && r.AuthorID != authorID {
			continue
		}
		return r, nil
	}

	return nil, redis.Nil
}

// ScanFuture enumerates every outstanding reminder, ordered by due instant
// ascending. The read is unbounded - the scheduler's scan step wants the
// whole future-set every cycle.
func (c *Client) ScanFuture(ctx context.Context) ([]*Reminder, error) {
	return c.fetchFromSchedule(ctx, 0, -1)
}

// ListUpcoming returns up to limit outstanding reminders, soonest first.
func (c *Client) ListUpcoming(ctx context.Context, limit int) ([]*Reminder, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	return c.fetchFromSchedule(ctx, 0, int64(limit)-1)
}

func (c *Client) fetchFromSchedule(ctx context.Context, start, stop int64) ([]*Reminder, error) {
	ids, err := c.rdb.ZRange(ctx, c.keys.ScheduleKey(), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule index: %w", err)
	}

	reminders := make([]*Reminder, 0, len(ids))
	for _, id := range ids {
		r, err := c.FindFutureByID(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		reminders = append(reminders, r)
	}

	return reminders, nil
}

// FindFutureForUser returns up to limit of the user's outstanding reminders,
// ordered by due instant ascending. The candidate set comes from the user's
// profile id list, re-queried on every call.
func (c *Client) FindFutureForUser(ctx context.Context, authorID string, limit int) ([]*Reminder, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	ids, err := c.rdb.LRange(ctx, c.keys.ProfileFutureKey(authorID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read profile future ids: %w", err)
	}

	reminders := make([]*Reminder, 0, len(ids))
	for _, id := range ids {
		r, err := c.FindFutureByID(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		reminders = append(reminders, r)
	}

	sort.Slice(reminders, func(i, j int) bool {
		return reminders[i].DueAt.Before(reminders[j].DueAt)
	})

	if len(reminders) > limit {
		reminders = reminders[:limit]
	}

	return reminders, nil
}

// Archive copies a reminder into the past-set with done=true. It does NOT
// remove the future-set document - deletion is a separate call the caller
// sequences after the profile update, per the scheduler's partial-failure
// policy. Archiving the same reminder twice overwrites the past-set copy.
func (c *Client) Archive(ctx context.Context, r *Reminder) error {
	archived := *r
	archived.Done = true

	if err := c.rdb.HSet(ctx, c.keys.PastKey(archived.ID), ReminderToHash(&archived)).Err(); err != nil {
		return fmt.Errorf("failed to archive reminder %s: %w", r.ID, err)
	}

	return nil
}

// DeleteFuture removes a reminder document and its schedule index entry as
// one transaction. Deleting a reminder that is not in the future-set is an
// error (zero affected documents).
func (c *Client) DeleteFuture(ctx context.Context, reminderID string) error {
	var del *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, c.keys.FutureKey(reminderID))
		pipe.ZRem(ctx, c.keys.ScheduleKey(), reminderID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete reminder %s: %w", reminderID, err)
	}

	if del.Val() == 0 {
		return fmt.Errorf("failed to delete reminder %s: not found in future-set", reminderID)
	}

	return nil
}

// GetProfile retrieves an author's profile.
// Returns (nil, redis.Nil) if the author has never created a reminder.
func (c *Client) GetProfile(ctx context.Context, authorID string) (*UserProfile, error) {
	hashData, err := c.rdb.HGetAll(ctx, c.keys.ProfileKey(authorID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read profile from Redis: %w", err)
	}

	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	futureIDs, err := c.rdb.LRange(ctx, c.keys.ProfileFutureKey(authorID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read profile future ids: %w", err)
	}

	allIDs, err := c.rdb.LRange(ctx, c.keys.ProfileAllKey(authorID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read profile history ids: %w", err)
	}

	profile := &UserProfile{
		AuthorID:  authorID,
		FutureIDs: futureIDs,
		AllIDs:    allIDs,
	}

	// Missing counter fields read as zero.
	profile.FutureCount, _ = strconv.ParseInt(hashData["future_count"], 10, 64)
	profile.PastCount, _ = strconv.ParseInt(hashData["past_count"], 10, 64)

	return profile, nil
}

// HistoryAt returns the reminder id at the given position from the end of
// the author's full creation history (1 = newest). Returns redis.Nil when
// the history is shorter than the position. The throttle policy reads its
// sliding-window anchor through this.
func (c *Client) HistoryAt(ctx context.Context, authorID string, fromEnd int) (string, error) {
	if fromEnd < 1 {
		return "", fmt.Errorf("position must be >= 1, got %d", fromEnd)
	}

	id, err := c.rdb.LIndex(ctx, c.keys.ProfileAllKey(authorID), int64(-fromEnd)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", redis.Nil
		}
		return "", fmt.Errorf("failed to read profile history: %w", err)
	}

	return id, nil
}

// UpsertProfileOnCreate records a freshly inserted reminder on its author's
// profile: increments the outstanding counter and appends the id to both
// the future list and the all-time history, as one transaction. Creates the
// profile implicitly on first use.
func (c *Client) UpsertProfileOnCreate(ctx context.Context, authorID, reminderID string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, c.keys.ProfileKey(authorID), "future_count", 1)
		pipe.RPush(ctx, c.keys.ProfileFutureKey(authorID), reminderID)
		pipe.RPush(ctx, c.keys.ProfileAllKey(authorID), reminderID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update profile for %s: %w", authorID, err)
	}

	return nil
}

// UpdateProfileOnArchive records a delivered reminder on its author's
// profile: moves one count from future to past and pulls the id from the
// future list, as one transaction. The id stays in the all-time history.
// An id that was not in the future list is an error (zero affected).
func (c *Client) UpdateProfileOnArchive(ctx context.Context, authorID, reminderID string) error {
	var removed *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, c.keys.ProfileKey(authorID), "past_count", 1)
		pipe.HIncrBy(ctx, c.keys.ProfileKey(authorID), "future_count", -1)
		removed = pipe.LRem(ctx, c.keys.ProfileFutureKey(authorID), 1, reminderID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update profile for %s: %w", authorID, err)
	}

	if removed.Val() == 0 {
		return fmt.Errorf("failed to update profile for %s: reminder %s not in future list", authorID, reminderID)
	}

	return nil
}

// UpdateProfileOnCancel records a user-cancelled reminder on its author's
// profile: decrements the outstanding counter and pulls the id from BOTH
// the future list and the all-time history, as one transaction. Cancelled
// ids must leave the history, otherwise the position-based throttle would
// anchor on an id that no longer resolves in either set.
func (c *Client) UpdateProfileOnCancel(ctx context.Context, authorID, reminderID string) error {
	var removed *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, c.keys.ProfileKey(authorID), "future_count", -1)
		removed = pipe.LRem(ctx, c.keys.ProfileFutureKey(authorID), 1, reminderID)
		pipe.LRem(ctx, c.keys.ProfileAllKey(authorID), 1, reminderID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update profile for %s: %w", authorID, err)
	}

	if removed.Val() == 0 {
		return fmt.Errorf("failed to update profile for %s: reminder %s not in future list", authorID, reminderID)
	}

	return nil
}

// IsNotFound returns true if the error is a Redis "key not found" error
// (redis.Nil). Use this to check if a Find*, GetProfile or HistoryAt call
// returned "not found".
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
