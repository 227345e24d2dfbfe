package remindstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a test client connected to a miniredis instance
func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(&redis.Options{Addr: mr.Addr()}, DefaultKeyspace("test"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func testReminder(author string, due time.Time) *Reminder {
	created := due.Add(-time.Hour)
	return &Reminder{
		FriendlyID:   "abc123",
		AuthorID:     author,
		AuthorName:   "someone",
		Origin:       "test-server",
		NameFull:     "water the plants",
		NameShort:    ShortName("water the plants"),
		CreatedAt:    created,
		DueAt:        due,
		OriginalText: "me of water the plants in 1 hour",
	}
}

func TestNewClient(t *testing.T) {
	t.Run("creates client successfully", func(t *testing.T) {
		client, _ := setupTestClient(t)
		assert.NotNil(t, client)
		assert.Equal(t, "test", client.Keys().Namespace)
	})

	t.Run("rejects empty namespace", func(t *testing.T) {
		_, err := NewClient(&redis.Options{Addr: "localhost:6379"}, Keyspace{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "namespace cannot be empty")
	})

	t.Run("rejects empty collection names", func(t *testing.T) {
		_, err := NewClient(&redis.Options{Addr: "localhost:6379"}, Keyspace{Namespace: "x"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "collection names")
	})
}

func TestPing(t *testing.T) {
	client, _ := setupTestClient(t)
	err := client.Ping(context.Background())
	assert.NoError(t, err)
}

func TestInsertFuture(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("assigns id and round-trips", func(t *testing.T) {
		r := testReminder("user-1", due)

		id, err := client.InsertFuture(ctx, r)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		_, err = uuid.Parse(id)
		assert.NoError(t, err, "assigned id should be a UUID")

		got, err := client.FindFutureByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, r.NameFull, got.NameFull)
		assert.Equal(t, r.FriendlyID, got.FriendlyID)
		assert.Equal(t, r.OriginalText, got.OriginalText)
		assert.True(t, got.DueAt.Equal(due))
		assert.False(t, got.Done)
	})

	t.Run("indexes the due instant", func(t *testing.T) {
		r := testReminder("user-2", due.Add(time.Minute))
		id, err := client.InsertFuture(ctx, r)
		require.NoError(t, err)

		all, err := client.ScanFuture(ctx)
		require.NoError(t, err)

		var found bool
		for _, got := range all {
			if got.ID == id {
				found = true
			}
		}
		assert.True(t, found, "inserted reminder should appear in the scan")
	})

	t.Run("rejects invalid reminder", func(t *testing.T) {
		r := testReminder("", due)
		_, err := client.InsertFuture(ctx, r)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid reminder")
	})
}

func TestFindFutureByFriendlyID(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r := testReminder("user-1", due)
	r.FriendlyID = "zYx9"
	_, err := client.InsertFuture(ctx, r)
	require.NoError(t, err)

	t.Run("finds by friendly id", func(t *testing.T) {
		got, err := client.FindFutureByFriendlyID(ctx, "zYx9")
		require.NoError(t, err)
		assert.Equal(t, r.ID, got.ID)
	})

	t.Run("not found for unknown id", func(t *testing.T) {
		_, err := client.FindFutureByFriendlyID(ctx, "nope")
		assert.True(t, IsNotFound(err))
	})

	t.Run("owner filter behaves like not found for others", func(t *testing.T) {
		got, err := client.FindFutureByFriendlyIDForAuthor(ctx, "zYx9", "user-1")
		require.NoError(t, err)
		assert.Equal(t, r.ID, got.ID)

		_, err = client.FindFutureByFriendlyIDForAuthor(ctx, "zYx9", "somebody-else")
		assert.True(t, IsNotFound(err))
	})
}

func TestScanFutureOrdering(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Insert out of due order.
	for _, offset := range []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour} {
		r := testReminder("user-1", base.Add(offset))
		_, err := client.InsertFuture(ctx, r)
		require.NoError(t, err)
	}

	all, err := client.ScanFuture(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].DueAt.Before(all[1].DueAt))
	assert.True(t, all[1].DueAt.Before(all[2].DueAt))

	limited, err := client.ListUpcoming(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.True(t, limited[0].DueAt.Equal(base.Add(time.Hour)))
}

func TestFindFutureForUser(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var lastID string
	for i, offset := range []time.Duration{4 * time.Hour, time.Hour, 3 * time.Hour} {
		r := testReminder("user-1", base.Add(offset))
		id, err := client.InsertFuture(ctx, r)
		require.NoError(t, err)
		require.NoError(t, client.UpsertProfileOnCreate(ctx, "user-1", id))
		if i == 0 {
			lastID = id
		}
	}

	// Another user's reminder must not show up.
	other := testReminder("user-2", base)
	otherID, err := client.InsertFuture(ctx, other)
	require.NoError(t, err)
	require.NoError(t, client.UpsertProfileOnCreate(ctx, "user-2", otherID))

	mine, err := client.FindFutureForUser(ctx, "user-1", 8)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.True(t, mine[0].DueAt.Before(mine[1].DueAt))
	assert.Equal(t, lastID, mine[2].ID, "latest due reminder sorts last")

	capped, err := client.FindFutureForUser(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestArchiveAndDelete(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r := testReminder("user-1", due)
	id, err := client.InsertFuture(ctx, r)
	require.NoError(t, err)

	t.Run("archive copies with done=true and keeps the future copy", func(t *testing.T) {
		require.NoError(t, client.Archive(ctx, r))

		past, err := client.FindPastByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, past.Done)
		assert.Equal(t, r.NameFull, past.NameFull)

		// Future copy still there until DeleteFuture - two separate calls.
		future, err := client.FindFutureByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, future.Done)
	})

	t.Run("delete removes document and index entry", func(t *testing.T) {
		require.NoError(t, client.DeleteFuture(ctx, id))

		_, err := client.FindFutureByID(ctx, id)
		assert.True(t, IsNotFound(err))

		all, err := client.ScanFuture(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("deleting twice reports zero affected", func(t *testing.T) {
		err := client.DeleteFuture(ctx, id)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found in future-set")
	})
}

func TestFindAnyByID(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r := testReminder("user-1", due)
	id, err := client.InsertFuture(ctx, r)
	require.NoError(t, err)

	got, err := client.FindAnyByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	// Move it to the past-set; FindAnyByID should still resolve it.
	require.NoError(t, client.Archive(ctx, r))
	require.NoError(t, client.DeleteFuture(ctx, id))

	got, err = client.FindAnyByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Done)

	_, err = client.FindAnyByID(ctx, uuid.New().String())
	assert.True(t, IsNotFound(err))
}

func TestProfileLifecycle(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("absent profile reads as not found", func(t *testing.T) {
		_, err := client.GetProfile(ctx, "nobody")
		assert.True(t, IsNotFound(err))
	})

	t.Run("create increments and appends", func(t *testing.T) {
		require.NoError(t, client.UpsertProfileOnCreate(ctx, "user-1", "id-1"))
		require.NoError(t, client.UpsertProfileOnCreate(ctx, "user-1", "id-2"))

		p, err := client.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), p.FutureCount)
		assert.Equal(t, int64(0), p.PastCount)
		assert.Equal(t, []string{"id-1", "id-2"}, p.FutureIDs)
		assert.Equal(t, []string{"id-1", "id-2"}, p.AllIDs)
	})

	t.Run("archive moves count and pulls the future id only", func(t *testing.T) {
		require.NoError(t, client.UpdateProfileOnArchive(ctx, "user-1", "id-1"))

		p, err := client.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), p.FutureCount)
		assert.Equal(t, int64(1), p.PastCount)
		assert.Equal(t, []string{"id-2"}, p.FutureIDs)
		assert.Equal(t, []string{"id-1", "id-2"}, p.AllIDs, "history keeps archived ids")
	})

	t.Run("archive of unknown id reports zero affected", func(t *testing.T) {
		err := client.UpdateProfileOnArchive(ctx, "user-1", "id-1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not in future list")
	})

	t.Run("cancel pulls the id from both lists", func(t *testing.T) {
		require.NoError(t, client.UpdateProfileOnCancel(ctx, "user-1", "id-2"))

		p, err := client.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), p.FutureCount)
		assert.Empty(t, p.FutureIDs)
		assert.Equal(t, []string{"id-1"}, p.AllIDs, "cancelled ids leave the history")
	})
}

func TestHistoryAt(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	for _, id := range []string{"id-1", "id-2", "id-3"} {
		require.NoError(t, client.UpsertProfileOnCreate(ctx, "user-1", id))
	}

	newest, err := client.HistoryAt(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.Equal(t, "id-3", newest)

	oldest, err := client.HistoryAt(ctx, "user-1", 3)
	require.NoError(t, err)
	assert.Equal(t, "id-1", oldest)

	_, err = client.HistoryAt(ctx, "user-1", 4)
	assert.True(t, IsNotFound(err))

	_, err = client.HistoryAt(ctx, "user-1", 0)
	assert.Error(t, err)
}
