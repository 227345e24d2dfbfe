package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nudgebot/nudge/internal/notify"
	"github.com/nudgebot/nudge/internal/testutil"
	"github.com/nudgebot/nudge/pkg/remindstore"
)

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func setupEngine(t *testing.T) (*Engine, *remindstore.Client, *testutil.NotifyRecorder) {
	t.Helper()
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	store, err := remindstore.NewClient(&redis.Options{Addr: mr.Addr()}, remindstore.DefaultKeyspace("test"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	recorder := &testutil.NotifyRecorder{}
	engine := New(store, recorder, time.UTC, 10*time.Second, "reminders", "ops")
	engine.now = func() time.Time { return testNow }
	return engine, store, recorder
}

func seedReminder(t *testing.T, store *remindstore.Client, author, name string, due time.Time) *remindstore.Reminder {
	t.Helper()
	ctx := context.Background()
	r := &remindstore.Reminder{
		FriendlyID: uuid.NewString()[:8],
		AuthorID:   author,
		AuthorName: "pat",
		NameFull:   name,
		NameShort:  remindstore.ShortName(name),
		CreatedAt:  due.Add(-time.Hour),
		DueAt:      due,
	}
	id, err := store.InsertFuture(ctx, r)
	require.NoError(t, err)
	require.NoError(t, store.UpsertProfileOnCreate(ctx, author, id))
	return r
}

func TestRunCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing due", func(t *testing.T) {
		engine, store, recorder := setupEngine(t)
		seedReminder(t, store, "user-1", "later", testNow.Add(time.Hour))

		engine.RunCycle(ctx)

		assert.Empty(t, recorder.Messages())
		remaining, err := store.ScanFuture(ctx)
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})

	t.Run("delivers due reminders and archives them", func(t *testing.T) {
		engine, store, recorder := setupEngine(t)
		due := seedReminder(t, store, "user-1", "water the plants", testNow.Add(-time.Minute))
		seedReminder(t, store, "user-2", "later", testNow.Add(time.Hour))

		engine.RunCycle(ctx)

		messages := recorder.Messages()
		require.Len(t, messages, 1)
		msg := messages[0]
		assert.Equal(t, "reminders", msg.Channel)
		assert.Equal(t, "user-1", msg.Mention)
		assert.Equal(t, notify.ColorWarning, msg.Embed.Color)
		assert.Contains(t, msg.Embed.Title, "29.08.2026 11:59:00")
		assert.Contains(t, msg.Embed.Description, "water the plants")
		assert.Contains(t, msg.Embed.Description, due.FriendlyID)

		remaining, err := store.ScanFuture(ctx)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, "later", remaining[0].NameFull)

		archived, err := store.FindPastByID(ctx, due.ID)
		require.NoError(t, err)
		assert.True(t, archived.Done)

		profile, err := store.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), profile.FutureCount)
		assert.Equal(t, int64(1), profile.PastCount)
		assert.Len(t, profile.AllIDs, 1, "creation history survives delivery")
	})

	t.Run("reminder due exactly now fires", func(t *testing.T) {
		engine, store, recorder := setupEngine(t)
		seedReminder(t, store, "user-1", "on the dot", testNow)

		engine.RunCycle(ctx)

		assert.Len(t, recorder.Messages(), 1)
		remaining, err := store.ScanFuture(ctx)
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("empty name renders as dash", func(t *testing.T) {
		engine, store, recorder := setupEngine(t)
		seedReminder(t, store, "user-1", "", testNow.Add(-time.Second))

		engine.RunCycle(ctx)

		require.Len(t, recorder.Messages(), 1)
		assert.Contains(t, recorder.Messages()[0].Embed.Description, "```- ```")
	})
}

// failingStore wraps a Store and injects an archive failure.
type failingStore struct {
	Store
	archiveErr error
}

func (f *failingStore) Archive(ctx context.Context, r *remindstore.Reminder) error {
	if f.archiveErr != nil {
		return f.archiveErr
	}
	return f.Store.Archive(ctx, r)
}

func TestRunCycleFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("archive failure keeps the reminder for retry", func(t *testing.T) {
		engine, store, recorder := setupEngine(t)
		seedReminder(t, store, "user-1", "sticky", testNow.Add(-time.Minute))
		engine.store = &failingStore{Store: store, archiveErr: errors.New("redis gone")}

		engine.RunCycle(ctx)

		messages := recorder.Messages()
		require.Len(t, messages, 2, "delivery plus ops alert")
		assert.Equal(t, "reminders", messages[0].Channel)
		assert.Equal(t, "ops", messages[1].Channel)
		assert.Equal(t, notify.ColorError, messages[1].Embed.Color)
		assert.Contains(t, messages[1].Embed.Description, "failed to archive")

		remaining, err := store.ScanFuture(ctx)
		require.NoError(t, err)
		assert.Len(t, remaining, 1, "undelivered work must stay queued")

		profile, err := store.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), profile.FutureCount)
	})

	t.Run("delivery failure skips archive entirely", func(t *testing.T) {
		engine, store, recorder := setupEngine(t)
		due := seedReminder(t, store, "user-1", "undeliverable", testNow.Add(-time.Minute))
		recorder.Err = errors.New("relay down")

		engine.RunCycle(ctx)

		remaining, err := store.ScanFuture(ctx)
		require.NoError(t, err)
		assert.Len(t, remaining, 1)

		_, err = store.FindPastByID(ctx, due.ID)
		assert.True(t, remindstore.IsNotFound(err))
	})

	t.Run("second cycle retries after the store recovers", func(t *testing.T) {
		engine, store, recorder := setupEngine(t)
		seedReminder(t, store, "user-1", "sticky", testNow.Add(-time.Minute))
		broken := &failingStore{Store: store, archiveErr: errors.New("redis gone")}
		engine.store = broken

		engine.RunCycle(ctx)
		broken.archiveErr = nil
		recorder.Reset()

		engine.RunCycle(ctx)

		deliveries := 0
		for _, msg := range recorder.Messages() {
			if msg.Channel == "reminders" && strings.Contains(msg.Embed.Description, "sticky") {
				deliveries++
			}
		}
		assert.Equal(t, 1, deliveries)

		remaining, err := store.ScanFuture(ctx)
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})
}

func TestStartIsOneShot(t *testing.T) {
	engine, _, _ := setupEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, engine.Start(ctx))
	err := engine.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}
