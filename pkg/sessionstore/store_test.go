package sessionstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
)

// storeCases runs the same suite over both implementations so their behavior
// cannot drift apart.
func storeCases(t *testing.T, open func(t *testing.T) Store) {
	t.Run("CreateAndGet", func(t *testing.T) {
		st := open(t)
		err := st.Create(context.Background(), &model.SessionRecord{
			ID:          "sess-1",
			CandidateID: "cand-1",
			Position:    "Backend Engineer",
		})
		require.NoError(t, err)

		rec, err := st.Get(context.Background(), "sess-1")
		require.NoError(t, err)
		require.NotNil(t, rec)
		require.Equal(t, "cand-1", rec.CandidateID)
		require.Equal(t, model.StatusScheduled, rec.Status)
		require.False(t, rec.Recording)
		require.False(t, rec.CreatedAt.IsZero())
	})

	t.Run("GetMissingIsNilNil", func(t *testing.T) {
		st := open(t)
		rec, err := st.Get(context.Background(), "nope")
		require.NoError(t, err)
		require.Nil(t, rec)
	})

	t.Run("CreateRejectsDuplicates", func(t *testing.T) {
		st := open(t)
		rec := &model.SessionRecord{ID: "sess-1"}
		require.NoError(t, st.Create(context.Background(), rec))
		require.Error(t, st.Create(context.Background(), rec))
	})

	t.Run("CreateRejectsEmptyID", func(t *testing.T) {
		st := open(t)
		require.Error(t, st.Create(context.Background(), &model.SessionRecord{}))
	})

	t.Run("CreateRejectsBogusStatus", func(t *testing.T) {
		st := open(t)
		require.Error(t, st.Create(context.Background(), &model.SessionRecord{
			ID:     "sess-1",
			Status: "limbo",
		}))
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		st := open(t)
		require.NoError(t, st.Create(context.Background(), &model.SessionRecord{ID: "sess-1"}))
		require.NoError(t, st.UpdateStatus(context.Background(), "sess-1", model.StatusInProgress))

		rec, err := st.Get(context.Background(), "sess-1")
		require.NoError(t, err)
		require.Equal(t, model.StatusInProgress, rec.Status)

		err = st.UpdateStatus(context.Background(), "ghost", model.StatusCompleted)
		require.ErrorIs(t, err, model.ErrSessionNotFound)
		require.Error(t, st.UpdateStatus(context.Background(), "sess-1", "limbo"))
	})

	t.Run("SetRecording", func(t *testing.T) {
		st := open(t)
		require.NoError(t, st.Create(context.Background(), &model.SessionRecord{ID: "sess-1"}))
		require.NoError(t, st.SetRecording(context.Background(), "sess-1", true))

		rec, err := st.Get(context.Background(), "sess-1")
		require.NoError(t, err)
		require.True(t, rec.Recording)

		require.NoError(t, st.SetRecording(context.Background(), "sess-1", false))
		rec, err = st.Get(context.Background(), "sess-1")
		require.NoError(t, err)
		require.False(t, rec.Recording)

		require.ErrorIs(t, st.SetRecording(context.Background(), "ghost", true), model.ErrSessionNotFound)
	})

	t.Run("Touch", func(t *testing.T) {
		st := open(t)
		require.NoError(t, st.Create(context.Background(), &model.SessionRecord{ID: "sess-1"}))
		require.NoError(t, st.Touch(context.Background(), "sess-1"))
		require.ErrorIs(t, st.Touch(context.Background(), "ghost"), model.ErrSessionNotFound)
	})

	t.Run("ListOrderedByCreation", func(t *testing.T) {
		st := open(t)
		for _, id := range []string{"b", "a", "c"} {
			require.NoError(t, st.Create(context.Background(), &model.SessionRecord{ID: id}))
		}
		recs, err := st.List(context.Background())
		require.NoError(t, err)
		require.Len(t, recs, 3)
		// Same creation second: falls back to id order.
		require.Equal(t, "a", recs[0].ID)
		require.Equal(t, "b", recs[1].ID)
		require.Equal(t, "c", recs[2].ID)
	})
}

func TestMemoryStore(t *testing.T) {
	fixed := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	storeCases(t, func(t *testing.T) Store {
		return NewMemoryWithClock(func() time.Time { return fixed })
	})
}

func TestSQLiteStore(t *testing.T) {
	storeCases(t, func(t *testing.T) Store {
		st, err := New(filepath.Join(t.TempDir(), "sessions.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		return st
	})
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	st := NewMemory()
	require.NoError(t, st.Create(context.Background(), &model.SessionRecord{ID: "sess-1"}))

	rec, err := st.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	rec.Status = model.StatusTerminated

	again, err := st.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, model.StatusScheduled, again.Status)
}
