package recorder

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenBoard/internal/model"
	"TokenBoard/internal/store"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorderHistory(t *testing.T) {
	r := openTestRecorder(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, r.RecordSnapshot(model.PriceSnapshot{
			Address:   "a",
			Price:     float64(i + 1),
			MarketCap: 100,
			Source:    "coingecko",
			FetchedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, r.RecordSnapshot(model.PriceSnapshot{Address: "b", Price: 9, Placeholder: true, FetchedAt: base}))

	hist, err := r.History("a", 3)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, 5.0, hist[0].Price)
	assert.Equal(t, 3.0, hist[2].Price)
	assert.Equal(t, "coingecko", hist[0].Source)
	assert.True(t, hist[0].FetchedAt.Equal(base.Add(4*time.Hour)))

	other, err := r.History("b", 0)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.True(t, other[0].Placeholder)

	none, err := r.History("missing", 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSQLiteRecorderEngagements(t *testing.T) {
	r := openTestRecorder(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.RecordEngagement(&EngagementEvent{Address: "a", EventType: EngagementAdded, At: base}))
	require.NoError(t, r.RecordEngagement(&EngagementEvent{Address: "a", EventType: EngagementReaction, Detail: "rocket", Value: 1, At: base.Add(time.Second)}))
	require.NoError(t, r.RecordEngagement(&EngagementEvent{Address: "a", EventType: EngagementVote, Value: 1, At: base.Add(2 * time.Second)}))

	evts, err := r.Engagements("a", 10)
	require.NoError(t, err)
	require.Len(t, evts, 3)
	assert.Equal(t, EngagementVote, evts[0].EventType)
	assert.Equal(t, "rocket", evts[1].Detail)
	assert.Equal(t, EngagementAdded, evts[2].EventType)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordSnapshot(model.PriceSnapshot{Address: "a"}))
	assert.NoError(t, r.RecordEngagement(&EngagementEvent{Address: "a"}))
	hist, err := r.History("a", 5)
	assert.NoError(t, err)
	assert.Empty(t, hist)
	assert.NoError(t, r.Close())
}

func TestSQLiteRecorderSharesFileWithBoardStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenboard.db")
	r, err := NewSQLiteRecorder(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	st, err := store.NewSQLiteStore(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	const rounds = 50
	var wg sync.WaitGroup
	errs := make(chan error, 3*rounds)

	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			tokens := []model.Token{
				{Address: "a", Votes: i, AddedAt: at, UpdatedAt: at},
				{Address: "b", Votes: i + 1, AddedAt: at, UpdatedAt: at},
			}
			errs <- st.Save(context.Background(), tokens)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			errs <- r.RecordEngagement(&EngagementEvent{Address: "a", EventType: EngagementVote, Value: 1, At: at.Add(time.Duration(i) * time.Second)})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			errs <- r.RecordSnapshot(model.PriceSnapshot{Address: "a", Price: float64(i + 1), FetchedAt: at.Add(time.Duration(i) * time.Minute)})
		}
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	evts, err := r.Engagements("a", 0)
	require.NoError(t, err)
	assert.Len(t, evts, rounds)
	hist, err := r.History("a", rounds)
	require.NoError(t, err)
	assert.Len(t, hist, rounds)
	tokens, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, tokens, 2)
}

func TestWithBusyTimeout(t *testing.T) {
	assert.Equal(t, "x.db?_pragma=busy_timeout(5000)", withBusyTimeout("x.db"))
	assert.Equal(t, "file:x.db?mode=rwc&_pragma=busy_timeout(5000)", withBusyTimeout("file:x.db?mode=rwc"))
}
