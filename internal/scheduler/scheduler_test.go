package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenBoard/internal/board"
	"TokenBoard/internal/collector"
	"TokenBoard/internal/model"
	"TokenBoard/internal/series"
	"TokenBoard/internal/store"
)

const (
	bonk = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	usdc = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

func newTestScheduler(t *testing.T, sender Sender) (*Scheduler, *collector.MockFetcher) {
	t.Helper()
	ctx := context.Background()
	mock := collector.NewMockFetcher()
	mock.Set(model.PriceSnapshot{Address: bonk, Price: 0.00002, MarketCap: 1.5e9, Volume24h: 9.8e7, Change24hPercent: 12.5})
	mock.Set(model.PriceSnapshot{Address: usdc, Price: 1, MarketCap: 3e10, Volume24h: 5e9})

	mgr, err := board.NewManager(ctx, store.NewMemoryStore(), collector.NewCollector(mock, collector.Options{}),
		board.Options{Generator: series.NewSeededGenerator(1)})
	require.NoError(t, err)
	for _, a := range []string{bonk, usdc} {
		_, err := mgr.AddToken(ctx, a, "")
		require.NoError(t, err)
	}
	return NewScheduler(ctx, mgr, sender, 5, nil), mock
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(t, nil)
	require.NoError(t, s.RegisterAll("0 */5 * * * *", "0 0 9 * * *"))
	assert.Len(t, s.Cron.Entries(), 2)

	s2, _ := newTestScheduler(t, nil)
	assert.Error(t, s2.RegisterAll("*/5 * * * *", "0 0 9 * * *"))
}

func TestRunRefreshNow(t *testing.T) {
	s, mock := newTestScheduler(t, nil)
	mock.Set(model.PriceSnapshot{Address: bonk, Price: 0.00004, MarketCap: 3e9, Volume24h: 1e8, Change24hPercent: 100})

	s.RunRefreshNow()

	tok, err := s.Board.Get(context.Background(), bonk)
	require.NoError(t, err)
	assert.Equal(t, 0.00004, tok.Price)
	assert.Equal(t, 100.0, tok.Change24h)
}

func TestDigestTaskSends(t *testing.T) {
	sender := &fakeSender{}
	s, _ := newTestScheduler(t, sender)
	s.DigestSize = 1

	s.digestTask()

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "TokenBoard digest")
	assert.Contains(t, sender.sent[0], "1. ")
	assert.NotContains(t, sender.sent[0], "2. ")
}

func TestDigestTaskWithoutNotifier(t *testing.T) {
	s, _ := newTestScheduler(t, nil)
	assert.NotPanics(t, s.digestTask)
}

func TestDigestTaskSendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram down")}
	s, _ := newTestScheduler(t, sender)
	assert.NotPanics(t, s.digestTask)
	assert.Empty(t, sender.sent)
}

func TestHandleCommand(t *testing.T) {
	s, _ := newTestScheduler(t, nil)
	ctx := context.Background()

	top := s.HandleCommand(ctx, "top", "1")
	assert.Contains(t, top, "1. ")
	assert.NotContains(t, top, "2. ")

	all := s.HandleCommand(ctx, "top", "")
	assert.Contains(t, all, "BONK")
	assert.Contains(t, all, "USDC")

	tok := s.HandleCommand(ctx, "token", bonk)
	assert.Contains(t, tok, "Trend score")
	assert.Contains(t, tok, bonk)

	assert.Equal(t, "Token not found on the board.", s.HandleCommand(ctx, "token", "So11111111111111111111111111111111111111112"))
	assert.Contains(t, s.HandleCommand(ctx, "token", ""), "Usage")

	chart := s.HandleCommand(ctx, "chart", bonk+" 24h")
	assert.Contains(t, chart, "BONK")
	assert.Contains(t, chart, "Points: 25")

	assert.Equal(t, "Invalid token address.", s.HandleCommand(ctx, "chart", "nope"))
	assert.Contains(t, s.HandleCommand(ctx, "chart", ""), "Usage")

	assert.Contains(t, s.HandleCommand(ctx, "help", ""), "/top")
	assert.Contains(t, s.HandleCommand(ctx, "unknown", ""), "Available commands")
}
