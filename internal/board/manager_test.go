package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenBoard/internal/collector"
	"TokenBoard/internal/events"
	"TokenBoard/internal/model"
	"TokenBoard/internal/series"
	"TokenBoard/internal/store"
)

const (
	usdc = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	bonk = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	wsol = "So11111111111111111111111111111111111111112"
	jup  = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
)

type fakeValidator struct {
	infos map[string]model.TokenInfo
	err   error
}

func (f *fakeValidator) ValidateToken(_ context.Context, address string) (*model.TokenInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	info, ok := f.infos[address]
	if !ok {
		return nil, collector.ErrTokenNotFound
	}
	return &info, nil
}

func (f *fakeValidator) SearchVerified(_ context.Context, _ string) ([]model.TokenInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.TokenInfo
	for _, i := range f.infos {
		if i.Verified {
			out = append(out, i)
		}
	}
	return out, nil
}

type fixture struct {
	mgr   *Manager
	mock  *collector.MockFetcher
	repo  *store.MemoryStore
	clock time.Time
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		mock:  collector.NewMockFetcher(),
		repo:  store.NewMemoryStore(),
		clock: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, a := range []string{usdc, bonk, wsol, jup} {
		f.mock.Set(model.PriceSnapshot{Address: a, Price: 2, MarketCap: 1000, Volume24h: 100, Change24hPercent: 1})
	}
	opts.Now = func() time.Time { return f.clock }
	if opts.Generator == nil {
		opts.Generator = series.NewSeededGenerator(7)
	}
	mgr, err := NewManager(context.Background(), f.repo, collector.NewCollector(f.mock, collector.Options{}), opts)
	require.NoError(t, err)
	f.mgr = mgr
	return f
}

// add inserts a token and advances the clock so AddedAt values differ.
func (f *fixture) add(t *testing.T, addr string) *model.Token {
	t.Helper()
	tok, err := f.mgr.AddToken(context.Background(), addr, "")
	require.NoError(t, err)
	f.clock = f.clock.Add(time.Minute)
	return tok
}

func TestAddToken(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, ch := f.mgr.Events().Subscribe()

	tok, err := f.mgr.AddToken(ctx, "  "+usdc+"  ", "stable")
	require.NoError(t, err)
	assert.Equal(t, usdc, tok.Address)
	assert.Equal(t, "USDC", tok.Symbol)
	assert.Equal(t, "USD Coin", tok.Name)
	assert.Equal(t, "stable", tok.Description)
	assert.Equal(t, 2.0, tok.Price)
	assert.Equal(t, map[model.ReactionKind]int{"rocket": 0, "fire": 0, "poop": 0}, tok.Reactions)
	assert.True(t, tok.AddedAt.Equal(f.clock))

	stored, err := f.repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	evt := <-ch
	assert.Equal(t, events.TypeTokenAdded, evt.Type)
	assert.Equal(t, usdc, evt.Address)
}

func TestAddTokenUnknownMetadata(t *testing.T) {
	f := newFixture(t, Options{})
	tok := f.add(t, jup)
	assert.Equal(t, "Token JUPyiw...", tok.Name)
	assert.Equal(t, "TOKEN", tok.Symbol)
}

func TestAddTokenRejectsInvalidAddress(t *testing.T) {
	f := newFixture(t, Options{})
	for _, addr := range []string{"", "short", "0OIl" + usdc[4:], usdc + "123456789"} {
		_, err := f.mgr.AddToken(context.Background(), addr, "")
		assert.ErrorIs(t, err, ErrInvalidAddress, addr)
	}
}

func TestAddTokenRejectsDuplicate(t *testing.T) {
	f := newFixture(t, Options{})
	f.add(t, bonk)
	_, err := f.mgr.AddToken(context.Background(), bonk, "")
	assert.ErrorIs(t, err, ErrDuplicateToken)
}

func TestAddTokenValidator(t *testing.T) {
	v := &fakeValidator{infos: map[string]model.TokenInfo{
		bonk: {Address: bonk, Name: "Bonk Inu", Symbol: "BONK", Image: "b.png", Verified: true},
		jup:  {Address: jup, Name: "Jupiter", Symbol: "JUP", Verified: false},
	}}
	f := newFixture(t, Options{Validator: v})

	tok := f.add(t, bonk)
	assert.Equal(t, "Bonk Inu", tok.Name)
	assert.Equal(t, "b.png", tok.Image)
	assert.True(t, tok.Verified)

	unverified := f.add(t, jup)
	assert.False(t, unverified.Verified)
	assert.Equal(t, "JUP", unverified.Symbol)

	_, err := f.mgr.AddToken(context.Background(), wsol, "")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	v.err = errors.New("timeout")
	_, err = f.mgr.AddToken(context.Background(), usdc, "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenNotFound)
}

func TestAddTokenSnapshotUnavailable(t *testing.T) {
	f := newFixture(t, Options{})
	f.mock.Err = errors.New("down")
	_, err := f.mgr.AddToken(context.Background(), bonk, "")
	assert.ErrorIs(t, err, collector.ErrSnapshotUnavailable)

	list, _ := f.mgr.List(context.Background(), FilterAll)
	assert.Empty(t, list)
}

func TestReact(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.add(t, bonk)

	tok, err := f.mgr.React(ctx, bonk, model.ReactionRocket)
	require.NoError(t, err)
	assert.Equal(t, 1, tok.Reactions[model.ReactionRocket])

	tok, err = f.mgr.React(ctx, bonk, "ROCKET")
	require.NoError(t, err)
	assert.Equal(t, 2, tok.Reactions[model.ReactionRocket])

	_, err = f.mgr.React(ctx, bonk, "heart")
	assert.ErrorIs(t, err, ErrUnknownReaction)

	_, err = f.mgr.React(ctx, usdc, model.ReactionFire)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	stored, _ := f.repo.List(ctx)
	assert.Equal(t, 2, stored[0].Reactions[model.ReactionRocket])
}

func TestConfiguredReactionSet(t *testing.T) {
	f := newFixture(t, Options{Reactions: []model.ReactionKind{model.ReactionRocket, model.ReactionFire}})
	tok := f.add(t, bonk)
	assert.Len(t, tok.Reactions, 2)

	_, err := f.mgr.React(context.Background(), bonk, model.ReactionPoop)
	assert.ErrorIs(t, err, ErrUnknownReaction)
	assert.Equal(t, []model.ReactionKind{"rocket", "fire"}, f.mgr.Reactions())
}

func TestVotePinFavorite(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.add(t, bonk)

	tok, err := f.mgr.Vote(ctx, bonk)
	require.NoError(t, err)
	assert.Equal(t, 1, tok.Votes)

	tok, err = f.mgr.TogglePin(ctx, bonk)
	require.NoError(t, err)
	assert.True(t, tok.Pinned)
	tok, err = f.mgr.TogglePin(ctx, bonk)
	require.NoError(t, err)
	assert.False(t, tok.Pinned)

	tok, err = f.mgr.ToggleFavorite(ctx, bonk)
	require.NoError(t, err)
	assert.True(t, tok.Favorite)
}

type failingRepo struct {
	*store.MemoryStore
}

func (failingRepo) Save(context.Context, []model.Token) error { return errors.New("disk full") }

func TestMutationNotVisibleWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	repo := failingRepo{store.NewMemoryStore(model.Token{Address: bonk, Reactions: map[model.ReactionKind]int{}})}
	mgr, err := NewManager(ctx, repo, collector.NewCollector(collector.NewMockFetcher(), collector.Options{}), Options{})
	require.NoError(t, err)

	_, err = mgr.Vote(ctx, bonk)
	require.Error(t, err)

	tok, err := mgr.Get(ctx, bonk)
	require.NoError(t, err)
	assert.Equal(t, 0, tok.Votes)
}

func TestRemove(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.add(t, bonk)
	f.add(t, usdc)

	require.NoError(t, f.mgr.Remove(ctx, bonk))
	_, err := f.mgr.Get(ctx, bonk)
	assert.ErrorIs(t, err, ErrTokenNotFound)
	assert.ErrorIs(t, f.mgr.Remove(ctx, bonk), ErrTokenNotFound)

	stored, _ := f.repo.List(ctx)
	require.Len(t, stored, 1)
	assert.Equal(t, usdc, stored[0].Address)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	f.mock.Set(model.PriceSnapshot{Address: usdc, Price: 1, MarketCap: 1e9, Volume24h: 1e6, Change24hPercent: 0})
	f.mock.Set(model.PriceSnapshot{Address: bonk, Price: 1, MarketCap: 1e6, Volume24h: 1e6, Change24hPercent: 25})
	f.mock.Set(model.PriceSnapshot{Address: wsol, Price: 1, MarketCap: 1e6, Volume24h: 1e3, Change24hPercent: -8})
	f.add(t, usdc)
	f.add(t, bonk)
	f.add(t, wsol)

	for i := 0; i < 3; i++ {
		_, err := f.mgr.Vote(ctx, wsol)
		require.NoError(t, err)
	}
	_, err := f.mgr.Vote(ctx, usdc)
	require.NoError(t, err)
	_, err = f.mgr.ToggleFavorite(ctx, bonk)
	require.NoError(t, err)

	addrs := func(tokens []model.Token) []string {
		out := make([]string, len(tokens))
		for i, t := range tokens {
			out[i] = t.Address
		}
		return out
	}
	list := func(filter Filter) []string {
		tokens, err := f.mgr.List(ctx, filter)
		require.NoError(t, err)
		return addrs(tokens)
	}

	assert.Equal(t, []string{usdc, bonk, wsol}, list(FilterAll))
	assert.Equal(t, []string{usdc, bonk, wsol}, list(""))
	assert.Equal(t, []string{wsol, usdc, bonk}, list(FilterPopular))
	assert.Equal(t, []string{bonk, usdc, wsol}, list(FilterGainers))
	assert.Equal(t, []string{wsol, bonk, usdc}, list(FilterRecent))
	assert.Equal(t, []string{bonk}, list(FilterFavorites))
	assert.Equal(t, bonk, list(FilterTrending)[0])

	_, err = f.mgr.TogglePin(ctx, wsol)
	require.NoError(t, err)
	assert.Equal(t, []string{wsol, bonk, usdc}, list(FilterGainers))
	assert.Equal(t, wsol, list(FilterTrending)[0])

	_, err = f.mgr.List(ctx, "loudest")
	assert.ErrorIs(t, err, ErrUnknownFilter)
}

func TestChart(t *testing.T) {
	f := newFixture(t, Options{})
	f.mock.Set(model.PriceSnapshot{Address: bonk, Price: 0.5, MarketCap: 5e8, Volume24h: 1e6, Change24hPercent: 3})

	cd, err := f.mgr.Chart(context.Background(), bonk, "24h")
	require.NoError(t, err)
	assert.Equal(t, "24h", cd.Timeframe)
	require.Len(t, cd.Prices, 25)
	last := cd.Prices[len(cd.Prices)-1]
	assert.Equal(t, float64(f.clock.UnixMilli()), last[0])
	assert.Equal(t, 0.5, last[1])
	assert.Equal(t, 5e8, cd.MarketCaps[24][1])
	require.NotNil(t, cd.Summary)
	assert.Equal(t, 0.5, cd.Summary.Close)

	cd, err = f.mgr.Chart(context.Background(), bonk, "3w")
	require.NoError(t, err)
	assert.Equal(t, "7d", cd.Timeframe)
	assert.Len(t, cd.Prices, 169)
}

func TestChartWithoutSnapshotIsEmpty(t *testing.T) {
	f := newFixture(t, Options{})
	f.mock.Set(model.PriceSnapshot{Address: bonk, Price: 0})

	cd, err := f.mgr.Chart(context.Background(), bonk, "7d")
	require.NoError(t, err)
	assert.NotNil(t, cd.Prices)
	assert.Empty(t, cd.Prices)
	assert.Nil(t, cd.Summary)

	_, err = f.mgr.Chart(context.Background(), "nope", "7d")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestChartFallsBackToStoredPrice(t *testing.T) {
	f := newFixture(t, Options{})
	f.add(t, bonk)
	f.mock.Err = errors.New("down")

	cd, err := f.mgr.Chart(context.Background(), bonk, "30d")
	require.NoError(t, err)
	require.Len(t, cd.Prices, 181)
	assert.Equal(t, 2.0, cd.Prices[180][1])
}

func TestRefresh(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.add(t, bonk)
	f.add(t, usdc)

	f.mock.Set(model.PriceSnapshot{Address: bonk, Price: 9, MarketCap: 90, FetchedAt: f.clock})
	_, ch := f.mgr.Events().Subscribe()

	n, err := f.mgr.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tok, err := f.mgr.Get(ctx, bonk)
	require.NoError(t, err)
	assert.Equal(t, 9.0, tok.Price)
	assert.Equal(t, events.TypeTokenUpdated, (<-ch).Type)

	stored, _ := f.repo.List(ctx)
	assert.Equal(t, 9.0, stored[0].Price)
}

func TestConcurrentMutationsAreNotLost(t *testing.T) {
	f := newFixture(t, Options{Generator: series.NewGenerator()})
	ctx := context.Background()
	f.add(t, bonk)
	f.add(t, usdc)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, 4*workers)
	for i := 0; i < workers; i++ {
		wg.Add(4)
		go func() {
			defer wg.Done()
			_, err := f.mgr.Vote(ctx, bonk)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := f.mgr.React(ctx, usdc, model.ReactionRocket)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := f.mgr.Refresh(ctx)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			cd, err := f.mgr.Chart(ctx, bonk, "24h")
			if err == nil && len(cd.Prices) != series.PointCount(series.Timeframe24h)+1 {
				err = errors.New("short chart")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	b, err := f.mgr.Get(ctx, bonk)
	require.NoError(t, err)
	assert.Equal(t, workers, b.Votes)
	u, err := f.mgr.Get(ctx, usdc)
	require.NoError(t, err)
	assert.Equal(t, workers, u.Reactions[model.ReactionRocket])

	stored, err := f.repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, workers, stored[0].Votes)
	assert.Equal(t, workers, stored[1].Reactions[model.ReactionRocket])
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, Options{})
	res := f.mgr.Search(ctx, "bonk")
	require.Len(t, res, 1)
	assert.Equal(t, "BONK", res[0].Symbol)
	assert.Empty(t, f.mgr.Search(ctx, "   "))

	v := &fakeValidator{infos: map[string]model.TokenInfo{
		jup: {Address: jup, Name: "Jupiter", Symbol: "JUP", Verified: true},
	}}
	f = newFixture(t, Options{Validator: v})
	res = f.mgr.Search(ctx, "jup")
	require.Len(t, res, 1)
	assert.Equal(t, "JUP", res[0].Symbol)
}

func TestTrendingFallback(t *testing.T) {
	f := newFixture(t, Options{})
	f.mock.Err = errors.New("down")
	res := f.mgr.Trending(context.Background())
	require.Len(t, res, 2)
	assert.Equal(t, "Bitcoin", res[0].Name)
}

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress("\t" + wsol + "\n")
	require.NoError(t, err)
	assert.Equal(t, wsol, got)

	_, err = NormalizeAddress(wsol[:31])
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
