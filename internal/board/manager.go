// Package board owns the token list and every operation that changes it.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"TokenBoard/internal/calculator"
	"TokenBoard/internal/collector"
	"TokenBoard/internal/events"
	"TokenBoard/internal/model"
	"TokenBoard/internal/recorder"
	"TokenBoard/internal/series"
	"TokenBoard/internal/store"
)

// Options holds the optional collaborators of a Manager.
type Options struct {
	// Reactions is the allowed reaction set; defaults to model.DefaultReactions.
	Reactions []model.ReactionKind
	// Validator, when set, vets new addresses before they are added.
	Validator collector.Validator
	Recorder  recorder.Recorder
	Broker    *events.Broker
	Generator *series.Generator
	Logger    *slog.Logger
	Now       func() time.Time
}

// Manager handles board operations with concurrency safety. Every mutation
// is saved wholesale through the repository before it becomes visible.
type Manager struct {
	mu     sync.Mutex
	tokens []model.Token

	repo      store.Repository
	collector *collector.Collector
	validator collector.Validator
	recorder  recorder.Recorder
	broker    *events.Broker
	generator *series.Generator
	reactions map[model.ReactionKind]bool
	order     []model.ReactionKind
	logger    *slog.Logger
	now       func() time.Time
}

// NewManager creates a Manager, loading the board from the repository.
func NewManager(ctx context.Context, repo store.Repository, coll *collector.Collector, opts Options) (*Manager, error) {
	tokens, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}

	m := &Manager{
		tokens:    tokens,
		repo:      repo,
		collector: coll,
		validator: opts.Validator,
		recorder:  opts.Recorder,
		broker:    opts.Broker,
		generator: opts.Generator,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if m.recorder == nil {
		m.recorder = recorder.NewNoopRecorder()
	}
	if m.broker == nil {
		m.broker = events.NewBroker()
	}
	if m.generator == nil {
		m.generator = series.NewGenerator()
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("component", "board")
	if m.now == nil {
		m.now = time.Now
	}

	kinds := opts.Reactions
	if len(kinds) == 0 {
		kinds = model.DefaultReactions
	}
	m.reactions = make(map[model.ReactionKind]bool, len(kinds))
	for _, k := range kinds {
		if !m.reactions[k] {
			m.reactions[k] = true
			m.order = append(m.order, k)
		}
	}

	m.logger.Info("board loaded", "tokens", len(tokens), "reactions", m.order)
	return m, nil
}

// Events returns the broker board changes are published on.
func (m *Manager) Events() *events.Broker { return m.broker }

// Reactions returns the configured reaction kinds in order.
func (m *Manager) Reactions() []model.ReactionKind {
	out := make([]model.ReactionKind, len(m.order))
	copy(out, m.order)
	return out
}

// AddToken validates an address, fetches its snapshot and appends it.
func (m *Manager) AddToken(ctx context.Context, address, description string) (*model.Token, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if m.contains(addr) {
		return nil, ErrDuplicateToken
	}

	md := collector.Describe(addr)
	tok := model.Token{
		Address:     addr,
		Name:        md.Name,
		Symbol:      md.Symbol,
		Image:       md.LogoURL,
		Description: strings.TrimSpace(description),
		Reactions:   make(map[model.ReactionKind]int, len(m.order)),
	}
	for _, k := range m.order {
		tok.Reactions[k] = 0
	}

	if m.validator != nil {
		info, err := m.validator.ValidateToken(ctx, addr)
		if err != nil {
			if errors.Is(err, collector.ErrTokenNotFound) {
				return nil, ErrTokenNotFound
			}
			return nil, fmt.Errorf("validate token: %w", err)
		}
		if !info.Verified {
			m.logger.Warn("adding unverified token", "address", addr, "symbol", info.Symbol)
		}
		tok.Verified = info.Verified
		if info.Name != "" {
			tok.Name = info.Name
		}
		if info.Symbol != "" {
			tok.Symbol = info.Symbol
		}
		if info.Image != "" {
			tok.Image = info.Image
		}
	}

	snap, err := m.collector.Snapshot(ctx, addr)
	if err != nil {
		return nil, err
	}
	tok.ApplySnapshot(*snap)
	tok.AddedAt = m.now()
	if tok.UpdatedAt.IsZero() {
		tok.UpdatedAt = tok.AddedAt
	}

	m.mu.Lock()
	if indexOf(m.tokens, addr) >= 0 {
		m.mu.Unlock()
		return nil, ErrDuplicateToken
	}
	if err := m.repo.Append(ctx, tok); err != nil {
		m.mu.Unlock()
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateToken
		}
		return nil, fmt.Errorf("append token: %w", err)
	}
	m.tokens = append(m.tokens, tok)
	m.mu.Unlock()

	m.logger.Info("token added", "address", addr, "symbol", tok.Symbol, "price", tok.Price, "placeholder", snap.Placeholder)
	m.record(&recorder.EngagementEvent{Address: addr, EventType: recorder.EngagementAdded, Detail: tok.Symbol})
	if err := m.recorder.RecordSnapshot(*snap); err != nil {
		m.logger.Error("failed to record snapshot", "address", addr, "error", err)
	}
	m.broker.Publish(events.NewEvent(events.TypeTokenAdded, tok))

	out := tok.Clone()
	return &out, nil
}

// React adds one reaction of the given kind.
func (m *Manager) React(ctx context.Context, address string, kind model.ReactionKind) (*model.Token, error) {
	kind = model.ReactionKind(strings.ToLower(strings.TrimSpace(string(kind))))
	if !m.reactions[kind] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReaction, kind)
	}
	return m.update(ctx, address, func(t *model.Token) *recorder.EngagementEvent {
		if t.Reactions == nil {
			t.Reactions = make(map[model.ReactionKind]int)
		}
		t.Reactions[kind]++
		return &recorder.EngagementEvent{EventType: recorder.EngagementReaction, Detail: string(kind), Value: t.Reactions[kind]}
	})
}

// Vote adds one vote.
func (m *Manager) Vote(ctx context.Context, address string) (*model.Token, error) {
	return m.update(ctx, address, func(t *model.Token) *recorder.EngagementEvent {
		t.Votes++
		return &recorder.EngagementEvent{EventType: recorder.EngagementVote, Value: t.Votes}
	})
}

// TogglePin flips the pinned flag.
func (m *Manager) TogglePin(ctx context.Context, address string) (*model.Token, error) {
	return m.update(ctx, address, func(t *model.Token) *recorder.EngagementEvent {
		t.Pinned = !t.Pinned
		return &recorder.EngagementEvent{EventType: recorder.EngagementPin, Value: boolValue(t.Pinned)}
	})
}

// ToggleFavorite flips the favorite flag.
func (m *Manager) ToggleFavorite(ctx context.Context, address string) (*model.Token, error) {
	return m.update(ctx, address, func(t *model.Token) *recorder.EngagementEvent {
		t.Favorite = !t.Favorite
		return &recorder.EngagementEvent{EventType: recorder.EngagementFavorite, Value: boolValue(t.Favorite)}
	})
}

// update applies fn to a copy of the board, saves it and only then swaps it in.
func (m *Manager) update(ctx context.Context, address string, fn func(t *model.Token) *recorder.EngagementEvent) (*model.Token, error) {
	addr := strings.TrimSpace(address)

	m.mu.Lock()
	i := indexOf(m.tokens, addr)
	if i < 0 {
		m.mu.Unlock()
		return nil, ErrTokenNotFound
	}
	next := cloneAll(m.tokens)
	evt := fn(&next[i])
	if err := m.repo.Save(ctx, next); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("save board: %w", err)
	}
	m.tokens = next
	tok := next[i].Clone()
	m.mu.Unlock()

	if evt != nil {
		evt.Address = addr
		m.record(evt)
	}
	m.broker.Publish(events.NewEvent(events.TypeTokenUpdated, tok))
	return &tok, nil
}

// Remove deletes a token from the board.
func (m *Manager) Remove(ctx context.Context, address string) error {
	addr := strings.TrimSpace(address)

	m.mu.Lock()
	i := indexOf(m.tokens, addr)
	if i < 0 {
		m.mu.Unlock()
		return ErrTokenNotFound
	}
	removed := m.tokens[i].Clone()
	next := make([]model.Token, 0, len(m.tokens)-1)
	next = append(next, m.tokens[:i]...)
	next = append(next, m.tokens[i+1:]...)
	if err := m.repo.Save(ctx, next); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("save board: %w", err)
	}
	m.tokens = next
	m.mu.Unlock()

	m.logger.Info("token removed", "address", addr)
	m.record(&recorder.EngagementEvent{Address: addr, EventType: recorder.EngagementRemoved, Detail: removed.Symbol})
	m.broker.Publish(events.NewEvent(events.TypeTokenRemoved, removed))
	return nil
}

// Get returns a copy of one token.
func (m *Manager) Get(_ context.Context, address string) (*model.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := indexOf(m.tokens, strings.TrimSpace(address))
	if i < 0 {
		return nil, ErrTokenNotFound
	}
	tok := m.tokens[i].Clone()
	return &tok, nil
}

// List returns the board filtered and ordered by f.
func (m *Manager) List(_ context.Context, f Filter) ([]model.Token, error) {
	f, err := ParseFilter(string(f))
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	tokens := cloneAll(m.tokens)
	m.mu.Unlock()
	return apply(tokens, f), nil
}

// Chart synthesizes chart data for a token from its current snapshot. When
// no valid snapshot exists the result is empty and the error is nil.
func (m *Manager) Chart(ctx context.Context, address, timeframe string) (model.ChartData, error) {
	tf, ok := series.ParseTimeframe(timeframe)
	if !ok {
		tf = series.DefaultTimeframe
	}
	addr, err := NormalizeAddress(address)
	if err != nil {
		return model.NewChartData(string(tf), nil), err
	}

	snap, err := m.collector.Snapshot(ctx, addr)
	if err != nil {
		if tok, getErr := m.Get(ctx, addr); getErr == nil && tok.Price > 0 {
			s := tok.Snapshot()
			snap = &s
		} else {
			m.logger.Warn("chart unavailable", "address", addr, "error", err)
			return model.NewChartData(string(tf), nil), nil
		}
	}

	pts, err := m.generator.Generate(*snap, tf, m.now())
	if err != nil {
		m.logger.Warn("chart generation failed", "address", addr, "error", err)
		return model.NewChartData(string(tf), nil), nil
	}

	cd := model.NewChartData(string(tf), pts)
	if sum, err := calculator.Summarize(pts); err == nil {
		cd.Summary = sum
	}
	return cd, nil
}

// Refresh re-fetches every token's snapshot and saves the board. Tokens
// whose fetch fails keep their previous values.
func (m *Manager) Refresh(ctx context.Context) (int, error) {
	m.mu.Lock()
	addrs := make([]string, len(m.tokens))
	for i, t := range m.tokens {
		addrs[i] = t.Address
	}
	m.mu.Unlock()

	fresh := make(map[string]model.PriceSnapshot, len(addrs))
	for _, a := range addrs {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		snap, err := m.collector.Snapshot(ctx, a)
		if err != nil {
			m.logger.Warn("refresh skipped token", "address", a, "error", err)
			continue
		}
		fresh[a] = *snap
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	m.mu.Lock()
	next := cloneAll(m.tokens)
	var updated []model.Token
	for i := range next {
		if snap, ok := fresh[next[i].Address]; ok {
			next[i].ApplySnapshot(snap)
			if next[i].UpdatedAt.IsZero() {
				next[i].UpdatedAt = m.now()
			}
			updated = append(updated, next[i].Clone())
		}
	}
	if err := m.repo.Save(ctx, next); err != nil {
		m.mu.Unlock()
		return 0, fmt.Errorf("save board: %w", err)
	}
	m.tokens = next
	m.mu.Unlock()

	for _, t := range updated {
		if err := m.recorder.RecordSnapshot(fresh[t.Address]); err != nil {
			m.logger.Error("failed to record snapshot", "address", t.Address, "error", err)
		}
		m.broker.Publish(events.NewEvent(events.TypeTokenUpdated, t))
	}
	m.logger.Info("board refreshed", "updated", len(updated), "total", len(addrs))
	return len(updated), nil
}

// Trending returns the market's trending tokens.
func (m *Manager) Trending(ctx context.Context) []model.TokenInfo {
	return m.collector.Trending(ctx)
}

// Search prefers verified matches from the validator and falls back to the
// market data source.
func (m *Manager) Search(ctx context.Context, query string) []model.TokenInfo {
	q := strings.TrimSpace(query)
	if q == "" {
		return []model.TokenInfo{}
	}
	if m.validator != nil {
		res, err := m.validator.SearchVerified(ctx, q)
		if err == nil && len(res) > 0 {
			return res
		}
		if err != nil {
			m.logger.Warn("verified search failed", "query", q, "error", err)
		}
	}
	return m.collector.Search(ctx, q)
}

// History returns recorded price history for a token on the board.
func (m *Manager) History(ctx context.Context, address string, limit int) ([]model.PriceSnapshot, []recorder.EngagementEvent, error) {
	tok, err := m.Get(ctx, address)
	if err != nil {
		return nil, nil, err
	}
	prices, err := m.recorder.History(tok.Address, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("price history: %w", err)
	}
	engagements, err := m.recorder.Engagements(tok.Address, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("engagement history: %w", err)
	}
	return prices, engagements, nil
}

func (m *Manager) record(evt *recorder.EngagementEvent) {
	if evt.At.IsZero() {
		evt.At = m.now()
	}
	if err := m.recorder.RecordEngagement(evt); err != nil {
		m.logger.Error("failed to record engagement", "address", evt.Address, "type", evt.EventType, "error", err)
	}
}

func (m *Manager) contains(address string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return indexOf(m.tokens, address) >= 0
}

func indexOf(tokens []model.Token, address string) int {
	for i := range tokens {
		if tokens[i].Address == address {
			return i
		}
	}
	return -1
}

func cloneAll(tokens []model.Token) []model.Token {
	out := make([]model.Token, len(tokens))
	for i, t := range tokens {
		out[i] = t.Clone()
	}
	return out
}

func boolValue(b bool) int {
	if b {
		return 1
	}
	return 0
}
