// Package store persists the token board.
//
// The board is read and written wholesale: List returns every token in board
// order, Append adds one token at the end, and Save replaces the whole list.
package store

import (
	"context"
	"errors"
	"sync"

	"TokenBoard/internal/model"
)

// ErrDuplicate is returned by Append when the address is already stored.
var ErrDuplicate = errors.New("token already stored")

// Repository is the persistence boundary of the board.
type Repository interface {
	List(ctx context.Context) ([]model.Token, error)
	Append(ctx context.Context, tok model.Token) error
	Save(ctx context.Context, tokens []model.Token) error
	Close() error
}

var (
	_ Repository = (*MemoryStore)(nil)
	_ Repository = (*FileStore)(nil)
	_ Repository = (*SQLiteStore)(nil)
)

// MemoryStore keeps the board in memory. Used in tests and when no
// persistence is configured.
type MemoryStore struct {
	mu     sync.Mutex
	tokens []model.Token
}

func NewMemoryStore(seed ...model.Token) *MemoryStore {
	return &MemoryStore{tokens: cloneAll(seed)}
}

func (s *MemoryStore) List(_ context.Context) ([]model.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.tokens), nil
}

func (s *MemoryStore) Append(_ context.Context, tok model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOf(s.tokens, tok.Address) >= 0 {
		return ErrDuplicate
	}
	s.tokens = append(s.tokens, tok.Clone())
	return nil
}

func (s *MemoryStore) Save(_ context.Context, tokens []model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = cloneAll(tokens)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneAll(tokens []model.Token) []model.Token {
	out := make([]model.Token, len(tokens))
	for i, t := range tokens {
		out[i] = t.Clone()
	}
	return out
}

func indexOf(tokens []model.Token, address string) int {
	for i := range tokens {
		if tokens[i].Address == address {
			return i
		}
	}
	return -1
}
