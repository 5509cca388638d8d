package collector

import (
	"context"
	"errors"

	"TokenBoard/internal/model"
)

var (
	// ErrTokenNotFound means the upstream has no data for the identifier.
	ErrTokenNotFound = errors.New("token not found")
	// ErrSnapshotUnavailable means no snapshot could be produced for the token.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, address string) (*model.PriceSnapshot, error)
	FetchTrending(ctx context.Context) ([]model.TokenInfo, error)
	Search(ctx context.Context, query string) ([]model.TokenInfo, error)
	Name() string
}

// Validator checks that an address is a real token and returns its metadata.
type Validator interface {
	ValidateToken(ctx context.Context, address string) (*model.TokenInfo, error)
	SearchVerified(ctx context.Context, query string) ([]model.TokenInfo, error)
}
