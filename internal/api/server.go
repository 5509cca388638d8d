// Package api exposes the board over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"TokenBoard/internal/board"
	"TokenBoard/internal/collector"
	"TokenBoard/internal/events"
	"TokenBoard/internal/model"
	"TokenBoard/internal/recorder"
)

// Service is the board surface the API needs. *board.Manager implements it.
type Service interface {
	AddToken(ctx context.Context, address, description string) (*model.Token, error)
	Get(ctx context.Context, address string) (*model.Token, error)
	List(ctx context.Context, f board.Filter) ([]model.Token, error)
	Remove(ctx context.Context, address string) error
	React(ctx context.Context, address string, kind model.ReactionKind) (*model.Token, error)
	Vote(ctx context.Context, address string) (*model.Token, error)
	TogglePin(ctx context.Context, address string) (*model.Token, error)
	ToggleFavorite(ctx context.Context, address string) (*model.Token, error)
	Chart(ctx context.Context, address, timeframe string) (model.ChartData, error)
	History(ctx context.Context, address string, limit int) ([]model.PriceSnapshot, []recorder.EngagementEvent, error)
	Trending(ctx context.Context) []model.TokenInfo
	Search(ctx context.Context, query string) []model.TokenInfo
	Reactions() []model.ReactionKind
	Events() *events.Broker
}

var _ Service = (*board.Manager)(nil)

type addressInput struct {
	Address string `path:"address" doc:"Token mint address"`
}

type tokenOutput struct {
	Body *model.Token
}

// NewServer builds the HTTP handler for the board API.
func NewServer(svc Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "api")

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("TokenBoard API", "1.0.0")
	api := humachi.New(router, cfg)

	registerTokenHandlers(api, svc)
	registerEngagementHandlers(api, svc)
	registerMarketHandlers(api, svc)

	router.Get("/api/v1/stream", streamHandler(svc.Events(), logger))

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, board.ErrInvalidAddress),
		errors.Is(err, board.ErrUnknownReaction),
		errors.Is(err, board.ErrUnknownFilter):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, board.ErrTokenNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, board.ErrDuplicateToken):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, collector.ErrSnapshotUnavailable):
		return huma.Error502BadGateway(err.Error())
	}
	return huma.Error500InternalServerError(err.Error())
}
