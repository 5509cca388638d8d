package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"TokenBoard/internal/model"
)

type tokenInfoOutput struct {
	Body struct {
		Tokens []model.TokenInfo `json:"tokens"`
	}
}

func registerMarketHandlers(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{OperationID: "trending", Method: http.MethodGet, Path: "/api/v1/trending", Summary: "Trending tokens from the market data source", Tags: []string{"Market"}},
		func(ctx context.Context, input *struct{}) (*tokenInfoOutput, error) {
			out := &tokenInfoOutput{}
			out.Body.Tokens = svc.Trending(ctx)
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "search", Method: http.MethodGet, Path: "/api/v1/search", Summary: "Search tokens by name or symbol", Tags: []string{"Market"}},
		func(ctx context.Context, input *struct {
			Query string `query:"q" maxLength:"100"`
		}) (*tokenInfoOutput, error) {
			out := &tokenInfoOutput{}
			out.Body.Tokens = svc.Search(ctx, input.Query)
			return out, nil
		})

	type healthOutput struct {
		Body struct {
			Status      string    `json:"status"`
			Tokens      int       `json:"tokens"`
			Subscribers int       `json:"subscribers"`
			Time        time.Time `json:"time"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/api/v1/health", Summary: "Health check", Tags: []string{"System"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			tokens, err := svc.List(ctx, "")
			if err != nil {
				return nil, mapErr(err)
			}
			out := &healthOutput{}
			out.Body.Status = "ok"
			out.Body.Tokens = len(tokens)
			out.Body.Subscribers = svc.Events().SubscriberCount()
			out.Body.Time = time.Now().UTC()
			return out, nil
		})
}
