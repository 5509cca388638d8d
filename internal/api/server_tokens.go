package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"TokenBoard/internal/board"
	"TokenBoard/internal/model"
	"TokenBoard/internal/recorder"
)

func registerTokenHandlers(api huma.API, svc Service) {
	type listTokensOutput struct {
		Body struct {
			Filter string        `json:"filter"`
			Tokens []model.Token `json:"tokens"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-tokens", Method: http.MethodGet, Path: "/api/v1/tokens", Summary: "List board tokens", Tags: []string{"Tokens"}},
		func(ctx context.Context, input *struct {
			Filter string `query:"filter" doc:"all, popular, gainers, trending, recent or favorites"`
		}) (*listTokensOutput, error) {
			f, err := board.ParseFilter(input.Filter)
			if err != nil {
				return nil, mapErr(err)
			}
			tokens, err := svc.List(ctx, f)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listTokensOutput{}
			out.Body.Filter = string(f)
			out.Body.Tokens = tokens
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "add-token", Method: http.MethodPost, Path: "/api/v1/tokens", Summary: "Add a token to the board", Tags: []string{"Tokens"}, DefaultStatus: http.StatusCreated},
		func(ctx context.Context, input *struct {
			Body struct {
				Address     string `json:"address" required:"true"`
				Description string `json:"description,omitempty" maxLength:"500"`
			}
		}) (*tokenOutput, error) {
			tok, err := svc.AddToken(ctx, input.Body.Address, input.Body.Description)
			if err != nil {
				return nil, mapErr(err)
			}
			return &tokenOutput{Body: tok}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-token", Method: http.MethodGet, Path: "/api/v1/tokens/{address}", Summary: "Get a token", Tags: []string{"Tokens"}},
		func(ctx context.Context, input *addressInput) (*tokenOutput, error) {
			tok, err := svc.Get(ctx, input.Address)
			if err != nil {
				return nil, mapErr(err)
			}
			return &tokenOutput{Body: tok}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "remove-token", Method: http.MethodDelete, Path: "/api/v1/tokens/{address}", Summary: "Remove a token from the board", Tags: []string{"Tokens"}, DefaultStatus: http.StatusNoContent},
		func(ctx context.Context, input *addressInput) (*struct{}, error) {
			if err := svc.Remove(ctx, input.Address); err != nil {
				return nil, mapErr(err)
			}
			return nil, nil
		})

	type chartOutput struct {
		Body model.ChartData
	}
	huma.Register(api, huma.Operation{OperationID: "get-chart", Method: http.MethodGet, Path: "/api/v1/tokens/{address}/chart", Summary: "Synthesized price chart", Tags: []string{"Tokens"}},
		func(ctx context.Context, input *struct {
			Address   string `path:"address"`
			Timeframe string `query:"timeframe" default:"7d" doc:"24h, 7d, 30d or 1y"`
		}) (*chartOutput, error) {
			cd, err := svc.Chart(ctx, input.Address, input.Timeframe)
			if err != nil {
				return nil, mapErr(err)
			}
			return &chartOutput{Body: cd}, nil
		})

	type historyOutput struct {
		Body struct {
			Address     string                     `json:"address"`
			Prices      []model.PriceSnapshot      `json:"prices"`
			Engagements []recorder.EngagementEvent `json:"engagements"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-history", Method: http.MethodGet, Path: "/api/v1/tokens/{address}/history", Summary: "Recorded price and engagement history", Tags: []string{"Tokens"}},
		func(ctx context.Context, input *struct {
			Address string `path:"address"`
			Limit   int    `query:"limit" default:"100" minimum:"1" maximum:"1000"`
		}) (*historyOutput, error) {
			prices, engagements, err := svc.History(ctx, input.Address, input.Limit)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &historyOutput{}
			out.Body.Address = input.Address
			out.Body.Prices = prices
			out.Body.Engagements = engagements
			return out, nil
		})
}

func registerEngagementHandlers(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{OperationID: "add-reaction", Method: http.MethodPost, Path: "/api/v1/tokens/{address}/reactions", Summary: "React to a token", Tags: []string{"Engagement"}},
		func(ctx context.Context, input *struct {
			Address string `path:"address"`
			Body    struct {
				Kind string `json:"kind" required:"true" doc:"Reaction name, e.g. rocket"`
			}
		}) (*tokenOutput, error) {
			tok, err := svc.React(ctx, input.Address, model.ReactionKind(input.Body.Kind))
			if err != nil {
				return nil, mapErr(err)
			}
			return &tokenOutput{Body: tok}, nil
		})

	toggles := []struct {
		id, path, summary string
		fn                func(ctx context.Context, address string) (*model.Token, error)
	}{
		{"vote", "votes", "Upvote a token", svc.Vote},
		{"toggle-pin", "pin", "Pin or unpin a token", svc.TogglePin},
		{"toggle-favorite", "favorite", "Favorite or unfavorite a token", svc.ToggleFavorite},
	}
	for _, t := range toggles {
		fn := t.fn
		huma.Register(api, huma.Operation{OperationID: t.id, Method: http.MethodPost, Path: "/api/v1/tokens/{address}/" + t.path, Summary: t.summary, Tags: []string{"Engagement"}},
			func(ctx context.Context, input *addressInput) (*tokenOutput, error) {
				tok, err := fn(ctx, input.Address)
				if err != nil {
					return nil, mapErr(err)
				}
				return &tokenOutput{Body: tok}, nil
			})
	}

	type reactionsOutput struct {
		Body struct {
			Reactions []model.ReactionKind `json:"reactions"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-reactions", Method: http.MethodGet, Path: "/api/v1/reactions", Summary: "Configured reaction set", Tags: []string{"Engagement"}},
		func(ctx context.Context, input *struct{}) (*reactionsOutput, error) {
			out := &reactionsOutput{}
			out.Body.Reactions = svc.Reactions()
			return out, nil
		})
}
