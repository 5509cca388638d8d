package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenBoard/internal/board"
	"TokenBoard/internal/collector"
	"TokenBoard/internal/events"
	"TokenBoard/internal/model"
	"TokenBoard/internal/series"
	"TokenBoard/internal/store"
)

const (
	bonk = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	usdc = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

type testServer struct {
	*httptest.Server
	mock *collector.MockFetcher
	mgr  *board.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mock := collector.NewMockFetcher()
	mock.Set(model.PriceSnapshot{Address: bonk, Price: 0.00002, MarketCap: 1.5e9, Volume24h: 9.8e7, Change24hPercent: 12.5})
	mock.Set(model.PriceSnapshot{Address: usdc, Price: 1, MarketCap: 3e10, Volume24h: 5e9})

	mgr, err := board.NewManager(context.Background(), store.NewMemoryStore(),
		collector.NewCollector(mock, collector.Options{}),
		board.Options{Generator: series.NewSeededGenerator(3)})
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(mgr, nil))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, mock: mock, mgr: mgr}
}

func (s *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) add(t *testing.T, addr string) model.Token {
	t.Helper()
	var tok model.Token
	status := s.do(t, http.MethodPost, "/api/v1/tokens", map[string]string{"address": addr}, &tok)
	require.Equal(t, http.StatusCreated, status)
	return tok
}

func TestAddAndGetToken(t *testing.T) {
	s := newTestServer(t)

	tok := s.add(t, bonk)
	assert.Equal(t, "BONK", tok.Symbol)
	assert.Equal(t, 0.00002, tok.Price)

	var got model.Token
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/tokens/"+bonk, nil, &got))
	assert.Equal(t, bonk, got.Address)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/tokens/"+usdc, nil, nil))
}

func TestAddTokenErrors(t *testing.T) {
	s := newTestServer(t)
	s.add(t, bonk)

	assert.Equal(t, http.StatusConflict,
		s.do(t, http.MethodPost, "/api/v1/tokens", map[string]string{"address": bonk}, nil))
	assert.Equal(t, http.StatusBadRequest,
		s.do(t, http.MethodPost, "/api/v1/tokens", map[string]string{"address": "not-an-address"}, nil))

	s.mock.Err = errors.New("upstream down")
	assert.Equal(t, http.StatusBadGateway,
		s.do(t, http.MethodPost, "/api/v1/tokens", map[string]string{"address": usdc}, nil))
}

func TestEngagementEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.add(t, bonk)

	var tok model.Token
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/tokens/"+bonk+"/reactions", map[string]string{"kind": "rocket"}, &tok))
	assert.Equal(t, 1, tok.Reactions[model.ReactionRocket])

	assert.Equal(t, http.StatusBadRequest,
		s.do(t, http.MethodPost, "/api/v1/tokens/"+bonk+"/reactions", map[string]string{"kind": "heart"}, nil))

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/tokens/"+bonk+"/votes", nil, &tok))
	assert.Equal(t, 1, tok.Votes)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/tokens/"+bonk+"/pin", nil, &tok))
	assert.True(t, tok.Pinned)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/tokens/"+bonk+"/favorite", nil, &tok))
	assert.True(t, tok.Favorite)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v1/tokens/"+usdc+"/votes", nil, nil))

	var reactions struct {
		Reactions []model.ReactionKind `json:"reactions"`
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/reactions", nil, &reactions))
	assert.Equal(t, model.DefaultReactions, reactions.Reactions)
}

func TestListTokens(t *testing.T) {
	s := newTestServer(t)
	s.add(t, bonk)
	s.add(t, usdc)
	s.do(t, http.MethodPost, "/api/v1/tokens/"+usdc+"/favorite", nil, nil)

	var list struct {
		Filter string        `json:"filter"`
		Tokens []model.Token `json:"tokens"`
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/tokens", nil, &list))
	assert.Equal(t, "all", list.Filter)
	assert.Len(t, list.Tokens, 2)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/tokens?filter=Favorites", nil, &list))
	assert.Equal(t, "favorites", list.Filter)
	require.Len(t, list.Tokens, 1)
	assert.Equal(t, usdc, list.Tokens[0].Address)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/tokens?filter=hot", nil, nil))
}

func TestRemoveToken(t *testing.T) {
	s := newTestServer(t)
	s.add(t, bonk)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/v1/tokens/"+bonk, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/tokens/"+bonk, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/tokens/"+bonk, nil, nil))
}

func TestChartAndHistory(t *testing.T) {
	s := newTestServer(t)
	s.add(t, bonk)

	var cd model.ChartData
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/tokens/"+bonk+"/chart?timeframe=24h", nil, &cd))
	assert.Equal(t, "24h", cd.Timeframe)
	assert.Len(t, cd.Prices, 25)
	assert.Len(t, cd.MarketCaps, 25)
	require.NotNil(t, cd.Summary)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/tokens/"+bonk+"/chart", nil, &cd))
	assert.Equal(t, "7d", cd.Timeframe)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/tokens/bad/chart", nil, nil))

	var hist struct {
		Address     string            `json:"address"`
		Prices      []json.RawMessage `json:"prices"`
		Engagements []json.RawMessage `json:"engagements"`
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/tokens/"+bonk+"/history?limit=10", nil, &hist))
	assert.Equal(t, bonk, hist.Address)
	assert.NotNil(t, hist.Prices)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/tokens/"+usdc+"/history", nil, nil))
}

func TestMarketEndpoints(t *testing.T) {
	s := newTestServer(t)

	var res struct {
		Tokens []model.TokenInfo `json:"tokens"`
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/trending", nil, &res))
	assert.NotEmpty(t, res.Tokens)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/search?q=bonk", nil, &res))
	require.NotEmpty(t, res.Tokens)
	assert.Equal(t, "BONK", res.Tokens[0].Symbol)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/search", nil, &res))
	assert.Empty(t, res.Tokens)

	var health struct {
		Status string `json:"status"`
		Tokens int    `json:"tokens"`
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/health", nil, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 0, health.Tokens)
}

func TestStreamRelaysEvents(t *testing.T) {
	s := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/api/v1/stream?types=token.added"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	s.add(t, bonk)
	s.do(t, http.MethodPost, "/api/v1/tokens/"+bonk+"/votes", nil, nil)
	s.add(t, usdc)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var first, second events.Event
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))

	assert.Equal(t, events.TypeTokenAdded, first.Type)
	assert.Equal(t, bonk, first.Address)
	require.NotNil(t, first.Token)
	assert.Equal(t, "BONK", first.Token.Symbol)
	assert.Equal(t, events.TypeTokenAdded, second.Type)
	assert.Equal(t, usdc, second.Address)
}

func TestMapErr(t *testing.T) {
	assert.Nil(t, mapErr(nil))
	assert.Error(t, mapErr(errors.New("boom")))
}
