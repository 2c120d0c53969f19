package http

import (
	"context"
	"io"
	"log"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fleshka4/smart-router/internal/apperrors"
	"github.com/fleshka4/smart-router/internal/config"
	"github.com/fleshka4/smart-router/internal/domain"
	"github.com/fleshka4/smart-router/internal/loadable"
	"github.com/fleshka4/smart-router/internal/service/mock"
	"github.com/fleshka4/smart-router/internal/transport/http/dto"
)

const quoteURL = "/quote?" +
	"token_in=0x1234567890123456789012345678901234567891&" +
	"token_out=0x1234567890123456789012345678901234567892&" +
	"amount=1000000000000000000&" +
	"decimals_out=6&" +
	"slippage_bps=100"

func newTestServer(t *testing.T, svc *mock.MockService, cfg config.Config) *Server {
	t.Helper()

	server, err := NewServer(svc, &cfg, nil)
	require.NoError(t, err)
	return server
}

func testTrade() *domain.Trade {
	in := domain.Currency{ChainID: 56, Address: common.HexToAddress("0x1234567890123456789012345678901234567891"), Decimals: 18}
	out := domain.Currency{ChainID: 56, Address: common.HexToAddress("0x1234567890123456789012345678901234567892"), Decimals: 6}
	return &domain.Trade{
		TradeType:    domain.ExactInput,
		InputAmount:  domain.CurrencyAmount{Currency: in, Value: big.NewInt(1_000_000_000_000_000_000)},
		OutputAmount: domain.CurrencyAmount{Currency: out, Value: big.NewInt(2_500_000)},
		Routes: []domain.RouteAllocation{{
			Pools:   []domain.PoolRef{{Protocol: domain.ProtocolV2, Address: common.HexToAddress("0x01")}},
			Percent: 100,
		}},
		Fingerprint: "fp",
		Source:      "offchain",
	}
}

func serve(t *testing.T, h http.Handler, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	resp := w.Result()
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Printf("Body.Close: %v", err)
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	_, err := NewServer(nil, nil, nil)
	require.Error(t, err)
}

func TestPingHandler(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	server := newTestServer(t, mock.NewMockService(ctrl), config.Config{})

	resp, body := serve(t, server.mux, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "pong", string(body))
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	server := newTestServer(t, mock.NewMockService(ctrl), config.Config{})

	resp, body := serve(t, server.mux, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "go_goroutines")
}

func TestQuoteHandler(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockService := mock.NewMockService(ctrl)
	server := newTestServer(t, mockService, config.Config{ChainID: 56, Quote: config.QuoteConfig{DefaultMaxHops: 3}})

	t.Run("success", func(t *testing.T) {
		mockService.EXPECT().
			Wait(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, q domain.QuoteQuery) loadable.Loadable[*domain.Trade] {
				require.Equal(t, uint64(56), q.ChainID)
				require.Equal(t, uint32(100), q.SlippageBps)
				return loadable.Of(testTrade())
			})

		resp, body := serve(t, server.mux, httptest.NewRequest(http.MethodGet, quoteURL, nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var out dto.QuoteResponse
		require.NoError(t, sonic.Unmarshal(body, &out))
		require.Equal(t, dto.StatusOK, out.Status)
		require.Equal(t, "1", out.AmountIn)
		require.Equal(t, "2.5", out.AmountOut)
		require.Equal(t, "2.475", out.MinimumReceived)
		require.Empty(t, out.MaximumSold)
		require.Equal(t, "offchain", out.Trade.Source)
		require.Equal(t, big.NewInt(2_500_000), out.Trade.OutputAmount.Value)
	})

	t.Run("validation error - missing params", func(t *testing.T) {
		resp, _ := serve(t, server.mux, httptest.NewRequest(http.MethodGet, "/quote?token_in=0x123", nil))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong http method", func(t *testing.T) {
		resp, _ := serve(t, server.mux, httptest.NewRequest(http.MethodPost, quoteURL, nil))
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	testState := func(t *testing.T, state loadable.Loadable[*domain.Trade], expectedStatusCode int, expectedStatus string) {
		mockService.EXPECT().
			Wait(gomock.Any(), gomock.Any()).
			Return(state)

		resp, body := serve(t, server.mux, httptest.NewRequest(http.MethodGet, quoteURL, nil))
		require.Equal(t, expectedStatusCode, resp.StatusCode)

		var out dto.QuoteResponse
		require.NoError(t, sonic.Unmarshal(body, &out))
		require.Equal(t, expectedStatus, out.Status)
	}

	t.Run("no valid route", func(t *testing.T) {
		testState(t, loadable.Errored[*domain.Trade](apperrors.NewNoValidRoute("all strategy tiers exhausted")),
			http.StatusUnprocessableEntity, dto.StatusNoRoute)
	})

	t.Run("cancelled", func(t *testing.T) {
		testState(t, loadable.Errored[*domain.Trade](errors.Wrap(apperrors.ErrCancelled, "context canceled")),
			http.StatusServiceUnavailable, dto.StatusNoRoute)
	})

	t.Run("timed out without a trade", func(t *testing.T) {
		testState(t, loadable.Pending[*domain.Trade](), http.StatusGatewayTimeout, dto.StatusLoading)
	})

	t.Run("timed out with a preview", func(t *testing.T) {
		testState(t, loadable.WithPending(testTrade()), http.StatusGatewayTimeout, dto.StatusLoading)
	})

	t.Run("degenerate request", func(t *testing.T) {
		testState(t, loadable.Empty[*domain.Trade](), http.StatusBadRequest, dto.StatusEmpty)
	})
}

func TestQuoteResponse_ExactOutput(t *testing.T) {
	t.Parallel()

	trade := testTrade()
	trade.TradeType = domain.ExactOutput

	resp := newQuoteResponse("fp", domain.QuoteQuery{SlippageBps: 50}, loadable.Of(trade))
	require.Equal(t, dto.StatusOK, resp.Status)
	require.Equal(t, "1.005", resp.MaximumSold)
	require.Empty(t, resp.MinimumReceived)
}

func TestQuoteStreamHandler(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockService := mock.NewMockService(ctrl)
	server := newTestServer(t, mockService, config.Config{ChainID: 56, Quote: config.QuoteConfig{DefaultMaxHops: 3}})

	unsubscribed := make(chan struct{})
	mockService.EXPECT().
		Subscribe(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ domain.QuoteQuery, fn func(loadable.Loadable[*domain.Trade])) (string, func()) {
			fn(loadable.Pending[*domain.Trade]())
			fn(loadable.Of(testTrade()))
			return "fp", func() { close(unsubscribed) }
		})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, strings.Replace(quoteURL, "/quote", "/quote/stream", 1), nil).WithContext(ctx)

	resp, body := serve(t, server.mux, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Contains(t, string(body), "event: quote")
	require.Contains(t, string(body), `"amountOut":"2.5"`)

	select {
	case <-unsubscribed:
	case <-time.After(time.Second):
		t.Fatal("stream did not release its subscription")
	}
}

func TestLogMiddleware(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	core, logs := observer.New(zap.InfoLevel)

	cfg := config.Config{}
	server, err := NewServer(mock.NewMockService(ctrl), &cfg, zap.New(core))
	require.NoError(t, err)

	serve(t, server.logMiddleware(server.mux), httptest.NewRequest(http.MethodGet, "/ping", nil))

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	require.Equal(t, "GET", entries[0].ContextMap()["method"])
	require.Equal(t, "/ping", entries[0].ContextMap()["url"])
}

func TestServer_ListenAndServe(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	server := newTestServer(t, mock.NewMockService(ctrl), config.Config{
		ReadHeaderTimeout: 5 * time.Second,
		GraceTimeout:      5 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(ctx, "localhost:0")
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
