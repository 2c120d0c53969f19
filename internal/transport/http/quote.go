package http

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fleshka4/smart-router/internal/apperrors"
	"github.com/fleshka4/smart-router/internal/domain"
	"github.com/fleshka4/smart-router/internal/fingerprint"
	"github.com/fleshka4/smart-router/internal/loadable"
	"github.com/fleshka4/smart-router/internal/session"
	"github.com/fleshka4/smart-router/internal/transport/http/dto"
	"github.com/fleshka4/smart-router/internal/transport/http/validate"
)

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	req, code, err := validate.QuoteRequestValidate(r, s.defaults)
	if err != nil {
		if code == 0 {
			code = http.StatusBadRequest
		}
		http.Error(w, err.Error(), code)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	l := s.svc.Wait(ctx, req.Query)
	resp := newQuoteResponse(fingerprint.Quote(req.Query), req.Query, l)

	status := http.StatusOK
	switch resp.Status {
	case dto.StatusLoading:
		status = http.StatusGatewayTimeout
	case dto.StatusEmpty:
		status = http.StatusBadRequest
	case dto.StatusNoRoute:
		status = http.StatusUnprocessableEntity
		if apperrors.IsCancelled(l.Err()) {
			status = http.StatusServiceUnavailable
		}
	}
	s.writeJSON(w, status, resp)
}

// handleQuoteStream pushes every state of the request as a server-sent
// event and keeps the quote fresh until the client goes away.
func (s *Server) handleQuoteStream(w http.ResponseWriter, r *http.Request) {
	req, code, err := validate.QuoteRequestValidate(r, s.defaults)
	if err != nil {
		if code == 0 {
			code = http.StatusBadRequest
		}
		http.Error(w, err.Error(), code)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var (
		mu     sync.Mutex
		latest *dto.QuoteResponse
		notify = make(chan struct{}, 1)
	)
	sess := session.New(s.svc, func(fp string, l loadable.Loadable[*domain.Trade]) {
		resp := newQuoteResponse(fp, req.Query, l)
		mu.Lock()
		latest = &resp
		mu.Unlock()
		select {
		case notify <- struct{}{}:
		default:
		}
	},
		session.WithInterval(s.revalidateInterval),
		session.WithThreshold(s.revalidateThreshold),
		session.WithLogger(s.logger),
	)
	defer sess.Close()

	ctx := r.Context()
	go func() {
		_ = sess.Run(ctx)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sess.Update(req.Query)

	for {
		select {
		case <-ctx.Done():
			return
		case <-notify:
		}

		mu.Lock()
		resp := latest
		mu.Unlock()

		data, err := sonic.Marshal(resp)
		if err != nil {
			s.logger.Error("quote marshal error", zap.Error(err))
			return
		}
		if _, err := fmt.Fprintf(w, "event: quote\ndata: %s\n\n", data); err != nil {
			s.logger.Debug("quote stream closed", zap.Error(err))
			return
		}
		flusher.Flush()
	}
}

func newQuoteResponse(fp string, q domain.QuoteQuery, l loadable.Loadable[*domain.Trade]) dto.QuoteResponse {
	resp := dto.QuoteResponse{Fingerprint: fp, Stale: l.Stale()}

	trade, ok := l.Unwrap()
	switch {
	case l.Err() != nil:
		resp.Status = dto.StatusNoRoute
		resp.Error = l.Err().Error()
		return resp
	case ok && trade != nil:
	case l.Loading():
		resp.Status = dto.StatusLoading
		return resp
	default:
		resp.Status = dto.StatusEmpty
		return resp
	}

	resp.Status = dto.StatusOK
	if l.Loading() {
		resp.Status = dto.StatusLoading
	}
	resp.Trade = trade
	resp.AmountIn = units(trade.InputAmount)
	resp.AmountOut = units(trade.OutputAmount)
	if trade.TradeType == domain.ExactOutput {
		resp.MaximumSold = units(domain.CurrencyAmount{
			Currency: trade.InputAmount.Currency,
			Value:    trade.MaximumSold(q.SlippageBps),
		})
	} else {
		resp.MinimumReceived = units(domain.CurrencyAmount{
			Currency: trade.OutputAmount.Currency,
			Value:    trade.MinimumReceived(q.SlippageBps),
		})
	}
	return resp
}

// units renders a raw amount in whole units of its currency.
func units(a domain.CurrencyAmount) string {
	if a.Value == nil {
		return ""
	}
	return decimal.NewFromBigInt(new(big.Int).Set(a.Value), -int32(a.Currency.Decimals)).String()
}
