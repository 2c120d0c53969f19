package dto

import (
	"github.com/fleshka4/smart-router/internal/domain"
)

// QuoteRequest represents a parsed HTTP request for the /quote endpoints.
type QuoteRequest struct {
	Query domain.QuoteQuery
}

// QuoteResponse is the body of a settled quote.
type QuoteResponse struct {
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"`
	Stale       bool   `json:"stale,omitempty"`
	Error       string `json:"error,omitempty"`

	Trade *domain.Trade `json:"trade,omitempty"`

	// Human readable amounts in whole units of their currency.
	AmountIn  string `json:"amountIn,omitempty"`
	AmountOut string `json:"amountOut,omitempty"`

	// Slippage-adjusted limit: minimumReceived for exact input,
	// maximumSold for exact output.
	MinimumReceived string `json:"minimumReceived,omitempty"`
	MaximumSold     string `json:"maximumSold,omitempty"`
}

// Quote statuses.
const (
	StatusOK      = "ok"
	StatusLoading = "loading"
	StatusNoRoute = "no_route"
	StatusEmpty   = "empty"
)
