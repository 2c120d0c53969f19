package validate

import (
	"github.com/pkg/errors"

	"github.com/fleshka4/smart-router/internal/apperrors"
	"github.com/fleshka4/smart-router/internal/domain"
)

// QuoteQueryValidate rejects queries no strategy should run for.
func QuoteQueryValidate(q domain.QuoteQuery) error {
	in, out := q.CurrencyIn(), q.CurrencyOut()

	if q.Amount.IsZero() {
		return errors.Wrap(apperrors.ErrInvalidArgument, "amount cannot be zero or negative")
	}

	if in.ChainID != q.ChainID || out.ChainID != q.ChainID {
		return errors.Wrap(apperrors.ErrInvalidArgument, "currencies must be on the query chain")
	}

	if in.Equal(out) {
		return errors.Wrap(apperrors.ErrInvalidArgument, "output currency cannot be the same as input currency")
	}

	if domain.IsWrapOrUnwrap(in, out) {
		return errors.Wrap(apperrors.ErrInvalidArgument, "wrapping is not a trade")
	}

	if q.MaxHops < 1 || q.MaxSplits < 0 {
		return errors.Wrap(apperrors.ErrInvalidArgument, "max hops must be positive and max splits not negative")
	}

	if q.Protocols == 0 {
		return errors.Wrap(apperrors.ErrInvalidArgument, "no protocol enabled")
	}

	return nil
}
