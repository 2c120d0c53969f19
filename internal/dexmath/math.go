package dexmath

import (
	"math/big"
	"sync"
)

// FeeDenominator is the scale of fee arguments: 3000 is 0.3%.
const FeeDenominator = 1_000_000

var (
	feeDen = big.NewInt(FeeDenominator)

	defaultMath = newMathService()
)

type mathTmp struct {
	a *big.Int
	b *big.Int
	c *big.Int
	f *big.Int
}

type mathService struct {
	pool *sync.Pool
}

func newMathService() *mathService {
	return &mathService{
		pool: &sync.Pool{
			New: func() any {
				return &mathTmp{
					a: new(big.Int),
					b: new(big.Int),
					c: new(big.Int),
					f: new(big.Int),
				}
			},
		},
	}
}

func validFee(fee uint32) bool {
	return fee < FeeDenominator
}

func (m *mathService) getAmountOutInto(out, amountIn, reserveIn, reserveOut *big.Int, fee uint32) bool {
	if out == nil {
		return false
	}
	// basic validation.
	if amountIn == nil || reserveIn == nil || reserveOut == nil ||
		amountIn.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 || !validFee(fee) {
		out.SetInt64(0)
		return false
	}

	t := m.pool.Get().(*mathTmp)
	defer m.pool.Put(t)

	// ainFee := amountIn * (1e6 - fee).
	t.f.SetUint64(uint64(FeeDenominator - fee))
	t.a.Mul(amountIn, t.f)

	// num := ainFee * reserveOut.
	t.b.Mul(t.a, reserveOut)

	// den := reserveIn * 1e6 + ainFee.
	t.c.Mul(reserveIn, feeDen)
	t.c.Add(t.c, t.a)

	if t.c.Sign() == 0 {
		out.SetInt64(0)
		return false
	}

	out.Quo(t.b, t.c)
	return out.Sign() > 0
}

func (m *mathService) getAmountInInto(in, amountOut, reserveIn, reserveOut *big.Int, fee uint32) bool {
	if in == nil {
		return false
	}
	if amountOut == nil || reserveIn == nil || reserveOut == nil ||
		amountOut.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Cmp(amountOut) <= 0 || !validFee(fee) {
		in.SetInt64(0)
		return false
	}

	t := m.pool.Get().(*mathTmp)
	defer m.pool.Put(t)

	// num := reserveIn * amountOut * 1e6.
	t.a.Mul(reserveIn, amountOut)
	t.a.Mul(t.a, feeDen)

	// den := (reserveOut - amountOut) * (1e6 - fee).
	t.f.SetUint64(uint64(FeeDenominator - fee))
	t.b.Sub(reserveOut, amountOut)
	t.b.Mul(t.b, t.f)

	// in = num / den + 1.
	in.Quo(t.a, t.b)
	in.Add(in, big.NewInt(1))
	return true
}

// GetAmountOutInto computes the output of a constant product swap of amountIn
// with the given fee, writing it into out.
//
// Returns false when any input is not positive or the fee is out of range.
// out must be non-nil; temporaries come from a pool, so reusing out avoids
// allocations entirely.
func GetAmountOutInto(out, amountIn, reserveIn, reserveOut *big.Int, fee uint32) bool {
	return defaultMath.getAmountOutInto(out, amountIn, reserveIn, reserveOut, fee)
}

// GetAmountOut is the allocating form of GetAmountOutInto.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int, fee uint32) (*big.Int, bool) {
	out := new(big.Int)
	ok := defaultMath.getAmountOutInto(out, amountIn, reserveIn, reserveOut, fee)
	return out, ok
}

// GetAmountIn computes the input required to receive amountOut, rounded up.
// Returns false when the pool cannot provide amountOut.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int, fee uint32) (*big.Int, bool) {
	in := new(big.Int)
	ok := defaultMath.getAmountInInto(in, amountOut, reserveIn, reserveOut, fee)
	return in, ok
}
