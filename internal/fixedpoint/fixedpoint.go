// Package fixedpoint wraps 256-bit unsigned arithmetic with explicit
// overflow reporting and bit-width guards for bounded ledger fields.
//
// Token amounts are wei-denominated integers. Fractional quantities such as
// rates and odds are fixed-point mantissas carrying 18 decimal places, so a
// mantissa of Scale means exactly one. Division truncates toward zero unless
// the ceiling variant is used.
package fixedpoint

import (
	"errors"

	"github.com/holiman/uint256"
)

// Scale is the mantissa of one whole unit in 18-decimal fixed point.
const Scale uint64 = 1_000_000_000_000_000_000

var (
	ErrOverflow  = errors.New("value overflows 256 bits")
	ErrUnderflow = errors.New("subtraction underflow")
	ErrDivByZero = errors.New("division by zero")
)

// Add returns a+b. The result is freshly allocated.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b. The result is freshly allocated.
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	diff, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, ErrUnderflow
	}
	return diff, nil
}

// MulU64 returns a*b. The result is freshly allocated.
func MulU64(a *uint256.Int, b uint64) (*uint256.Int, error) {
	product, overflow := new(uint256.Int).MulOverflow(a, uint256.NewInt(b))
	if overflow {
		return nil, ErrOverflow
	}
	return product, nil
}

// DivU64 returns the truncated quotient and the remainder of a/b.
func DivU64(a *uint256.Int, b uint64) (quot, rem *uint256.Int, err error) {
	if b == 0 {
		return nil, nil, ErrDivByZero
	}
	divisor := uint256.NewInt(b)
	quot = new(uint256.Int).Div(a, divisor)
	rem = new(uint256.Int).Mod(a, divisor)
	return quot, rem, nil
}

// DivCeilU64 returns a/b rounded up to the nearest integer.
func DivCeilU64(a *uint256.Int, b uint64) (*uint256.Int, error) {
	quot, rem, err := DivU64(a, b)
	if err != nil {
		return nil, err
	}
	if !rem.IsZero() {
		// A non-zero remainder implies b >= 2, so the quotient is at most
		// 2^255 and the bump cannot wrap.
		quot.AddUint64(quot, 1)
	}
	return quot, nil
}

// MulDiv returns a*b/den, truncating, with the product held in 512 bits so
// it cannot overflow before the division. ErrOverflow means the final
// quotient itself exceeds 256 bits.
func MulDiv(a, b, den *uint256.Int) (*uint256.Int, error) {
	if den.IsZero() {
		return nil, ErrDivByZero
	}
	res, overflow := new(uint256.Int).MulDivOverflow(a, b, den)
	if overflow {
		return nil, ErrOverflow
	}
	return res, nil
}

// FitsBits reports whether v is representable in width bits.
func FitsBits(v *uint256.Int, width uint) bool {
	return uint(v.BitLen()) <= width
}

// MaxBits returns the largest value representable in width bits.
func MaxBits(width uint) *uint256.Int {
	max := new(uint256.Int).Lsh(uint256.NewInt(1), width)
	return max.SubUint64(max, 1)
}

// SaturateBits clamps v to the largest value representable in width bits.
// The result is freshly allocated.
func SaturateBits(v *uint256.Int, width uint) *uint256.Int {
	if FitsBits(v, width) {
		return v.Clone()
	}
	return MaxBits(width)
}
