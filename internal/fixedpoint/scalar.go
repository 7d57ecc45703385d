// Package fixedpoint implements the deterministic fixed-point arithmetic
// the simulation core runs on: a 64-bit signed scalar with 16 fractional
// bits, saturating on overflow, rounding to nearest-even on rescale.
// Nothing in this package uses floating point except at the edges
// (FromFloat32 / ToFloat32), so two builds on different architectures
// that run the same tick sequence always land on the same bits.
package fixedpoint

import (
	"math"
	"math/big"
)

// Scalar is a Q47.16 fixed-point number stored as its raw int64 value.
type Scalar int64

const fractionalBits = 16

var scaleFactor = big.NewInt(int64(1) << fractionalBits)

const (
	// Zero is the additive identity.
	Zero = Scalar(0)
	// One is the multiplicative identity (1.0).
	One = Scalar(int64(1) << fractionalBits)

	// MaxScalar and MinScalar bound every saturating operation.
	MaxScalar = Scalar(math.MaxInt64)
	MinScalar = Scalar(math.MinInt64)
)

// FromInt converts a whole number to a Scalar, saturating if the shift
// would overflow.
func FromInt(i int64) Scalar {
	const maxWhole = math.MaxInt64 >> fractionalBits
	const minWhole = math.MinInt64 >> fractionalBits
	if i > maxWhole {
		return MaxScalar
	}
	if i < minWhole {
		return MinScalar
	}
	return Scalar(i << fractionalBits)
}

// FromFloat32 converts f to the nearest representable Scalar, saturating
// on overflow and mapping NaN to Zero. Only used at config/IO boundaries.
func FromFloat32(f float32) Scalar {
	if math.IsNaN(float64(f)) {
		return Zero
	}
	scaled := math.RoundToEven(float64(f) * float64(int64(1)<<fractionalBits))
	if scaled >= math.MaxInt64 {
		return MaxScalar
	}
	if scaled <= math.MinInt64 {
		return MinScalar
	}
	return Scalar(int64(scaled))
}

// ToFloat32 converts to the nearest float32. Only used at display/IO
// boundaries, never inside a phase.
func (s Scalar) ToFloat32() float32 {
	return float32(float64(s) / float64(int64(1)<<fractionalBits))
}

// Raw returns the underlying fixed-point bit pattern.
func (s Scalar) Raw() int64 { return int64(s) }

// FromRaw reconstructs a Scalar from a raw bit pattern, e.g. decoded off
// the wire.
func FromRaw(raw int64) Scalar { return Scalar(raw) }

// Add saturates to MaxScalar/MinScalar on signed overflow.
func (a Scalar) Add(b Scalar) Scalar {
	sum := int64(a) + int64(b)
	switch {
	case a > 0 && b > 0 && sum < 0:
		return MaxScalar
	case a < 0 && b < 0 && sum >= 0:
		return MinScalar
	default:
		return Scalar(sum)
	}
}

// Neg saturates at MaxScalar when negating MinScalar, which has no
// positive counterpart in two's complement.
func (a Scalar) Neg() Scalar {
	if a == MinScalar {
		return MaxScalar
	}
	return -a
}

// Sub is Add of the saturating negation.
func (a Scalar) Sub(b Scalar) Scalar {
	return a.Add(b.Neg())
}

// Abs saturates at MaxScalar for MinScalar, same reasoning as Neg.
func (a Scalar) Abs() Scalar {
	if a == MinScalar {
		return MaxScalar
	}
	if a < 0 {
		return -a
	}
	return a
}

// Mul computes a*b with round-to-nearest-even rescaling back to 16
// fractional bits, saturating if the result is out of range. The
// intermediate product can need up to 128 bits, so it is widened through
// math/big rather than risking a native overflow.
func (a Scalar) Mul(b Scalar) Scalar {
	product := new(big.Int).Mul(big.NewInt(int64(a)), big.NewInt(int64(b)))
	return roundShift(product, fractionalBits)
}

// Div computes a/b with round-to-nearest-even, saturating toward the sign
// of a when b is zero instead of panicking.
func (a Scalar) Div(b Scalar) Scalar {
	if b == 0 {
		if a >= 0 {
			return MaxScalar
		}
		return MinScalar
	}
	numerator := new(big.Int).Lsh(big.NewInt(int64(a)), fractionalBits)
	return roundDiv(numerator, big.NewInt(int64(b)))
}

// Cmp returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func (a Scalar) Cmp(b Scalar) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Clamp bounds a to [lo, hi]. lo must not exceed hi.
func (a Scalar) Clamp(lo, hi Scalar) Scalar {
	if a < lo {
		return lo
	}
	if a > hi {
		return hi
	}
	return a
}

// Lerp moves a fraction t (in [0, One]) of the way from a toward b.
func Lerp(a, b, t Scalar) Scalar {
	return a.Add(b.Sub(a).Mul(t))
}

func roundShift(value *big.Int, shift uint) Scalar {
	divisor := new(big.Int).Lsh(big.NewInt(1), shift)
	return roundDiv(value, divisor)
}

// roundDiv divides numerator by denominator, rounding the quotient to
// nearest with ties resolved to even, then saturates into int64 range.
func roundDiv(numerator, denominator *big.Int) Scalar {
	quot, rem := new(big.Int).QuoRem(numerator, denominator, new(big.Int))
	if rem.Sign() != 0 {
		absRem := new(big.Int).Abs(rem)
		absDen := new(big.Int).Abs(denominator)
		twiceRem := new(big.Int).Lsh(absRem, 1)
		cmp := twiceRem.Cmp(absDen)
		sameSign := (numerator.Sign() >= 0) == (denominator.Sign() >= 0)
		if cmp > 0 || (cmp == 0 && quot.Bit(0) == 1) {
			if sameSign {
				quot.Add(quot, big.NewInt(1))
			} else {
				quot.Sub(quot, big.NewInt(1))
			}
		}
	}
	return saturate(quot)
}

func saturate(v *big.Int) Scalar {
	if v.Cmp(big.NewInt(math.MaxInt64)) > 0 {
		return MaxScalar
	}
	if v.Cmp(big.NewInt(math.MinInt64)) < 0 {
		return MinScalar
	}
	return Scalar(v.Int64())
}
