// Package safemath provides the checked integer arithmetic every balance and
// interest computation in the ledger must go through. Raw operators on money
// quantities are a bug; a failed check aborts the whole command.
package safemath

import (
	"errors"
	"math/big"
)

var (
	ErrOverflow  = errors.New("safemath: arithmetic overflow")
	ErrUnderflow = errors.New("safemath: arithmetic underflow")
	ErrDivByZero = errors.New("safemath: division by zero")
)

const (
	// BasisPointsDivisor converts basis points into a ratio; 10000 bps = 100%.
	BasisPointsDivisor = 10_000
	// SecondsPerYear fixes the interest year at 365 days.
	SecondsPerYear = 365 * 24 * 3600
)

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b or ErrUnderflow when b > a.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// Mul returns a*b or ErrOverflow.
func Mul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/a != b {
		return 0, ErrOverflow
	}
	return product, nil
}

// Div returns a/b truncated toward zero, or ErrDivByZero.
func Div(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivByZero
	}
	return a / b, nil
}

// Interest computes simple, non-compounding interest:
//
//	(principal * apyBps * elapsedSeconds) / (BasisPointsDivisor * SecondsPerYear)
//
// The full numerator is multiplied out before the single final division so no
// precision is lost to intermediate truncation. The intermediate product can
// exceed 64 bits, so it is carried in a big.Int; only the final quotient must
// fit back into a uint64.
func Interest(principal, apyBps, elapsedSeconds uint64) (uint64, error) {
	if principal == 0 || apyBps == 0 || elapsedSeconds == 0 {
		return 0, nil
	}
	numerator := new(big.Int).SetUint64(principal)
	numerator.Mul(numerator, new(big.Int).SetUint64(apyBps))
	numerator.Mul(numerator, new(big.Int).SetUint64(elapsedSeconds))

	denominator := new(big.Int).Mul(
		big.NewInt(BasisPointsDivisor),
		big.NewInt(SecondsPerYear),
	)

	quotient := numerator.Quo(numerator, denominator)
	if !quotient.IsUint64() {
		return 0, ErrOverflow
	}
	return quotient.Uint64(), nil
}
