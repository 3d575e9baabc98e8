package safemath

import (
	"errors"
	"math"
	"testing"
)

func TestAdd(t *testing.T) {
	cases := []struct {
		name    string
		a, b    uint64
		want    uint64
		wantErr error
	}{
		{name: "simple", a: 2, b: 3, want: 5},
		{name: "zero", a: 0, b: 0, want: 0},
		{name: "max plus zero", a: math.MaxUint64, b: 0, want: math.MaxUint64},
		{name: "overflow", a: math.MaxUint64, b: 1, wantErr: ErrOverflow},
		{name: "overflow both large", a: math.MaxUint64, b: math.MaxUint64, wantErr: ErrOverflow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Add(tc.a, tc.b)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Add(%d, %d) error = %v, want %v", tc.a, tc.b, err, tc.wantErr)
			}
			if err == nil && got != tc.want {
				t.Fatalf("Add(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestSub(t *testing.T) {
	cases := []struct {
		name    string
		a, b    uint64
		want    uint64
		wantErr error
	}{
		{name: "simple", a: 5, b: 3, want: 2},
		{name: "to zero", a: 7, b: 7, want: 0},
		{name: "underflow", a: 3, b: 5, wantErr: ErrUnderflow},
		{name: "underflow from zero", a: 0, b: 1, wantErr: ErrUnderflow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Sub(tc.a, tc.b)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Sub(%d, %d) error = %v, want %v", tc.a, tc.b, err, tc.wantErr)
			}
			if err == nil && got != tc.want {
				t.Fatalf("Sub(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestMul(t *testing.T) {
	cases := []struct {
		name    string
		a, b    uint64
		want    uint64
		wantErr error
	}{
		{name: "simple", a: 6, b: 7, want: 42},
		{name: "zero left", a: 0, b: math.MaxUint64, want: 0},
		{name: "zero right", a: math.MaxUint64, b: 0, want: 0},
		{name: "max by one", a: math.MaxUint64, b: 1, want: math.MaxUint64},
		{name: "overflow", a: math.MaxUint64, b: 2, wantErr: ErrOverflow},
		{name: "overflow square", a: 1 << 33, b: 1 << 33, wantErr: ErrOverflow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Mul(tc.a, tc.b)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Mul(%d, %d) error = %v, want %v", tc.a, tc.b, err, tc.wantErr)
			}
			if err == nil && got != tc.want {
				t.Fatalf("Mul(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestDiv(t *testing.T) {
	got, err := Div(10, 3)
	if err != nil {
		t.Fatalf("Div(10, 3) returned error: %v", err)
	}
	if got != 3 {
		t.Fatalf("Div(10, 3) = %d, want 3 (truncating)", got)
	}
	if _, err := Div(1, 0); !errors.Is(err, ErrDivByZero) {
		t.Fatalf("Div(1, 0) error = %v, want ErrDivByZero", err)
	}
}

func TestInterestThirtyDays(t *testing.T) {
	// 100000 at 12% APY for 30 days: 100000*1200*2592000 / (10000*31536000)
	// = 986.30..., floored.
	const elapsed = 518_400 * 5
	got, err := Interest(100_000, 1_200, elapsed)
	if err != nil {
		t.Fatalf("Interest returned error: %v", err)
	}
	if got != 986 {
		t.Fatalf("Interest = %d, want 986", got)
	}

	// Recomputation with identical inputs is idempotent.
	again, err := Interest(100_000, 1_200, elapsed)
	if err != nil {
		t.Fatalf("Interest recompute returned error: %v", err)
	}
	if again != got {
		t.Fatalf("Interest recompute = %d, want %d", again, got)
	}
}

func TestInterestFullYear(t *testing.T) {
	got, err := Interest(100_000, 1_200, SecondsPerYear)
	if err != nil {
		t.Fatalf("Interest returned error: %v", err)
	}
	if got != 12_000 {
		t.Fatalf("Interest for a full year = %d, want 12000", got)
	}
}

func TestInterestZeroInputs(t *testing.T) {
	for _, tc := range []struct{ p, a, s uint64 }{
		{0, 1200, 1000},
		{100000, 0, 1000},
		{100000, 1200, 0},
	} {
		got, err := Interest(tc.p, tc.a, tc.s)
		if err != nil {
			t.Fatalf("Interest(%d, %d, %d) returned error: %v", tc.p, tc.a, tc.s, err)
		}
		if got != 0 {
			t.Fatalf("Interest(%d, %d, %d) = %d, want 0", tc.p, tc.a, tc.s, got)
		}
	}
}

func TestInterestLargeIntermediate(t *testing.T) {
	// Numerator exceeds 64 bits but the quotient fits: the multiply-first
	// ordering must not lose it to intermediate overflow.
	got, err := Interest(1_000_000_000, 50_000, SecondsPerYear*10)
	if err != nil {
		t.Fatalf("Interest returned error: %v", err)
	}
	if got != 50_000_000_000 {
		t.Fatalf("Interest = %d, want 50000000000", got)
	}
}

func TestInterestSingleDivision(t *testing.T) {
	// Divide-early orderings truncate this to zero; multiply-first keeps it.
	got, err := Interest(999, 1, SecondsPerYear)
	if err != nil {
		t.Fatalf("Interest returned error: %v", err)
	}
	if got != 0 {
		t.Fatalf("Interest = %d, want 0", got)
	}
	got, err = Interest(99_999, 1_000, SecondsPerYear)
	if err != nil {
		t.Fatalf("Interest returned error: %v", err)
	}
	if got != 9_999 {
		t.Fatalf("Interest = %d, want 9999", got)
	}
}
