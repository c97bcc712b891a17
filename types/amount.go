package types

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
)

// Amount is a token quantity in the asset's smallest unit.
// All arithmetic is checked; nothing wraps around.
type Amount uint64

// MaxAmount is the largest representable Amount.
const MaxAmount = Amount(math.MaxUint64)

// Add returns a+b. ok is false when the sum does not fit.
func (a Amount) Add(b Amount) (Amount, bool) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, false
	}
	return Amount(sum), true
}

// Sub returns a-b. ok is false when b exceeds a.
func (a Amount) Sub(b Amount) (Amount, bool) {
	diff, borrow := bits.Sub64(uint64(a), uint64(b), 0)
	if borrow != 0 {
		return 0, false
	}
	return Amount(diff), true
}

// Mul returns a*n. ok is false when the product does not fit.
func (a Amount) Mul(n uint64) (Amount, bool) {
	hi, lo := bits.Mul64(uint64(a), n)
	if hi != 0 {
		return 0, false
	}
	return Amount(lo), true
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// Uint64 returns the raw value.
func (a Amount) Uint64() uint64 { return uint64(a) }

// String returns the amount in base units, e.g. "1500".
func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// Format renders the amount in major units for an asset with the given
// number of decimals: Amount(1500).Format(2) == "15.00".
func (a Amount) Format(decimals uint8) string {
	if decimals == 0 {
		return a.String()
	}

	s := a.String()
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d+1-len(s)) + s
	}

	return s[:len(s)-d] + "." + s[len(s)-d:]
}

// ParseAmount parses a base-unit decimal string.
func ParseAmount(s string) (Amount, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("types: parse amount %q: %w", s, err)
	}
	return Amount(v), nil
}

// Sum adds all values. ok is false if any partial sum overflows.
func Sum(values ...Amount) (Amount, bool) {
	var total Amount
	for _, v := range values {
		var ok bool
		total, ok = total.Add(v)
		if !ok {
			return 0, false
		}
	}
	return total, true
}
