package types

import (
	"testing"
)

func TestAmountArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		op     func() (Amount, bool)
		want   Amount
		wantOK bool
	}{
		{"Add", func() (Amount, bool) { return Amount(100).Add(200) }, 300, true},
		{"Add overflow", func() (Amount, bool) { return MaxAmount.Add(1) }, 0, false},
		{"Add to max", func() (Amount, bool) { return (MaxAmount - 1).Add(1) }, MaxAmount, true},
		{"Sub", func() (Amount, bool) { return Amount(500).Sub(200) }, 300, true},
		{"Sub to zero", func() (Amount, bool) { return Amount(7).Sub(7) }, 0, true},
		{"Sub underflow", func() (Amount, bool) { return Amount(7).Sub(8) }, 0, false},
		{"Mul", func() (Amount, bool) { return Amount(100).Mul(3) }, 300, true},
		{"Mul overflow", func() (Amount, bool) { return (MaxAmount / 2).Mul(3) }, 0, false},
		{"Mul zero", func() (Amount, bool) { return MaxAmount.Mul(0) }, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.op()
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAmountFormat(t *testing.T) {
	tests := []struct {
		amount   Amount
		decimals uint8
		want     string
	}{
		{1500, 2, "15.00"},
		{1, 2, "0.01"},
		{0, 2, "0.00"},
		{42, 0, "42"},
		{123456789, 9, "0.123456789"},
		{1000000000, 9, "1.000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.amount.Format(tt.decimals); got != tt.want {
				t.Errorf("Format(%d): got %q, want %q", tt.decimals, got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("18446744073709551615")
	if err != nil {
		t.Fatalf("ParseAmount failed: %v", err)
	}
	if got != MaxAmount {
		t.Errorf("got %d, want max", got)
	}

	for _, bad := range []string{"", "-1", "1.5", "18446744073709551616"} {
		if _, err := ParseAmount(bad); err == nil {
			t.Errorf("ParseAmount(%q): expected error", bad)
		}
	}
}

func TestSum(t *testing.T) {
	total, ok := Sum(1, 2, 3, 4)
	if !ok || total != 10 {
		t.Errorf("Sum: got (%d, %v), want (10, true)", total, ok)
	}

	if _, ok := Sum(MaxAmount, 1); ok {
		t.Error("Sum: expected overflow")
	}

	empty, ok := Sum()
	if !ok || !empty.IsZero() {
		t.Errorf("Sum(): got (%d, %v), want (0, true)", empty, ok)
	}
}

func TestEntity(t *testing.T) {
	var zero Entity
	if !zero.IsZero() {
		t.Error("zero Entity should report IsZero")
	}

	e := NewEntity()
	if e.IsZero() {
		t.Error("NewEntity should not be zero")
	}
	if !e.CreatedAt.Equal(e.UpdatedAt) {
		t.Error("NewEntity timestamps should match")
	}

	before := e.UpdatedAt
	e.Touch()
	if e.UpdatedAt.Before(before) {
		t.Error("Touch moved UpdatedAt backwards")
	}
}
