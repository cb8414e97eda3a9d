package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"1234567.89", 123456789, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseBudget(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"0", 0, true},
		{"0,00", 0, true},
		{"150", 15000, true},
		{"-5", 0, false},
		{"0.004", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseBudget(tc.in)
		if tc.ok != (err == nil) || got.Cents != tc.out {
			t.Fatalf("%q: got %d (err=%v), want %d ok=%v", tc.in, got.Cents, err, tc.out, tc.ok)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{1234, "$12.34"},
		{123456789, "$1,234,567.89"},
		{-1200, "-$12.00"},
		{-123456, "-$1,234.56"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(Cents(tc.in)); got != tc.want {
			t.Fatalf("FormatCurrency(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Cents(1050))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "10.50" {
		t.Fatalf("expected 10.50, got %s", b)
	}

	for in, want := range map[string]int64{
		`12.5`:   1250,
		`"3.14"`: 314,
		`7`:      700,
		`0.005`:  1,
		`null`:   0,
		`-40.25`: -4025,
	} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if m.Cents != want {
			t.Fatalf("unmarshal %s: got %d want %d", in, m.Cents, want)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"twelve"`), &m); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a, b := Cents(1000), Cents(250)
	if a.Add(b).Cents != 1250 || a.Sub(b).Cents != 750 || b.Sub(a).Cents != -750 {
		t.Fatalf("unexpected arithmetic results")
	}
	if !b.Sub(a).IsNegative() || !Cents(0).IsZero() || a.Neg().Cents != -1000 {
		t.Fatalf("unexpected predicates")
	}
	if a.String() != "10.00" {
		t.Fatalf("unexpected String(): %s", a.String())
	}
}
