package model

import "testing"

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{25, "25.00"},
		{9.99, "9.99"},
		{0, "0.00"},
		{1234.5, "1234.50"},
		{159.92, "159.92"},
	}

	for _, tt := range tests {
		if got := FormatAmount(tt.in); got != tt.want {
			t.Errorf("FormatAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCents(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{99.00, 9900},
		{9.99, 999},
		{0, 0},
		{19.995, 2000}, // rounds
	}

	for _, tt := range tests {
		if got := Cents(tt.in); got != tt.want {
			t.Errorf("Cents(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"25.00", 25},
		{"", 0},
		{"garbage", 0},
		{"9.99", 9.99},
	}

	for _, tt := range tests {
		if got := ParseAmount(tt.in); got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
