package main

import "testing"

func TestValidOTP(t *testing.T) {
	tests := []struct {
		otp  string
		want bool
	}{
		{"123456", true},
		{"000000", true},
		{"12345", false},
		{"1234567", false},
		{"12345a", false},
		{"12 456", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := validOTP(tt.otp); got != tt.want {
			t.Errorf("validOTP(%q) = %v, want %v", tt.otp, got, tt.want)
		}
	}
}
