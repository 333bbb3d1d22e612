package utils

import "testing"

func TestStats(t *testing.T) {
	tests := []struct {
		in   string
		want TextStats
	}{
		{"", TextStats{}},
		{"مرحبا بكم", TextStats{Chars: 9, Words: 2, Lines: 1}},
		{"سطر أول\n\nسطر Go ثاني\n", TextStats{Chars: 21, Words: 5, Lines: 2}},
	}

	for _, tt := range tests {
		if got := Stats(tt.in); got != tt.want {
			t.Errorf("Stats(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
