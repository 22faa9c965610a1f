package database

import "testing"

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"paris", "%paris%"},
		{"100%", `%100\%%`},
		{"road_trip", `%road\_trip%`},
		{`a\b`, `%a\\b%`},
	}

	for _, tt := range tests {
		if got := ContainsPattern(tt.text); got != tt.want {
			t.Errorf("ContainsPattern(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
