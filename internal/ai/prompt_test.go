package ai

import (
	"strings"
	"testing"
)

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name          string
		in            string
		max           int
		want          string
		wantTruncated bool
	}{
		{"shorter", "abc", 5, "abc", false},
		{"exact", "abcde", 5, "abcde", false},
		{"latin", "abcdefgh", 3, "abc", true},
		{"arabic keeps leading runes", "مرحبا بكم", 5, "مرحبا", true},
		{"mixed", "كود Go هنا", 6, "كود Go", true},
		{"no limit", "abc", 0, "abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := TruncateRunes(tt.in, tt.max)
			if got != tt.want || truncated != tt.wantTruncated {
				t.Errorf("TruncateRunes(%q, %d) = %q, %v; want %q, %v", tt.in, tt.max, got, truncated, tt.want, tt.wantTruncated)
			}
		})
	}
}

func TestBuildRefinePromptTruncatesBeforeWrapping(t *testing.T) {
	transcript := strings.Repeat("أ", 20) + "TAIL"

	system, user, truncated := BuildRefinePrompt(transcript, 20)

	if !truncated {
		t.Fatal("expected truncation")
	}
	if strings.Contains(user, "TAIL") {
		t.Error("text beyond the limit reached the prompt")
	}
	if !strings.Contains(user, strings.Repeat("أ", 20)) {
		t.Error("leading portion missing from prompt")
	}
	if !strings.Contains(system, "Latin script") || !strings.Contains(system, "dialect") {
		t.Error("system prompt lost its fixed instructions")
	}
}
