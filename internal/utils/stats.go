package utils

import (
	"strings"
	"unicode/utf8"
)

// TextStats summarises a transcript for display
type TextStats struct {
	Chars int `json:"chars"`
	Words int `json:"words"`
	Lines int `json:"lines"`
}

// Stats counts characters, whitespace-separated words and non-empty lines.
func Stats(text string) TextStats {
	lines := 0
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines++
		}
	}
	return TextStats{
		Chars: utf8.RuneCountInString(text),
		Words: len(strings.Fields(text)),
		Lines: lines,
	}
}
