package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the refinement input ceiling, in characters.
const DefaultMaxChars = 15000

// refineSystemPrompt is the fixed instruction template sent with every
// refinement request.
const refineSystemPrompt = `You are an assistant that edits raw speech-to-text transcripts.
The transcript is mostly Arabic and may contain a spoken dialect.

Rules:
- Keep the speaker's dialect and wording. Do not translate it into Modern Standard Arabic.
- Write technical terms, product names and proper nouns in Latin script (for example: Kubernetes, API, Golang, Google).
- Fix obvious recognition errors only when the intended word is clear from context.
- Do not invent information that is not in the transcript.
- Answer in the language of the transcript.`

const refineUserTemplate = `Transcript:
"""
%s
"""

Organise the transcript into the following structure:

# Title
One short line.

## Key points
- 3 to 7 bullets.

## Action items
- Tasks, owners and deadlines if mentioned. Write "-" if there are none.

## Detailed summary
A few paragraphs covering the full content in order.`

// TruncateRunes keeps the leading max characters of s. It reports whether
// anything was cut. A non-positive max leaves s unchanged.
func TruncateRunes(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}

// BuildRefinePrompt truncates the transcript to maxChars and wraps it in the
// fixed template. It returns the system and user messages.
func BuildRefinePrompt(transcript string, maxChars int) (system, user string, truncated bool) {
	text, truncated := TruncateRunes(strings.TrimSpace(transcript), maxChars)
	return refineSystemPrompt, fmt.Sprintf(refineUserTemplate, text), truncated
}
