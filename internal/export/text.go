package export

import (
	"io"
	"strings"
)

// TextFilename is the default download name for plain-text exports.
const TextFilename = "transcription.txt"

// WriteText writes the raw transcript as UTF-8 text. Line endings are
// normalised to \n and a trailing newline is added when missing.
func WriteText(w io.Writer, text string) error {
	out := strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if _, err := io.WriteString(w, out); err != nil {
		return &ExportError{Format: "txt", Err: err}
	}
	return nil
}
