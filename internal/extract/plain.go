package extract

import (
	"unicode/utf8"

	"medchat/internal/sanitize"
)

// extractPlainText decodes bytes as UTF-8 and sanitizes the result.
func extractPlainText(data []byte) Result {
	if !utf8.Valid(data) {
		return failure(DecodeFailure)
	}
	text := sanitize.Sanitize(string(data))
	if text == "" {
		return failure(EmptyExtraction)
	}
	return textResult(text)
}
