package extract

import (
	"encoding/base64"
	"strings"
)

const base64Marker = ";base64,"

// mimeHint returns the content type embedded in a data-URL prefix, or ""
// when the payload is bare base64.
func mimeHint(data string) string {
	if !strings.HasPrefix(data, "data:") {
		return ""
	}
	rest := data[len("data:"):]
	if i := strings.IndexAny(rest, ";,"); i >= 0 {
		return strings.ToLower(rest[:i])
	}
	return ""
}

// stripDataURL removes a data-URL scheme marker, leaving bare base64.
func stripDataURL(data string) string {
	if !strings.HasPrefix(data, "data:") {
		return data
	}
	if i := strings.Index(data, base64Marker); i >= 0 {
		return data[i+len(base64Marker):]
	}
	if i := strings.IndexByte(data, ','); i >= 0 {
		return data[i+1:]
	}
	return data
}

// Decode strips any data-URL prefix and decodes the base64 payload.
func Decode(data string) ([]byte, error) {
	raw := strings.TrimSpace(stripDataURL(data))
	return base64.StdEncoding.DecodeString(raw)
}
