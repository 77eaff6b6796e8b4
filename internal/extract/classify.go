// Package extract converts attachment payloads into plain text. It supports
// exactly three document formats (plain text, PDF, DOCX); everything else is
// classified and rejected rather than guessed at.
package extract

import (
	"strings"

	"medchat/internal/core"
)

// Kind is the closed set of classification outcomes for an attachment.
type Kind int

const (
	// KindNotAFile marks image and other non-document attachments; the
	// pipeline passes these through untouched.
	KindNotAFile Kind = iota
	KindPlainText
	KindPDF
	KindDocx
	// KindUnsupportedDoc marks recognized-but-unhandled formats. Legacy
	// binary Word (.doc) is detected and deliberately not handled;
	// unmatched formats land here as well.
	KindUnsupportedDoc
)

// String returns the kind name for logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindNotAFile:
		return "not_a_file"
	case KindPlainText:
		return "plain_text"
	case KindPDF:
		return "pdf"
	case KindDocx:
		return "docx"
	default:
		return "unsupported"
	}
}

// Classify decides which extractor applies to an attachment. It inspects the
// lowercase file name suffix first, then the content-type hint embedded in a
// data-URL prefix; the first match across the two signals wins. This
// tolerates clients that supply only a filename, only a mime-typed data URL,
// or both. Pure function, no I/O.
func Classify(att core.Attachment) Kind {
	if att.Kind != core.AttachmentFile {
		return KindNotAFile
	}

	name := strings.ToLower(att.Name)
	switch {
	case strings.HasSuffix(name, ".txt"), strings.HasSuffix(name, ".text"):
		return KindPlainText
	case strings.HasSuffix(name, ".pdf"):
		return KindPDF
	case strings.HasSuffix(name, ".docx"):
		return KindDocx
	case strings.HasSuffix(name, ".doc"):
		return KindUnsupportedDoc
	}

	switch mime := mimeHint(att.Data); {
	case mime == "text/plain", strings.HasPrefix(mime, "text/"):
		return KindPlainText
	case mime == "application/pdf":
		return KindPDF
	case strings.Contains(mime, "wordprocessingml"):
		return KindDocx
	}

	return KindUnsupportedDoc
}
