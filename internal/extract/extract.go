package extract

// DefaultMaxBytes is the attachment size ceiling. Checked against the
// declared size before any decode runs, so the decoding cost is never paid
// for an oversized file.
const DefaultMaxBytes int64 = 5 << 20 // 5 MiB

// Run classifies an attachment payload and dispatches to the matching
// extractor. size is the declared byte size; maxBytes <= 0 falls back to
// DefaultMaxBytes.
func Run(kind Kind, data string, size, maxBytes int64) Result {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if size > maxBytes {
		return failure(OversizedInput)
	}

	switch kind {
	case KindPlainText, KindPDF, KindDocx:
	default:
		return failure(UnsupportedFormat)
	}

	raw, err := Decode(data)
	if err != nil {
		return failure(DecodeFailure)
	}

	switch kind {
	case KindPlainText:
		return extractPlainText(raw)
	case KindPDF:
		return extractPDF(raw)
	default:
		return extractDocx(raw)
	}
}
