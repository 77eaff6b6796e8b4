package extract

// ErrorKind classifies extraction failures. All of them are recovered
// locally: the pipeline folds them into the attachment record and never
// propagates them to the caller.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	// OversizedInput: declared size exceeds the ceiling; no decode attempted.
	OversizedInput
	// UnsupportedFormat: recognized or unknown format with no extractor.
	UnsupportedFormat
	// DecodeFailure: bad base64 or invalid text encoding.
	DecodeFailure
	// EmptyExtraction: format parsed fine but no text present (scanned PDF).
	EmptyExtraction
	// ParseFailure: corrupt, encrypted, or otherwise malformed document.
	ParseFailure
)

// Result is the transient outcome of one extraction attempt. Exactly one of
// Text (non-empty) or Failure (non-zero) is meaningful; it is never persisted
// directly, only folded into the attachment.
type Result struct {
	Text    string
	Failure ErrorKind
}

// OK reports whether extraction produced usable text.
func (r Result) OK() bool { return r.Failure == ErrorNone }

func textResult(text string) Result { return Result{Text: text} }

func failure(kind ErrorKind) Result { return Result{Failure: kind} }

// ParseFailureResult is the result callers substitute when an extractor
// panics instead of returning.
func ParseFailureResult() Result { return failure(ParseFailure) }

// UserMessage renders a failure as a specific, action-oriented message for
// the end user. Wording is deliberately distinct per format so "scanned PDF"
// never reads like "corrupt DOCX".
func UserMessage(kind Kind, failure ErrorKind) string {
	switch failure {
	case OversizedInput:
		return "file is larger than 5 MB — please upload a smaller file or paste the relevant part of its content"
	case UnsupportedFormat:
		return "this file format is not supported — please convert the document to PDF, DOCX, or plain text and upload it again"
	case DecodeFailure:
		return "the file could not be read — it may be damaged; try re-saving it as plain text, PDF, or DOCX"
	case EmptyExtraction:
		switch kind {
		case KindPDF:
			return "no readable text was found in this PDF — it appears to be a scanned or image-only document; please paste the relevant content as text"
		case KindDocx:
			return "the Word document contains no extractable text — please check the file or paste its content directly"
		default:
			return "the file is empty — please upload a file with content or paste the text directly"
		}
	case ParseFailure:
		switch kind {
		case KindPDF:
			return "the PDF could not be processed — it may be corrupted or password-protected; please remove the password or re-export it and try again"
		case KindDocx:
			return "the Word document could not be processed — it may be corrupted; try re-saving it as .docx or exporting it to PDF"
		default:
			return "the file could not be processed — please re-save it and try again"
		}
	default:
		return ""
	}
}
