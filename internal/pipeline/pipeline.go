// Package pipeline orchestrates attachment ingestion: classification,
// extraction, sanitization, and error tagging across a message's upload
// batch.
package pipeline

import (
	"context"
	"log/slog"

	"medchat/internal/core"
	"medchat/internal/extract"
)

// Pipeline enriches attachment batches with extracted text.
type Pipeline struct {
	maxBytes int64
}

// New creates a pipeline with the given attachment size ceiling.
// maxBytes <= 0 uses extract.DefaultMaxBytes.
func New(maxBytes int64) *Pipeline {
	if maxBytes <= 0 {
		maxBytes = extract.DefaultMaxBytes
	}
	return &Pipeline{maxBytes: maxBytes}
}

// Process runs extraction over a batch and returns a new enriched slice with
// the same length and order as the input. Attachments are independent, so
// extraction fans out one goroutine per attachment; results land in an
// index-addressed slice so output order never depends on completion order.
// A failure on one attachment is folded into that attachment's record and
// never aborts its siblings.
func (p *Pipeline) Process(ctx context.Context, batch []core.Attachment) []core.Attachment {
	out := make([]core.Attachment, len(batch))

	done := make(chan int, len(batch))
	for i := range batch {
		go func(i int) {
			out[i] = p.processOne(batch[i])
			done <- i
		}(i)
	}
	for range batch {
		<-done
	}

	return out
}

func (p *Pipeline) processOne(att core.Attachment) core.Attachment {
	// Images and other non-document kinds pass through untouched.
	if att.Kind != core.AttachmentFile {
		return att
	}

	// Idempotence: an attachment that already carries usable extracted
	// text is not reprocessed.
	if att.HasUsableText() {
		return att
	}

	kind := extract.Classify(att)
	res := runExtraction(kind, att.Data, att.Size, p.maxBytes)

	if res.OK() {
		att.ExtractedText = res.Text
		att.ExtractionError = ""
		att.Status = core.StatusExtracted
		attachmentsProcessed.WithLabelValues(kind.String(), "extracted").Inc()
		return att
	}

	att.ExtractedText = ""
	att.ExtractionError = extract.UserMessage(kind, res.Failure)
	att.Status = core.StatusFailed
	attachmentsProcessed.WithLabelValues(kind.String(), "failed").Inc()
	slog.Warn("attachment extraction failed",
		"name", att.Name,
		"kind", kind.String(),
		"size", att.Size,
	)
	return att
}

// runExtraction shields the batch from a panicking parser: a panic on one
// attachment becomes that attachment's parse failure, never a crashed
// sibling goroutine.
func runExtraction(kind extract.Kind, data string, size, maxBytes int64) (res extract.Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("extraction panic recovered", "kind", kind.String(), "panic", r)
			res = extract.ParseFailureResult()
		}
	}()
	return extract.Run(kind, data, size, maxBytes)
}
