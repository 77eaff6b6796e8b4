// Package payload assembles persisted chat history into the role/content
// structure required by the chat-completions API and selects the serving
// model from the assembled content.
package payload

import (
	"fmt"
	"strings"

	"medchat/internal/core"
)

const (
	// DefaultTextModel serves text-only conversations.
	DefaultTextModel = "gpt-4o-mini"
	// DefaultVisionModel serves any conversation containing an image.
	DefaultVisionModel = "gpt-4o"

	imageDetail = "high"

	// unavailableNotice stands in for a file whose text never extracted.
	// The model must know an attachment existed rather than silently
	// assume there was none.
	unavailableNotice = "content unavailable — please ask the user to restate it"
)

// Assembler builds completion payloads and picks between the text-only and
// vision-capable model variants.
type Assembler struct {
	textModel   string
	visionModel string
}

// New creates an Assembler. Empty model names fall back to the defaults.
func New(textModel, visionModel string) *Assembler {
	if textModel == "" {
		textModel = DefaultTextModel
	}
	if visionModel == "" {
		visionModel = DefaultVisionModel
	}
	return &Assembler{textModel: textModel, visionModel: visionModel}
}

// Assemble produces one system block from systemPrompt followed by one
// role-preserved entry per history message. Within a message the blocks are
// ordered: the author's own text first, then one wrapped text block per file
// attachment, then one image block per image attachment.
func (a *Assembler) Assemble(history []core.Message, systemPrompt string) core.ChatPayload {
	msgs := make([]core.PayloadMessage, 0, len(history)+1)
	msgs = append(msgs, core.PayloadMessage{
		Role:    "system",
		Content: []core.ContentBlock{core.TextBlock(systemPrompt)},
	})

	for _, m := range history {
		var blocks []core.ContentBlock
		if m.Content != "" {
			blocks = append(blocks, core.TextBlock(m.Content))
		}
		for _, att := range m.Attachments {
			if att.Kind == core.AttachmentFile {
				blocks = append(blocks, fileBlock(att))
			}
		}
		for _, att := range m.Attachments {
			if att.Kind == core.AttachmentImage {
				blocks = append(blocks, core.ImageBlock(imageDataURL(att.Data), imageDetail))
			}
		}
		if len(blocks) == 0 {
			// A turn with no text and no attachments still needs a
			// valid content array.
			blocks = append(blocks, core.TextBlock(""))
		}
		msgs = append(msgs, core.PayloadMessage{Role: m.Role, Content: blocks})
	}

	return core.ChatPayload{Messages: msgs}
}

// SelectModel scans the fully assembled payload: any image block anywhere
// selects the vision-capable variant. Decided after assembly, not per
// message, because one image in the conversation sets the capability
// requirement for the whole call.
func (a *Assembler) SelectModel(p core.ChatPayload) string {
	if p.HasImages() {
		return a.visionModel
	}
	return a.textModel
}

// fileBlock wraps a file attachment's extracted text with a file-name
// header. An attachment without usable text yields an explicit notice
// instead of being dropped.
func fileBlock(att core.Attachment) core.ContentBlock {
	text := att.ExtractedText
	if !att.HasUsableText() {
		text = unavailableNotice
	}
	return core.TextBlock(fmt.Sprintf("[Attached file: %s]\n%s", att.Name, text))
}

// imageDataURL normalizes an image reference to a fully qualified inline
// reference. Bare base64 defaults to JPEG encoding.
func imageDataURL(data string) string {
	if strings.HasPrefix(data, "data:") || strings.HasPrefix(data, "http://") || strings.HasPrefix(data, "https://") {
		return data
	}
	return "data:image/jpeg;base64," + data
}
