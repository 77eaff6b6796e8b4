package core

// Content block types understood by the chat-completions API.
const (
	BlockText  = "text"
	BlockImage = "image_url"
)

// ContentBlock is one element of a message's content array. It is a tagged
// union: Type selects which of the remaining fields is meaningful.
type ContentBlock struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references inline image data plus a processing-detail hint.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// PayloadMessage is one role-tagged entry of the outbound completion request.
type PayloadMessage struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ChatPayload is the full ordered content sequence for one completion call.
// It is built fresh per call and never persisted; the chat and message
// records remain the source of truth.
type ChatPayload struct {
	Messages []PayloadMessage `json:"messages"`
}

// HasImages reports whether any block anywhere in the payload is an image
// block. A single image in the conversation determines the capability
// requirement for the whole call.
func (p ChatPayload) HasImages() bool {
	for _, m := range p.Messages {
		for _, b := range m.Content {
			if b.Type == BlockImage {
				return true
			}
		}
	}
	return false
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ImageBlock builds an image content block.
func ImageBlock(url, detail string) ContentBlock {
	return ContentBlock{Type: BlockImage, ImageURL: &ImageURL{URL: url, Detail: detail}}
}
