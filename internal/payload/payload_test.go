package payload

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"medchat/internal/core"
)

func TestAssembleOrdering(t *testing.T) {
	history := []core.Message{
		{
			Role:    "user",
			Content: "Here are my readings from this week.",
			Attachments: []core.Attachment{
				{Kind: core.AttachmentImage, Name: "chart.png", Data: "aW1hZ2ViYXNlNjQ="},
				{
					Kind:          core.AttachmentFile,
					Name:          "log.txt",
					ExtractedText: "blood pressure log",
					Status:        core.StatusExtracted,
				},
			},
		},
	}

	a := New("", "")
	p := a.Assemble(history, "You are a medical assistant.")

	if len(p.Messages) != 2 {
		t.Fatalf("messages = %d, want 2 (system + user)", len(p.Messages))
	}
	if p.Messages[0].Role != "system" {
		t.Fatalf("first role = %q, want system", p.Messages[0].Role)
	}

	blocks := p.Messages[1].Content
	if len(blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(blocks))
	}
	if blocks[0].Type != core.BlockText || blocks[0].Text != "Here are my readings from this week." {
		t.Fatalf("block 0 = %+v, want the user's own text first", blocks[0])
	}
	if blocks[1].Type != core.BlockText || !strings.Contains(blocks[1].Text, "blood pressure log") {
		t.Fatalf("block 1 = %+v, want file-wrapped text", blocks[1])
	}
	if !strings.Contains(blocks[1].Text, "log.txt") {
		t.Fatalf("file block missing file-name header: %q", blocks[1].Text)
	}
	if blocks[2].Type != core.BlockImage {
		t.Fatalf("block 2 = %+v, want image block last", blocks[2])
	}
}

func TestAssembleImageNormalization(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bare base64 defaults to jpeg", "abc123", "data:image/jpeg;base64,abc123"},
		{"existing data url kept", "data:image/png;base64,abc123", "data:image/png;base64,abc123"},
		{"https url kept", "https://example.com/x.png", "https://example.com/x.png"},
	}
	a := New("", "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := []core.Message{{
				Role:        "user",
				Content:     "see image",
				Attachments: []core.Attachment{{Kind: core.AttachmentImage, Data: tt.data}},
			}}
			p := a.Assemble(history, "prompt")
			img := p.Messages[1].Content[1]
			if img.ImageURL == nil || img.ImageURL.URL != tt.want {
				t.Fatalf("image url = %+v, want %q", img.ImageURL, tt.want)
			}
			if img.ImageURL.Detail != "high" {
				t.Fatalf("detail = %q, want high", img.ImageURL.Detail)
			}
		})
	}
}

func TestAssembleUnavailableFileText(t *testing.T) {
	history := []core.Message{{
		Role:    "user",
		Content: "what does the report say?",
		Attachments: []core.Attachment{{
			Kind:            core.AttachmentFile,
			Name:            "report.doc",
			ExtractionError: "this file format is not supported",
			Status:          core.StatusFailed,
		}},
	}}

	p := New("", "").Assemble(history, "prompt")
	blocks := p.Messages[1].Content
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2; the failed file must not be silently omitted", len(blocks))
	}
	if !strings.Contains(blocks[1].Text, "content unavailable") {
		t.Fatalf("block = %q, want explicit unavailable notice", blocks[1].Text)
	}
	if !strings.Contains(blocks[1].Text, "report.doc") {
		t.Fatalf("block = %q, want file name retained", blocks[1].Text)
	}
}

func TestAssembleSkipsEmptyOwnText(t *testing.T) {
	history := []core.Message{{
		Role: "user",
		Attachments: []core.Attachment{{
			Kind:          core.AttachmentFile,
			Name:          "labs.txt",
			ExtractedText: "cholesterol 190",
			Status:        core.StatusExtracted,
		}},
	}}

	p := New("", "").Assemble(history, "prompt")
	blocks := p.Messages[1].Content
	if len(blocks) != 1 {
		t.Fatalf("blocks = %d, want just the file block for a text-less turn", len(blocks))
	}
	if !strings.Contains(blocks[0].Text, "labs.txt") {
		t.Fatalf("block = %q, want the file block", blocks[0].Text)
	}
}

func TestSelectModel(t *testing.T) {
	a := New("text-model", "vision-model")

	textOnly := []core.Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	}
	p := a.Assemble(textOnly, "prompt")
	if got := a.SelectModel(p); got != "text-model" {
		t.Fatalf("SelectModel = %q, want text-model", got)
	}

	// A single image anywhere in the history flips the whole call.
	withImage := append(textOnly, core.Message{
		Role:        "user",
		Content:     "and this",
		Attachments: []core.Attachment{{Kind: core.AttachmentImage, Data: "abc"}},
	})
	p = a.Assemble(withImage, "prompt")
	if got := a.SelectModel(p); got != "vision-model" {
		t.Fatalf("SelectModel = %q, want vision-model", got)
	}
}

func TestAssembleWireFormat(t *testing.T) {
	history := []core.Message{{
		Role:        "user",
		Content:     "check this",
		Attachments: []core.Attachment{{Kind: core.AttachmentImage, Data: "abc"}},
	}}
	p := New("", "").Assemble(history, "system prompt")

	raw, err := json.Marshal(p.Messages)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)

	if got := gjson.Get(body, "0.role").String(); got != "system" {
		t.Fatalf("0.role = %q, want system", got)
	}
	if got := gjson.Get(body, "0.content.0.type").String(); got != "text" {
		t.Fatalf("0.content.0.type = %q, want text", got)
	}
	if got := gjson.Get(body, "1.content.1.type").String(); got != "image_url" {
		t.Fatalf("1.content.1.type = %q, want image_url", got)
	}
	if got := gjson.Get(body, "1.content.1.image_url.url").String(); got != "data:image/jpeg;base64,abc" {
		t.Fatalf("image url = %q", got)
	}
	// Text blocks must not leak empty image_url objects.
	if gjson.Get(body, "0.content.0.image_url").Exists() {
		t.Fatal("text block carries image_url field")
	}
}
