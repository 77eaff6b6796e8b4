// Package core provides the shared domain types for the medical chat service.
package core

import (
	"strings"
	"time"
)

// AttachmentKind distinguishes the two attachment families a message can carry.
type AttachmentKind string

const (
	// AttachmentFile is a document upload (plain text, PDF, DOCX).
	AttachmentFile AttachmentKind = "file"
	// AttachmentImage is an inline image; the pipeline never touches these.
	AttachmentImage AttachmentKind = "image"
)

// ExtractionStatus is the tri-state lifecycle of a file attachment's text.
type ExtractionStatus string

const (
	// StatusPending means extraction has not run (or must run again).
	StatusPending ExtractionStatus = "pending"
	// StatusExtracted means the attachment carries usable extracted text.
	StatusExtracted ExtractionStatus = "extracted"
	// StatusFailed means extraction ran and failed; ExtractionError explains why.
	StatusFailed ExtractionStatus = "failed"
)

// Attachment is a user upload associated with one chat message.
// The ingestion pipeline enriches file attachments with extracted text;
// image attachments pass through untouched. The whole attachment array is
// persisted as a single document column, never normalized into rows.
type Attachment struct {
	Kind            AttachmentKind   `json:"kind" bson:"kind"`
	Name            string           `json:"name" bson:"name"`
	Data            string           `json:"data,omitempty" bson:"data,omitempty"` // base64, optionally data-URL prefixed
	Size            int64            `json:"size" bson:"size"`
	ExtractedText   string           `json:"extracted_text,omitempty" bson:"extracted_text,omitempty"`
	ExtractionError string           `json:"extraction_error,omitempty" bson:"extraction_error,omitempty"`
	Status          ExtractionStatus `json:"status,omitempty" bson:"status,omitempty"`
}

// HasUsableText reports whether the attachment already carries successfully
// extracted text. Legacy records predate the Status field and overloaded
// ExtractedText with bracket-prefixed sentinel strings; those still count as
// not-yet-extracted and get reprocessed.
func (a Attachment) HasUsableText() bool {
	if a.Kind != AttachmentFile {
		return false
	}
	if a.Status == StatusFailed {
		return false
	}
	if a.ExtractedText == "" {
		return false
	}
	return !strings.HasPrefix(a.ExtractedText, "[")
}

// Message is one persisted chat turn.
type Message struct {
	ID          string       `json:"id" bson:"_id"`
	ChatID      string       `json:"chat_id" bson:"chat_id"`
	Role        string       `json:"role" bson:"role"`
	Content     string       `json:"content" bson:"content"`
	Attachments []Attachment `json:"attachments,omitempty" bson:"attachments,omitempty"`
	Model       string       `json:"model,omitempty" bson:"model,omitempty"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
}

// Chat is a conversation owned by one user.
type Chat struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Title     string    `json:"title" bson:"title"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Profile holds the patient details folded into the system prompt.
type Profile struct {
	UserID        string    `json:"user_id" bson:"_id"`
	FirstName     string    `json:"first_name,omitempty" bson:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty" bson:"last_name,omitempty"`
	BirthDate     string    `json:"birth_date,omitempty" bson:"birth_date,omitempty"`
	Sex           string    `json:"sex,omitempty" bson:"sex,omitempty"`
	HealthSummary string    `json:"health_summary,omitempty" bson:"health_summary,omitempty"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}
