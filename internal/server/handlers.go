package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"medchat/internal/cache"
	"medchat/internal/chatstore"
	"medchat/internal/completion"
	"medchat/internal/core"
	"medchat/internal/payload"
	"medchat/internal/pipeline"
	"medchat/internal/profilestore"
)

// ChatOptions carries the conversation settings handed to the handler.
type ChatOptions struct {
	MaxTokens       int
	Temperature     float64
	SystemPrompt    string
	FallbackMessage string
}

// Handler serves the API routes.
type Handler struct {
	chats       chatstore.Store
	profiles    profilestore.Store
	cache       cache.ProfileCache
	pipeline    *pipeline.Pipeline
	assembler   *payload.Assembler
	completions *completion.Client // nil when no API key is configured
	opts        ChatOptions
}

// NewHandler creates the API handler. completions may be nil; the message
// endpoint then answers with the configured fallback message.
func NewHandler(
	chats chatstore.Store,
	profiles profilestore.Store,
	profileCache cache.ProfileCache,
	pipe *pipeline.Pipeline,
	assembler *payload.Assembler,
	completions *completion.Client,
	opts ChatOptions,
) *Handler {
	return &Handler{
		chats:       chats,
		profiles:    profiles,
		cache:       profileCache,
		pipeline:    pipe,
		assembler:   assembler,
		completions: completions,
		opts:        opts,
	}
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type createChatRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
}

// CreateChat handles POST /v1/chats
func (h *Handler) CreateChat(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body", err))
	}
	if req.UserID == "" {
		return handleError(c, core.NewInvalidRequestError("user_id is required", nil))
	}

	now := time.Now().UTC()
	chat := &core.Chat{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.chats.CreateChat(c.Request().Context(), chat); err != nil {
		return handleError(c, core.NewStorageError("failed to create chat", err))
	}
	return c.JSON(http.StatusCreated, chat)
}

// ListChats handles GET /v1/chats?user_id=...
func (h *Handler) ListChats(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return handleError(c, core.NewInvalidRequestError("user_id query parameter is required", nil))
	}

	chats, err := h.chats.ListChats(c.Request().Context(), userID)
	if err != nil {
		return handleError(c, core.NewStorageError("failed to list chats", err))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"chats": chats})
}

// GetChat handles GET /v1/chats/:id
func (h *Handler) GetChat(c echo.Context) error {
	chat, err := h.chats.GetChat(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, chat)
}

// DeleteChat handles DELETE /v1/chats/:id
func (h *Handler) DeleteChat(c echo.Context) error {
	if err := h.chats.DeleteChat(c.Request().Context(), c.Param("id")); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetMessages handles GET /v1/chats/:id/messages
func (h *Handler) GetMessages(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.chats.GetChat(ctx, c.Param("id")); err != nil {
		return handleError(c, err)
	}

	messages, err := h.chats.GetMessages(ctx, c.Param("id"))
	if err != nil {
		return handleError(c, core.NewStorageError("failed to load messages", err))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": messages})
}

type sendMessageRequest struct {
	Content     string            `json:"content"`
	Attachments []core.Attachment `json:"attachments"`
}

type sendMessageResponse struct {
	UserMessage      *core.Message `json:"user_message"`
	AssistantMessage *core.Message `json:"assistant_message"`
}

// SendMessage handles POST /v1/chats/:id/messages. It enriches attachments,
// persists the user turn, assembles the conversation payload, and asks the
// completion backend for the assistant turn.
func (h *Handler) SendMessage(c echo.Context) error {
	ctx := c.Request().Context()
	chatID := c.Param("id")

	chat, err := h.chats.GetChat(ctx, chatID)
	if err != nil {
		return handleError(c, err)
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body", err))
	}
	if req.Content == "" && len(req.Attachments) == 0 {
		return handleError(c, core.NewInvalidRequestError("message needs content or attachments", nil))
	}
	if err := validateAttachments(req.Attachments); err != nil {
		return handleError(c, err)
	}

	// Persist the raw user turn first so nothing is lost if enrichment
	// fails, then replace the attachments with the enriched results.
	now := time.Now().UTC()
	userMsg := &core.Message{
		ID:          uuid.NewString(),
		ChatID:      chatID,
		Role:        "user",
		Content:     req.Content,
		Attachments: req.Attachments,
		CreatedAt:   now,
	}
	if err := h.chats.AddMessage(ctx, userMsg); err != nil {
		return handleError(c, core.NewStorageError("failed to save message", err))
	}

	if len(req.Attachments) > 0 {
		userMsg.Attachments = h.pipeline.Process(ctx, req.Attachments)
		if err := h.chats.UpdateMessageAttachments(ctx, userMsg.ID, userMsg.Attachments); err != nil {
			return handleError(c, core.NewStorageError("failed to save extraction results", err))
		}
	}

	history, err := h.chats.GetMessages(ctx, chatID)
	if err != nil {
		return handleError(c, core.NewStorageError("failed to load history", err))
	}

	messages := make([]core.Message, len(history))
	for i, m := range history {
		messages[i] = *m
	}

	systemPrompt := h.systemPromptFor(c, chat.UserID)
	chatPayload := h.assembler.Assemble(messages, systemPrompt)
	model := h.assembler.SelectModel(chatPayload)

	assistantMsg := &core.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      "assistant",
		CreatedAt: time.Now().UTC(),
	}

	if h.completions == nil {
		assistantMsg.Content = h.opts.FallbackMessage
	} else {
		result, err := h.completions.CreateCompletion(ctx, chatPayload, model, h.opts.MaxTokens, h.opts.Temperature)
		if err != nil {
			return handleError(c, err)
		}
		assistantMsg.Content = result.Text
		assistantMsg.Model = result.Model
		completionsTotal.WithLabelValues(result.Model).Inc()
	}

	if err := h.chats.AddMessage(ctx, assistantMsg); err != nil {
		return handleError(c, core.NewStorageError("failed to save assistant message", err))
	}

	return c.JSON(http.StatusOK, sendMessageResponse{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	})
}

// validateAttachments rejects attachment kinds outside the closed set.
func validateAttachments(attachments []core.Attachment) error {
	for i, att := range attachments {
		switch att.Kind {
		case core.AttachmentFile, core.AttachmentImage:
		default:
			return core.NewInvalidRequestError(
				fmt.Sprintf("attachment %d has unknown kind %q (valid: file, image)", i, att.Kind), nil)
		}
		if att.Kind == core.AttachmentFile && att.Name == "" {
			return core.NewInvalidRequestError(
				fmt.Sprintf("attachment %d is missing a file name", i), nil)
		}
	}
	return nil
}

// systemPromptFor folds the patient profile into the base system prompt.
// Profile reads go through the cache; a miss falls back to the store.
func (h *Handler) systemPromptFor(c echo.Context, userID string) string {
	ctx := c.Request().Context()

	profile, err := h.cache.Get(ctx, userID)
	if err != nil {
		slog.Warn("profile cache read failed", "user_id", userID, "error", err)
	}
	if profile == nil {
		profile, err = h.profiles.Get(ctx, userID)
		if err != nil {
			var appErr *core.AppError
			if !errors.As(err, &appErr) || appErr.Type != core.ErrorTypeNotFound {
				slog.Warn("profile load failed", "user_id", userID, "error", err)
			}
			return h.opts.SystemPrompt
		}
		if cacheErr := h.cache.Set(ctx, profile); cacheErr != nil {
			slog.Warn("profile cache write failed", "user_id", userID, "error", cacheErr)
		}
	}

	var b strings.Builder
	b.WriteString(h.opts.SystemPrompt)
	b.WriteString("\n\nPatient details:")
	if profile.FirstName != "" || profile.LastName != "" {
		fmt.Fprintf(&b, "\nName: %s", strings.TrimSpace(profile.FirstName+" "+profile.LastName))
	}
	if profile.BirthDate != "" {
		fmt.Fprintf(&b, "\nBirth date: %s", profile.BirthDate)
	}
	if profile.Sex != "" {
		fmt.Fprintf(&b, "\nSex: %s", profile.Sex)
	}
	if profile.HealthSummary != "" {
		fmt.Fprintf(&b, "\nHealth summary: %s", profile.HealthSummary)
	}
	return b.String()
}

// UpsertProfile handles PUT /v1/profiles/:userID
func (h *Handler) UpsertProfile(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("userID")

	var profile core.Profile
	if err := c.Bind(&profile); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body", err))
	}
	profile.UserID = userID
	profile.UpdatedAt = time.Now().UTC()

	if err := h.profiles.Upsert(ctx, &profile); err != nil {
		return handleError(c, core.NewStorageError("failed to save profile", err))
	}
	// Evict rather than set so a racing read can't pin a stale entry.
	if err := h.cache.Delete(ctx, userID); err != nil {
		slog.Warn("profile cache evict failed", "user_id", userID, "error", err)
	}
	return c.JSON(http.StatusOK, profile)
}

// GetProfile handles GET /v1/profiles/:userID
func (h *Handler) GetProfile(c echo.Context) error {
	profile, err := h.profiles.Get(c.Request().Context(), c.Param("userID"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

// DeleteProfile handles DELETE /v1/profiles/:userID
func (h *Handler) DeleteProfile(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("userID")

	if err := h.profiles.Delete(ctx, userID); err != nil {
		return handleError(c, err)
	}
	if err := h.cache.Delete(ctx, userID); err != nil {
		slog.Warn("profile cache evict failed", "user_id", userID, "error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleError converts application errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var appErr *core.AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.HTTPStatusCode(), appErr.ToJSON())
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
