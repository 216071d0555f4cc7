package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/smartwaste/civic-core/internal/core/domain"
	"github.com/smartwaste/civic-core/internal/core/ports"
)

// AssistantHandler serves the rule-based assistant. Conversations are owned
// by the session that started them.
type AssistantHandler struct {
	assistant ports.Assistant
	hub       ports.ConversationHub
}

func NewAssistantHandler(assistant ports.Assistant, hub ports.ConversationHub) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, hub: hub}
}

// QuickReplies returns the suggestions for the session's role.
//
// @Summary      Quick replies for the current role
// @Tags         assistant
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  quickRepliesResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/assistant/quick-replies [get]
func (h *AssistantHandler) QuickReplies(c echo.Context) error {
	_, id, err := ctxSession(c)
	if err != nil {
		return err
	}
	preview, all := h.assistant.Suggestions(id.Role)
	return c.JSON(http.StatusOK, quickRepliesResponse{
		Role:         id.Role,
		SupportLabel: h.assistant.SupportLabel(id.Role),
		Preview:      preview,
		All:          all,
	})
}

// Respond classifies a single message without keeping a transcript.
//
// @Summary      One-shot reply
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      respondRequest  true  "User message"
// @Success      200   {object}  respondResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /v1/assistant/respond [post]
func (h *AssistantHandler) Respond(c echo.Context) error {
	_, id, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req respondRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Message) == "" {
		return domain.ErrEmptyMessage
	}

	reply := h.assistant.Classify(req.Message, id.Role)
	return c.JSON(http.StatusOK, respondResponse{Intent: reply.Intent, Reply: reply.Text})
}

// StartConversation opens a new assistant widget seeded with the greeting.
//
// @Summary      Open an assistant conversation
// @Tags         assistant
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  conversationResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/assistant/conversations [post]
func (h *AssistantHandler) StartConversation(c echo.Context) error {
	sid, id, err := h.owner(c)
	if err != nil {
		return err
	}
	conv := h.hub.Start(sid, id.Role)
	return c.JSON(http.StatusCreated, h.render(conv, conv.Transcript()))
}

// GetConversation returns the transcript so far and whether a reply is
// still being typed.
//
// @Summary      Get a conversation
// @Tags         assistant
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation id"
// @Success      200  {object}  conversationResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/assistant/conversations/{id} [get]
func (h *AssistantHandler) GetConversation(c echo.Context) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.render(conv, conv.Transcript()))
}

// PostMessage submits user text. The user message is in the response; the
// assistant reply arrives later and shows up on the next GET. Whitespace-only
// text is not an error: it is reported as not accepted.
//
// @Summary      Send a message
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Conversation id"
// @Param        body  body      submitRequest  true  "Message text"
// @Success      200   {object}  submitResponse  "empty text, nothing appended"
// @Success      202   {object}  submitResponse
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/assistant/conversations/{id}/messages [post]
func (h *AssistantHandler) PostMessage(c echo.Context) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}

	var req submitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	_, id, _ := ctxSession(c)
	conv.SetRole(id.Role)

	tr, err := conv.Submit(req.Text)
	switch {
	case errors.Is(err, domain.ErrEmptyMessage):
		return c.JSON(http.StatusOK, submitResponse{Accepted: false, conversationResponse: h.render(conv, tr)})
	case err != nil:
		return err
	}
	return c.JSON(http.StatusAccepted, submitResponse{Accepted: true, conversationResponse: h.render(conv, tr)})
}

// CloseConversation hides the widget. Replies already being typed still land.
//
// @Summary      Close a conversation
// @Tags         assistant
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation id"
// @Success      200  {object}  conversationResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/assistant/conversations/{id}/close [post]
func (h *AssistantHandler) CloseConversation(c echo.Context) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	conv.Close()
	return c.JSON(http.StatusOK, h.render(conv, conv.Transcript()))
}

// OpenConversation shows the widget again.
//
// @Summary      Reopen a conversation
// @Tags         assistant
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation id"
// @Success      200  {object}  conversationResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/assistant/conversations/{id}/open [post]
func (h *AssistantHandler) OpenConversation(c echo.Context) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	conv.Open()
	return c.JSON(http.StatusOK, h.render(conv, conv.Transcript()))
}

// EndConversation tears the widget down and discards its transcript.
//
// @Summary      End a conversation
// @Tags         assistant
// @Security     BearerAuth
// @Param        id   path  string  true  "Conversation id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /v1/assistant/conversations/{id} [delete]
func (h *AssistantHandler) EndConversation(c echo.Context) error {
	sid, _, err := h.owner(c)
	if err != nil {
		return err
	}
	if err := h.hub.End(sid, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AssistantHandler) owner(c echo.Context) (string, domain.Identity, error) {
	sid, err := ctxSessionID(c)
	if err != nil {
		return "", domain.Identity{}, err
	}
	_, id, err := ctxSession(c)
	if err != nil {
		return "", domain.Identity{}, err
	}
	return sid, id, nil
}

func (h *AssistantHandler) conversation(c echo.Context) (ports.Conversation, error) {
	sid, _, err := h.owner(c)
	if err != nil {
		return nil, err
	}
	return h.hub.Get(sid, c.Param("id"))
}

func (h *AssistantHandler) render(conv ports.Conversation, tr domain.Transcript) conversationResponse {
	role := conv.Role()
	preview, _ := h.assistant.Suggestions(role)
	return conversationResponse{
		ID:           conv.ID(),
		Role:         role,
		SupportLabel: h.assistant.SupportLabel(role),
		Open:         conv.IsOpen(),
		Thinking:     conv.Thinking(),
		QuickReplies: preview,
		Messages:     tr,
	}
}
