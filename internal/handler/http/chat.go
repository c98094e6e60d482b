package http

import (
	"log/slog"
	"net/http"

	"github.com/Volatile-Viv/Try-Karo/internal/service"
	"github.com/Volatile-Viv/Try-Karo/pkg/httputil"
	"github.com/Volatile-Viv/Try-Karo/pkg/validator"
)

// ChatHandler relays chat messages to the assistant.
type ChatHandler struct {
	service *service.ChatService
	logger  *slog.Logger
}

// NewChatHandler creates a new chat HTTP handler.
func NewChatHandler(svc *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{service: svc, logger: logger}
}

// ChatTurnRequest is one entry of the client-held conversation.
type ChatTurnRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ChatRequest is the JSON request body for a chat message.
type ChatRequest struct {
	Message  string            `json:"message"`
	Messages []ChatTurnRequest `json:"messages" validate:"max=50"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Sender  string `json:"sender"`
}

// Message handles POST /api/chat/message
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r, maxJSONBody)

	var req ChatRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	history := make([]service.ChatTurn, 0, len(req.Messages))
	for _, m := range req.Messages {
		history = append(history, service.ChatTurn{Sender: m.Sender, Text: m.Text})
	}

	text, err := h.service.Reply(r.Context(), req.Message, history)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ChatResponse{
		Success: true,
		Text:    text,
		Sender:  service.SenderAgent,
	})
}
