package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barguru/internal/cocktail"
	"barguru/internal/llm"
	"barguru/internal/middleware"
	"barguru/internal/platform/analytics"
)

const (
	generationTemperature float32 = 1.0
	chatTemperature       float32 = 0.7
	editTemperature       float32 = 0.6
	chatMaxSteps                  = 5
)

const chatErrorMessage = "I'm having trouble connecting right now. Please try again."

type chatRequest struct {
	Messages       []cocktail.ChatMessage `json:"messages" binding:"required,min=1,dive"`
	CocktailName   string                 `json:"cocktailName"`
	CocktailData   *cocktail.Cocktail     `json:"cocktailData" binding:"-"`
	CocktailInputs *cocktail.Input        `json:"cocktailInputs" binding:"-"`
}

type barChatRequest struct {
	Messages []cocktail.ChatMessage `json:"messages" binding:"required,min=1,dive"`
	Context  *cocktail.BarContext   `json:"context"`
}

// Chat streams a bartender conversation about one cocktail as server-sent
// events. The model may edit or save the cocktail through tools.
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req, "Invalid chat request.") {
		return
	}

	userID, signedIn := middleware.UserID(c)
	tools := &chatTools{
		h:            h,
		userID:       userID,
		signedIn:     signedIn,
		baseCocktail: req.CocktailData,
		baseInputs:   req.CocktailInputs,
	}

	h.capture(c, analytics.EventChatMessage, map[string]interface{}{"cocktail_name": req.CocktailName})
	h.streamChat(c, llm.ChatRequest{
		System:      cocktail.ChatSystemPrompt(req.CocktailName, req.CocktailData, signedIn),
		Messages:    toLLMMessages(req.Messages),
		Tools:       tools.definitions(),
		Temperature: chatTemperature,
		MaxSteps:    chatMaxSteps,
	})
}

// BarChat streams a conversation with the bar program assistant.
func (h *Handler) BarChat(c *gin.Context) {
	var req barChatRequest
	if !bindJSON(c, &req, "Bad request") {
		return
	}

	h.capture(c, analytics.EventChatMessage, map[string]interface{}{"assistant": "bar_program"})
	h.streamChat(c, llm.ChatRequest{
		System:      cocktail.BarSystemPrompt(req.Context),
		Messages:    toLLMMessages(req.Messages),
		Temperature: chatTemperature,
		MaxSteps:    1,
	})
}

func (h *Handler) streamChat(c *gin.Context, req llm.ChatRequest) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Options.GenerateTimeout)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	emit := func(e llm.Event) error {
		c.SSEvent(string(e.Type), e)
		c.Writer.Flush()
		return ctx.Err()
	}

	if err := h.Generator.Chat(ctx, req, emit); err != nil {
		h.Logger.Error("chat stream failed", zap.Error(err))
		h.report(c, err)
		_ = emit(llm.Event{Type: llm.EventError, Error: chatErrorMessage})
		return
	}
	_ = emit(llm.Event{Type: llm.EventFinish})
}

// toLLMMessages drops messages without text, such as tool-only UI turns.
func toLLMMessages(messages []cocktail.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		if text := m.Text(); text != "" {
			out = append(out, llm.Message{Role: m.Role, Content: text})
		}
	}
	return out
}
