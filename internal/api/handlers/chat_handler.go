package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/markdave123-py/contexta-qa/internal/core"
	"github.com/markdave123-py/contexta-qa/internal/core/answer"
	"github.com/markdave123-py/contexta-qa/internal/models"
)

// AnswerService is the part of answer.Engine the HTTP layer uses.
type AnswerService interface {
	Answer(ctx context.Context, question, modelID, passage string) string
	ListModels() []answer.Model
}

type ChatHandler struct {
	answers AnswerService
	timeout time.Duration
	logger  *slog.Logger
}

func NewChatHandler(answers AnswerService, timeout time.Duration, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{answers: answers, timeout: timeout, logger: logger}
}

// Ask answers a question against the context sent with it.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body: %v", core.ErrValidation, err))
		return
	}
	switch {
	case req.Question == nil:
		writeError(w, fmt.Errorf("%w: field 'question' is required", core.ErrValidation))
		return
	case req.LLMModel == nil:
		writeError(w, fmt.Errorf("%w: field 'llm_model' is required", core.ErrValidation))
		return
	}

	h.logger.Info("question received",
		"model", *req.LLMModel,
		"question_chars", len([]rune(*req.Question)),
		"context_chars", len([]rune(req.Context)),
	)

	ctx, cancel := withDeadline(r, h.timeout)
	defer cancel()

	ans := h.answers.Answer(ctx, *req.Question, *req.LLMModel, req.Context)
	if err := deadlineError(ctx, h.timeout); err != nil {
		h.logger.Warn("answer timed out", "model", *req.LLMModel, "timeout", h.timeout.String())
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.AnswerResponse{Answer: ans})
}

// ListModels returns the models a client may pass as llm_model.
func (h *ChatHandler) ListModels(w http.ResponseWriter, _ *http.Request) {
	registered := h.answers.ListModels()
	out := make([]models.ModelDescriptor, 0, len(registered))
	for _, m := range registered {
		out = append(out, models.ModelDescriptor{ID: m.ID, Name: m.Name})
	}
	writeJSON(w, http.StatusOK, models.ModelsResponse{Models: out})
}
