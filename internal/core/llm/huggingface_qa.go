package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/markdave123-py/contexta-qa/internal/core"
	"github.com/markdave123-py/contexta-qa/internal/core/resilience"
)

var _ core.QuestionAnswerer = (*HuggingFaceQA)(nil)

// HuggingFaceQA calls an extractive question-answering model through the
// Hugging Face inference API (or any server speaking the same protocol).
type HuggingFaceQA struct {
	baseURL    string
	token      string
	httpClient *http.Client
	exec       *resilience.Executor
}

func NewHuggingFaceQA(baseURL, token string, timeout time.Duration, exec *resilience.Executor) *HuggingFaceQA {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if exec == nil {
		exec = resilience.NewExecutor(resilience.DefaultPolicy(), nil)
	}
	return &HuggingFaceQA{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		exec:       exec,
	}
}

type qaInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type qaRequest struct {
	Inputs qaInputs `json:"inputs"`
}

// qaResponse accepts both a single object and the list form some servers
// return when more than one span is requested.
type qaResponse []core.QAResult

func (r *qaResponse) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []core.QAResult
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*r = list
		return nil
	}
	var single core.QAResult
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*r = qaResponse{single}
	return nil
}

// Answer asks model to pick the span of passage that answers question.
func (c *HuggingFaceQA) Answer(ctx context.Context, model, question, passage string) (core.QAResult, error) {
	if model == "" {
		return core.QAResult{}, core.WrapError(core.ErrModelInvocation, "extractive qa", errors.New("no model reference"))
	}

	url := c.baseURL + "/models/" + model
	payload := qaRequest{Inputs: qaInputs{Question: question, Context: passage}}

	var out qaResponse
	err := c.exec.Do(ctx, "qa:"+model, func(ctx context.Context) error {
		out = nil
		return c.postJSON(ctx, url, payload, &out, "huggingface qa")
	}, classify)
	if err != nil {
		return core.QAResult{}, core.WrapError(core.ErrModelInvocation, "extractive qa", err)
	}
	if len(out) == 0 {
		return core.QAResult{}, nil
	}
	return out[0], nil
}
