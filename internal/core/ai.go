package core

import "context"

// QAResult is the span an extractive model picked out of the context.
type QAResult struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

// QuestionAnswerer is a pretrained extractive question-answering model.
type QuestionAnswerer interface {
	Answer(ctx context.Context, model, question, passage string) (QAResult, error)
}

// GenerationOptions bounds a text-generation call.
type GenerationOptions struct {
	MaxTokens   int
	Temperature float64
}

// TextGenerator is a generative language model used for free-form answers.
type TextGenerator interface {
	Generate(ctx context.Context, model, prompt string, opts GenerationOptions) (string, error)
}
