package models

// QuestionRequest is the body of POST /api/ask. Question and LLMModel are
// pointers so a missing field can be told apart from an empty one.
type QuestionRequest struct {
	Question *string `json:"question"`
	LLMModel *string `json:"llm_model"`
	Context  string  `json:"context,omitempty"`
}

type AnswerResponse struct {
	Answer string `json:"answer"`
}

// DocumentResponse carries the text extracted from an uploaded document.
type DocumentResponse struct {
	Content string `json:"content"`
}

// ImageResponse carries the OCR transcription of an uploaded image.
type ImageResponse struct {
	Text string `json:"text"`
}

// ModelDescriptor is what clients see of a registry entry.
type ModelDescriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ModelsResponse struct {
	Models []ModelDescriptor `json:"models"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
