package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/contexta-qa/internal/core"
	"github.com/markdave123-py/contexta-qa/internal/core/answer"
	"github.com/markdave123-py/contexta-qa/internal/models"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type answersStub struct {
	question, model, passage string
	reply                    string
}

func (s *answersStub) Answer(_ context.Context, question, modelID, passage string) string {
	s.question, s.model, s.passage = question, modelID, passage
	return s.reply
}

func (s *answersStub) ListModels() []answer.Model {
	return []answer.Model{
		{ID: "roberta-base", Name: "RoBERTa Base (Free)", Kind: answer.KindExtractive, Backend: "deepset/roberta-base-squad2"},
	}
}

type extractorStub struct {
	filename string
	data     []byte
	text     string
	err      error
}

func (s *extractorStub) Extract(_ context.Context, data []byte, filename string) (string, error) {
	s.data, s.filename = data, filename
	return s.text, s.err
}

func (s *extractorStub) ExtractImage(_ context.Context, data []byte) (string, error) {
	s.data = data
	return s.text, s.err
}

type recorderStub struct {
	calls []string
}

func (r *recorderStub) ObserveExtraction(format, outcome string, _ int) {
	r.calls = append(r.calls, format+":"+outcome)
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Detail
}

func TestAskPassesFieldsThrough(t *testing.T) {
	svc := &answersStub{reply: "blue"}
	h := NewChatHandler(svc, time.Second, discard)

	req := httptest.NewRequest(http.MethodPost, "/api/ask",
		strings.NewReader(`{"question":"What color?","llm_model":"roberta-base","context":"The sky is blue."}`))
	rec := httptest.NewRecorder()
	h.Ask(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"answer":"blue"}`, rec.Body.String())
	assert.Equal(t, "What color?", svc.question)
	assert.Equal(t, "roberta-base", svc.model)
	assert.Equal(t, "The sky is blue.", svc.passage)
}

func TestAskContextIsOptional(t *testing.T) {
	svc := &answersStub{reply: "needs context"}
	rec := httptest.NewRecorder()
	NewChatHandler(svc, time.Second, discard).Ask(rec, httptest.NewRequest(http.MethodPost, "/api/ask",
		strings.NewReader(`{"question":"q","llm_model":"m"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", svc.passage)
}

func TestAskValidation(t *testing.T) {
	tests := map[string]string{
		"bad json":         `{"question":`,
		"missing question": `{"llm_model":"roberta-base"}`,
		"missing model":    `{"question":"q"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			svc := &answersStub{}
			rec := httptest.NewRecorder()
			NewChatHandler(svc, time.Second, discard).Ask(rec, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body)))

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.NotEmpty(t, decodeDetail(t, rec))
			assert.Empty(t, svc.question, "engine must not be called")
		})
	}
}

func TestListModelsHidesBackend(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChatHandler(&answersStub{}, time.Second, discard).ListModels(rec, httptest.NewRequest(http.MethodGet, "/api/models", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"models":[{"id":"roberta-base","name":"RoBERTa Base (Free)"}]}`, rec.Body.String())
}

func TestUploadDocumentReturnsContent(t *testing.T) {
	ex := &extractorStub{text: "hello world\n"}
	rec := &recorderStub{}
	h := NewDocumentHandler(ex, rec, 1, time.Second, discard)

	body, ct := multipartBody(t, "file", "notes.txt", []byte("hello world\n"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/document", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.UploadDocument(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"content":"hello world\n"}`, w.Body.String())
	assert.Equal(t, "notes.txt", ex.filename)
	assert.Equal(t, []byte("hello world\n"), ex.data)
	assert.Equal(t, []string{"text:ok"}, rec.calls)
}

func TestUploadDocumentUnsupportedIs500(t *testing.T) {
	ex := &extractorStub{err: &core.UnsupportedFormatError{Format: ".csv"}}
	rec := &recorderStub{}
	h := NewDocumentHandler(ex, rec, 1, time.Second, discard)

	body, ct := multipartBody(t, "file", "table.csv", []byte("a,b"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/document", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.UploadDocument(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Unsupported file type: .csv", decodeDetail(t, w))
	assert.Equal(t, []string{"unknown:unsupported"}, rec.calls)
}

func TestUploadDocumentMissingFile(t *testing.T) {
	h := NewDocumentHandler(&extractorStub{}, nil, 1, time.Second, discard)

	body, ct := multipartBody(t, "attachment", "notes.txt", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/document", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.UploadDocument(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decodeDetail(t, w), "'file'")
}

func TestUploadDocumentNotMultipart(t *testing.T) {
	h := NewDocumentHandler(&extractorStub{}, nil, 1, time.Second, discard)

	req := httptest.NewRequest(http.MethodPost, "/api/upload/document", strings.NewReader("raw"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.UploadDocument(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUploadDocumentTooLarge(t *testing.T) {
	h := NewDocumentHandler(&extractorStub{}, nil, 1, time.Second, discard)

	body, ct := multipartBody(t, "file", "big.txt", bytes.Repeat([]byte("a"), 2<<20))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/document", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.UploadDocument(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestUploadImageReturnsText(t *testing.T) {
	ex := &extractorStub{text: "STOP"}
	rec := &recorderStub{}
	h := NewDocumentHandler(ex, rec, 1, time.Second, discard)

	body, ct := multipartBody(t, "file", "sign", []byte{0x89, 'P', 'N', 'G'})
	req := httptest.NewRequest(http.MethodPost, "/api/upload/image", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.UploadImage(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"text":"STOP"}`, w.Body.String())
	assert.Equal(t, []string{"image:ok"}, rec.calls)
}

// stalledAnswers holds the request until its context gives up.
type stalledAnswers struct{ answersStub }

func (s *stalledAnswers) Answer(ctx context.Context, _, _, _ string) string {
	<-ctx.Done()
	return "Error processing your question: " + ctx.Err().Error()
}

func TestAskTimesOutWithGatewayTimeout(t *testing.T) {
	w := httptest.NewRecorder()
	NewChatHandler(&stalledAnswers{}, 10*time.Millisecond, discard).Ask(w, httptest.NewRequest(http.MethodPost, "/api/ask",
		strings.NewReader(`{"question":"q","llm_model":"roberta-base","context":"c"}`)))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, decodeDetail(t, w), "timed out after 10ms")
}

type stalledExtractor struct{ extractorStub }

func (s *stalledExtractor) Extract(ctx context.Context, _ []byte, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestUploadDocumentTimesOutWithGatewayTimeout(t *testing.T) {
	rec := &recorderStub{}
	h := NewDocumentHandler(&stalledExtractor{}, rec, 1, 10*time.Millisecond, discard)

	body, ct := multipartBody(t, "file", "scan.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/document", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.UploadDocument(w, req)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, []string{"pdf:error"}, rec.calls)
}

func TestAskWithoutTimeoutWaitsForAnswer(t *testing.T) {
	svc := &answersStub{reply: "done"}
	w := httptest.NewRecorder()
	NewChatHandler(svc, 0, discard).Ask(w, httptest.NewRequest(http.MethodPost, "/api/ask",
		strings.NewReader(`{"question":"q","llm_model":"roberta-base","context":"c"}`)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"answer":"done"}`, w.Body.String())
}

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	Healthz(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
