package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/markdave123-py/contexta-qa/internal/core"
	"github.com/markdave123-py/contexta-qa/internal/core/resilience"
)

var _ core.TextGenerator = (*GeminiGenerator)(nil)

// GeminiGenerator answers free-form prompts with a Gemini model.
type GeminiGenerator struct {
	client *genai.Client
	exec   *resilience.Executor
}

func NewGeminiGenerator(ctx context.Context, apiKey string, exec *resilience.Executor) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if exec == nil {
		exec = resilience.NewExecutor(resilience.DefaultPolicy(), nil)
	}
	return &GeminiGenerator{client: cl, exec: exec}, nil
}

func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, model, prompt string, opts core.GenerationOptions) (string, error) {
	m := g.client.GenerativeModel(model)
	if opts.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	m.SetTemperature(float32(opts.Temperature))

	var resp *genai.GenerateContentResponse
	err := g.exec.Do(ctx, "gemini:"+model, func(ctx context.Context) error {
		var err error
		resp, err = m.GenerateContent(ctx, genai.Text(prompt))
		return err
	}, classifyGemini)
	if err != nil {
		return "", core.WrapError(core.ErrModelInvocation, "gemini generate", err)
	}
	return candidateText(resp), nil
}

// classifyGemini reads the API status carried by SDK errors. REST calls
// surface *googleapi.Error, gRPC calls a status code; either way a rejected
// request must not count against the breaker.
func classifyGemini(err error) resilience.Verdict {
	if err == nil {
		return resilience.Verdict{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Verdict{}
	}
	if resilience.IsOpen(err) {
		return resilience.Verdict{Trip: true}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return statusVerdict(apiErr.Code)
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded,
			codes.Internal, codes.Aborted:
			return resilience.Verdict{Retry: true, Trip: true}
		case codes.InvalidArgument, codes.PermissionDenied, codes.Unauthenticated,
			codes.NotFound, codes.FailedPrecondition, codes.OutOfRange:
			return resilience.Verdict{}
		}
	}
	return resilience.Verdict{Trip: true}
}

// candidateText concatenates the text parts of the first candidate.
func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
