package wordgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"posterlab/internal/domain"
)

const (
	openAIDefaultTimeout = 15 * time.Second
	defaultOpenAIModel   = "gpt-4o-mini"

	systemInstruction = "You are a helpful assistant that returns a single English word, its concise one-line meaning, and a short example sentence using the word. Output must be valid JSON with keys: word, meaning, example. Do NOT output any other text."
)

type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
	// OnFallback is invoked whenever the remote path is abandoned and a
	// sample triple is served instead.
	OnFallback func(reason string, err error)
	// Intn allows tests to pin the fallback sample choice.
	Intn func(int) int
}

// OpenAIGenerator asks a chat-completion endpoint for the triple and falls
// back to the sample table on any failure. An empty API key is valid: the
// generator then always serves samples.
type OpenAIGenerator struct {
	apiKey     string
	model      string
	baseURL    string
	client     *http.Client
	logger     zerolog.Logger
	onFallback func(reason string, err error)
	intn       func(int) int
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
}

func NewOpenAIGenerator(opts OpenAIOptions) *OpenAIGenerator {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &OpenAIGenerator{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      model,
		baseURL:    baseURL,
		client:     client,
		logger:     logger,
		onFallback: opts.OnFallback,
		intn:       opts.Intn,
	}
}

// Generate never fails: every error path ends in a fallback sample.
func (g *OpenAIGenerator) Generate(ctx context.Context, theme, level string) domain.WordText {
	if g.apiKey == "" {
		return g.useFallback("missing_api_key", nil)
	}

	payload := chatRequest{
		Model:       g.model,
		Temperature: 0.7,
		MaxTokens:   200,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: buildUserPrompt(theme, level)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return g.useFallback("encode_request", err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", g.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return g.useFallback("build_request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return g.useFallback("http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return g.useFallback(fmt.Sprintf("http_%d", resp.StatusCode), fmt.Errorf("openai status %d", resp.StatusCode))
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return g.useFallback("decode_response", err)
	}
	if len(out.Choices) == 0 {
		return g.useFallback("empty_choices", errors.New("no choices"))
	}
	content := out.Choices[0].Message.Content
	if content == "" {
		content = out.Choices[0].Text
	}
	raw, ok := extractJSONObject(content)
	if !ok {
		return g.useFallback("no_json_object", errors.New("no JSON object in response"))
	}
	var text domain.WordText
	if err := json.Unmarshal([]byte(raw), &text); err != nil {
		return g.useFallback("parse_payload", err)
	}
	if !text.Complete() {
		return g.useFallback("incomplete_triple", errors.New("missing word, meaning or example"))
	}
	return text
}

func (g *OpenAIGenerator) useFallback(reason string, err error) domain.WordText {
	g.logger.Warn().Err(err).Str("reason", reason).Msg("wordgen: falling back to sample triple")
	if g.onFallback != nil {
		g.onFallback(reason, err)
	}
	return pickSample(g.intn)
}

func buildUserPrompt(theme, level string) string {
	return fmt.Sprintf(
		"Generate a %s difficulty word related to the theme %q. Return only a JSON object like {\"word\":\"...\",\"meaning\":\"...\",\"example\":\"...\"}",
		level, theme,
	)
}

// extractJSONObject returns the substring from the first '{' to the last '}'.
// Models often wrap the object in prose or code fences; everything around the
// outermost braces is ignored.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

var _ Generator = (*OpenAIGenerator)(nil)
