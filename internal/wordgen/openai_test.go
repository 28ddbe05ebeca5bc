package wordgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"posterlab/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func chatBody(content string) string {
	quoted := fmt.Sprintf("%q", content)
	return `{"choices":[{"message":{"content":` + quoted + `}}]}`
}

func inFallbackSet(t *testing.T, got domain.WordText) {
	t.Helper()
	for _, s := range Samples() {
		if got == s {
			return
		}
	}
	t.Fatalf("triple %+v is not one of the fallback samples", got)
}

func TestGenerateParsesRemoteTriple(t *testing.T) {
	g := NewOpenAIGenerator(OpenAIOptions{
		APIKey: "sk-test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/v1/chat/completions" {
				t.Fatalf("unexpected path %q", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
				t.Fatalf("Authorization = %q", got)
			}
			return jsonResponse(http.StatusOK, chatBody(`Sure! {"word":"Luminous","meaning":"Emitting light.","example":"The luminous moon lit the path."}`)), nil
		})},
	})
	got := g.Generate(context.Background(), "Night", "easy")
	want := domain.WordText{Word: "Luminous", Meaning: "Emitting light.", Example: "The luminous moon lit the path."}
	if got != want {
		t.Fatalf("Generate() = %+v, want %+v", got, want)
	}
}

func TestGenerateFallsBackWithoutKey(t *testing.T) {
	var reason string
	g := NewOpenAIGenerator(OpenAIOptions{
		OnFallback: func(r string, err error) { reason = r },
	})
	got := g.Generate(context.Background(), "Motivation", "easy")
	if !got.Complete() {
		t.Fatalf("fallback triple incomplete: %+v", got)
	}
	inFallbackSet(t, got)
	if reason != "missing_api_key" {
		t.Fatalf("fallback reason = %q, want missing_api_key", reason)
	}
}

func TestGenerateFallsBackOnTransportError(t *testing.T) {
	var reason string
	g := NewOpenAIGenerator(OpenAIOptions{
		APIKey: "sk-test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})},
		OnFallback: func(r string, err error) { reason = r },
	})
	inFallbackSet(t, g.Generate(context.Background(), "Sea", "hard"))
	if reason != "http_request" {
		t.Fatalf("fallback reason = %q, want http_request", reason)
	}
}

func TestGenerateFallsBackOnBadPayloads(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		reason string
	}{
		{"http error", `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests, "http_429"},
		{"no choices", `{"choices":[]}`, http.StatusOK, "empty_choices"},
		{"no json object", chatBody("I cannot answer that."), http.StatusOK, "no_json_object"},
		{"missing field", chatBody(`{"word":"Half","meaning":"","example":""}`), http.StatusOK, "incomplete_triple"},
		{"broken json", chatBody(`{"word": "Oops"`), http.StatusOK, "no_json_object"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var reason string
			g := NewOpenAIGenerator(OpenAIOptions{
				APIKey: "sk-test",
				HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
					return jsonResponse(tc.status, tc.body), nil
				})},
				OnFallback: func(r string, err error) { reason = r },
			})
			inFallbackSet(t, g.Generate(context.Background(), "Theme", "medium"))
			if reason != tc.reason {
				t.Fatalf("fallback reason = %q, want %q", reason, tc.reason)
			}
		})
	}
}

func TestStaticGeneratorIsIdempotentlyValid(t *testing.T) {
	g := Static{}
	for i := 0; i < 25; i++ {
		got := g.Generate(context.Background(), "Anything", "easy")
		if !got.Complete() {
			t.Fatalf("iteration %d produced incomplete triple %+v", i, got)
		}
		inFallbackSet(t, got)
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{"```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"prefix {\"a\":{\"b\":2}} suffix", `{"a":{"b":2}}`, true},
		{"no braces here", "", false},
		{"only open {", "", false},
		{"} reversed {", "", false},
	}
	for _, tc := range tests {
		got, ok := extractJSONObject(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("extractJSONObject(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
