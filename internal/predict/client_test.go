package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return NewClient(Options{
		Token:        "r8_test",
		BaseURL:      srv.URL,
		ModelVersion: "db21e45f",
		HTTPClient:   srv.Client(),
		PollTimeout:  200 * time.Millisecond,
		PollInterval: time.Millisecond,
	})
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestCreateSubmitsVersionAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predictions" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token r8_test" {
			t.Fatalf("Authorization = %q", got)
		}
		var payload struct {
			Version string         `json:"version"`
			Input   map[string]any `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.Version != "db21e45f" {
			t.Fatalf("version = %q", payload.Version)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"p-1","status":"starting","urls":{"get":"`+`http://ignored/predictions/p-1"}}`)
	}))
	defer srv.Close()

	pred, err := testClient(t, srv).Create(context.Background(), "db21e45f", map[string]any{"prompt": "x"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if pred.ID != "p-1" || pred.Status != StatusStarting {
		t.Fatalf("prediction = %+v", pred)
	}
}

func TestCreateRejectedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"detail":"version does not exist"}`)
	}))
	defer srv.Close()

	_, err := testClient(t, srv).Create(context.Background(), "bad", nil)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *RequestError", err)
	}
	if reqErr.Status != http.StatusUnprocessableEntity || reqErr.Message != "version does not exist" {
		t.Fatalf("request error = %+v", reqErr)
	}
}

func TestCreateRequiresID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"starting"}`)
	}))
	defer srv.Close()

	_, err := testClient(t, srv).Create(context.Background(), "v", nil)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *RequestError for missing id", err)
	}
}

func TestWaitPollsUntilSucceeded(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch polls.Add(1) {
		case 1, 2:
			fmt.Fprint(w, `{"id":"p-2","status":"processing"}`)
		default:
			fmt.Fprint(w, `{"id":"p-2","status":"succeeded","output":["http://assets/one.png"]}`)
		}
	}))
	defer srv.Close()

	pred, err := testClient(t, srv).Wait(context.Background(), "p-2")
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if url, ok := pred.FirstOutput(); !ok || url != "http://assets/one.png" {
		t.Fatalf("FirstOutput = %q, %v", url, ok)
	}
	if polls.Load() < 3 {
		t.Fatalf("polls = %d, want at least 3", polls.Load())
	}
}

func TestWaitSurfacesRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"p-3","status":"failed","error":"NSFW content detected"}`)
	}))
	defer srv.Close()

	_, err := testClient(t, srv).Wait(context.Background(), "p-3")
	var failed *PredictionFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("error = %v, want *PredictionFailedError", err)
	}
	if failed.Status != StatusFailed || failed.Reason != "NSFW content detected" {
		t.Fatalf("failure = %+v", failed)
	}
}

func TestWaitTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"p-4","status":"processing"}`)
	}))
	defer srv.Close()

	c := NewClient(Options{
		Token:        "r8_test",
		BaseURL:      srv.URL,
		HTTPClient:   srv.Client(),
		PollTimeout:  5 * time.Millisecond,
		PollInterval: time.Millisecond,
	})
	start := time.Now()
	_, err := c.Wait(context.Background(), "p-4")
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("error = %v, want ErrPollTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout took %v, want bounded wait", elapsed)
	}
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"p-5","status":"starting"}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewClient(Options{
		Token:        "r8_test",
		BaseURL:      srv.URL,
		HTTPClient:   srv.Client(),
		PollTimeout:  time.Minute,
		PollInterval: 50 * time.Millisecond,
	})
	if _, err := c.Wait(ctx, "p-5"); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestDownloadErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testClient(t, srv).Download(context.Background(), srv.URL+"/missing.png")
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("error = %v, want *DownloadError", err)
	}
	if dlErr.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", dlErr.Status)
	}
}

func TestIllustrationFullChain(t *testing.T) {
	asset := tinyPNG(t)
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/predictions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":"p-6","status":"starting","urls":{"get":"%s/predictions/p-6"}}`, srv.URL)
	})
	mux.HandleFunc("/predictions/p-6", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":"p-6","status":"succeeded","output":"%s/assets/p-6.png"}`, srv.URL)
	})
	mux.HandleFunc("/assets/p-6.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(asset)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	data, err := testClient(t, srv).Illustration(context.Background(), "a calm sea at dusk")
	if err != nil {
		t.Fatalf("Illustration returned error: %v", err)
	}
	if !bytes.Equal(data, asset) {
		t.Fatal("downloaded asset does not match served bytes")
	}
}

func TestIllustrationRejectsUndecodableAsset(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/predictions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":"p-7","status":"starting","urls":{"get":"%s/predictions/p-7"}}`, srv.URL)
	})
	mux.HandleFunc("/predictions/p-7", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":"p-7","status":"succeeded","output":["%s/assets/p-7.bin"]}`, srv.URL)
	})
	mux.HandleFunc("/assets/p-7.bin", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "definitely not an image")
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	_, err := testClient(t, srv).Illustration(context.Background(), "x")
	if !errors.Is(err, ErrInvalidAsset) {
		t.Fatalf("error = %v, want ErrInvalidAsset", err)
	}
}

func TestOutputURLsUnmarshalShapes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{`{"output":["a","b"]}`, 2},
		{`{"output":"single"}`, 1},
		{`{"output":null}`, 0},
		{`{}`, 0},
	}
	for _, tc := range tests {
		var pred Prediction
		if err := json.Unmarshal([]byte(tc.in), &pred); err != nil {
			t.Fatalf("unmarshal %q: %v", tc.in, err)
		}
		if len(pred.Output) != tc.want {
			t.Fatalf("len(output) for %q = %d, want %d", tc.in, len(pred.Output), tc.want)
		}
	}
}
