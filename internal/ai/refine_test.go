package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sashabaranov/go-openai"

	"rtlscribe/internal/metrics"
	"rtlscribe/internal/stt"
)

type fakeChat struct {
	status  int
	body    string
	calls   int
	auth    string
	request openai.ChatCompletionRequest
}

func (f *fakeChat) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}
	f.calls++
	f.auth = r.Header.Get("Authorization")
	b, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(b, &f.request)

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
	}
	io.WriteString(w, f.body)
}

func completion(text string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   DefaultRefineModel,
		"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": text}, "finish_reason": "stop"}},
		"usage":   map[string]int{"prompt_tokens": 120, "completion_tokens": 40, "total_tokens": 160},
	})
	return string(b)
}

func newTestRefiner(t *testing.T, f *fakeChat, cfg RefinerConfig, opts ...RefinerOption) *Refiner {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL + "/v1"
	return NewRefiner(cfg, opts...)
}

func TestRefineUsesWinningCredential(t *testing.T) {
	f := &fakeChat{body: completion("# عنوان\n\n## Key points\n- نقطة")}
	r := newTestRefiner(t, f, RefinerConfig{})
	cred := stt.Credential{Index: 1, Name: "key-2", Secret: "gsk_second"}

	got, err := r.Refine(context.Background(), cred, "نص خام عن Kubernetes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.auth != "Bearer gsk_second" {
		t.Errorf("expected the winning credential, got %q", f.auth)
	}
	if f.calls != 1 {
		t.Errorf("expected exactly one call, got %d", f.calls)
	}
	if f.request.Model != DefaultRefineModel {
		t.Errorf("expected default model, got %s", f.request.Model)
	}
	if len(f.request.Messages) != 2 || f.request.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("unexpected messages %+v", f.request.Messages)
	}
	if !strings.Contains(f.request.Messages[1].Content, "نص خام عن Kubernetes") {
		t.Error("transcript missing from user message")
	}
	if !strings.HasPrefix(got.Text, "# عنوان") {
		t.Errorf("unexpected text %q", got.Text)
	}
	if got.Usage.TotalTokens != 160 {
		t.Errorf("expected usage to be carried, got %+v", got.Usage)
	}
}

func TestRefineTruncatesInput(t *testing.T) {
	f := &fakeChat{body: completion("ok")}
	r := newTestRefiner(t, f, RefinerConfig{MaxChars: 10})

	got, err := r.Refine(context.Background(), stt.Credential{Secret: "k"}, "0123456789-dropped")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Truncated {
		t.Error("expected Truncated to be set")
	}
	user := f.request.Messages[1].Content
	if !strings.Contains(user, "0123456789") || strings.Contains(user, "dropped") {
		t.Errorf("unexpected prompt content %q", user)
	}
}

func TestRefineFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    error
		outcome string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`, nil, "error"},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","code":"rate_limit_exceeded"}}`, nil, "error"},
		{"empty completion", 0, completion("   "), ErrEmptyCompletion, "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.NewMetrics(prometheus.NewRegistry())
			f := &fakeChat{status: tt.status, body: tt.body}
			r := newTestRefiner(t, f, RefinerConfig{}, WithMetrics(m))

			_, err := r.Refine(context.Background(), stt.Credential{Name: "key-1", Secret: "k"}, "نص")

			var rerr *RefinementError
			if !errors.As(err, &rerr) {
				t.Fatalf("expected RefinementError, got %T %v", err, err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if f.calls != 1 {
				t.Errorf("expected a single call with no retry, got %d", f.calls)
			}
			if got := testutil.ToFloat64(m.Refinements.WithLabelValues(tt.outcome)); got != 1 {
				t.Errorf("expected %s outcome counted once, got %v", tt.outcome, got)
			}
		})
	}
}

func TestRefineEmptyTranscriptMakesNoCall(t *testing.T) {
	f := &fakeChat{body: completion("x")}
	r := newTestRefiner(t, f, RefinerConfig{})

	_, err := r.Refine(context.Background(), stt.Credential{}, "  ")
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if f.calls != 0 {
		t.Errorf("expected no call, got %d", f.calls)
	}
}
