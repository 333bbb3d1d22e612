package stt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeWhisper mimics an OpenAI-compatible transcription endpoint. Secrets
// listed in limited get a 429 in the Groq error format.
type fakeWhisper struct {
	mu      sync.Mutex
	limited map[string]bool
	failing map[string]bool
	seen    []string
	fields  map[string]string
	audio   []string
}

func (f *fakeWhisper) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path != "/openai/v1/audio/transcriptions" {
		http.NotFound(w, r)
		return
	}

	key := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.seen = append(f.seen, key)

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.fields = map[string]string{}
	for k, v := range r.MultipartForm.Value {
		f.fields[k] = v[0]
	}
	if file, _, err := r.FormFile("file"); err == nil {
		b, _ := io.ReadAll(file)
		f.audio = append(f.audio, string(b))
		file.Close()
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case f.limited[key]:
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"Rate limit reached for model whisper-large-v3","type":"audio","code":"rate_limit_exceeded"}}`)
	case f.failing[key]:
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `<html>bad gateway</html>`)
	default:
		io.WriteString(w, `{"text":" مرحبا بكم في الاجتماع ","language":"arabic","duration":3.5}`)
	}
}

func newFakeProvider(t *testing.T, f *fakeWhisper) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewOpenAIProvider("groq", srv.URL+"/openai/v1", "", 5*time.Second)
}

func TestOpenAIProviderSendsRequestFields(t *testing.T) {
	f := &fakeWhisper{}
	p := newFakeProvider(t, f)

	got, err := p.Transcribe(context.Background(), Credential{Name: "k1", Secret: "gsk_one"}, &Request{
		Audio:    []byte("ID3-audio"),
		Filename: "lecture.mp3",
		Language: "ar",
		Prompt:   "Kubernetes, Golang",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "مرحبا بكم في الاجتماع" {
		t.Errorf("expected trimmed transcript, got %q", got.Text)
	}
	if got.Duration != 3.5 {
		t.Errorf("expected duration 3.5, got %v", got.Duration)
	}
	if f.fields["model"] != GroqWhisperModel || f.fields["language"] != "ar" || f.fields["prompt"] != "Kubernetes, Golang" {
		t.Errorf("unexpected form fields %v", f.fields)
	}
	if f.fields["response_format"] != "json" {
		t.Errorf("expected json response format, got %q", f.fields["response_format"])
	}
	if len(f.audio) != 1 || f.audio[0] != "ID3-audio" {
		t.Errorf("unexpected audio payload %q", f.audio)
	}
}

func TestOpenAIProviderNormalizesRateLimit(t *testing.T) {
	f := &fakeWhisper{limited: map[string]bool{"gsk_one": true}}
	p := newFakeProvider(t, f)

	_, err := p.Transcribe(context.Background(), Credential{Secret: "gsk_one"}, &Request{Audio: []byte("x"), Filename: "a.wav"})

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %T %v", err, err)
	}
	if perr.StatusCode != http.StatusTooManyRequests || perr.Code != "rate_limit_exceeded" {
		t.Errorf("unexpected normalised error %+v", perr)
	}
	if Classify(err) != ClassRateLimited {
		t.Errorf("expected rate limited class, got %s", Classify(err))
	}
}

func TestOpenAIProviderNonJSONErrorIsFatal(t *testing.T) {
	f := &fakeWhisper{failing: map[string]bool{"gsk_one": true}}
	p := newFakeProvider(t, f)

	_, err := p.Transcribe(context.Background(), Credential{Secret: "gsk_one"}, &Request{Audio: []byte("x"), Filename: "a.wav"})

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %T %v", err, err)
	}
	if perr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", perr.StatusCode)
	}
	if Classify(err) != ClassFatal {
		t.Errorf("expected fatal class, got %s", Classify(err))
	}
}

func TestRotatorOverOpenAIProviderFallsBack(t *testing.T) {
	f := &fakeWhisper{limited: map[string]bool{"gsk_one": true, "gsk_two": true}}
	p := newFakeProvider(t, f)
	r := NewRotator(p, NewCredentials([]string{"gsk_one", "gsk_two", "gsk_three"}))

	res, err := r.Transcribe(context.Background(), &Request{Audio: []byte("same-bytes"), Filename: "a.m4a", Language: "ar"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Credential.Secret != "gsk_three" {
		t.Errorf("expected third key to win, got %s", res.Credential.Name)
	}
	if strings.Join(f.seen, ",") != "gsk_one,gsk_two,gsk_three" {
		t.Errorf("unexpected call order %v", f.seen)
	}
	for _, a := range f.audio {
		if a != "same-bytes" {
			t.Errorf("expected every attempt to resend the same audio, got %q", a)
		}
	}
}
