package stt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFPTProvider(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantText  string
		wantClass Class
		wantEmpty bool
	}{
		{
			name:     "success",
			status:   http.StatusOK,
			body:     `{"hypotheses":[{"utterance":"  xin chao  ","confidence":0.9}]}`,
			wantText: "xin chao",
		},
		{
			name:      "rate limited",
			status:    http.StatusTooManyRequests,
			body:      `{"errorCode":429,"message":"too many requests"}`,
			wantClass: ClassRateLimited,
		},
		{
			name:      "api error code",
			status:    http.StatusOK,
			body:      `{"errorCode":9,"message":"invalid audio"}`,
			wantClass: ClassFatal,
		},
		{
			name:      "no hypotheses",
			status:    http.StatusOK,
			body:      `{"hypotheses":[]}`,
			wantClass: ClassFatal,
			wantEmpty: true,
		},
		{
			name:      "malformed",
			status:    http.StatusOK,
			body:      `not json`,
			wantClass: ClassFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotKey string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotKey = r.Header.Get("api-key")
				b, _ := io.ReadAll(r.Body)
				if string(b) != "pcm" {
					t.Errorf("unexpected body %q", b)
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			p := NewFPTProvider(srv.URL, 5*time.Second)
			got, err := p.Transcribe(context.Background(), Credential{Secret: "fpt-key"}, &Request{Audio: []byte("pcm"), Language: "vi"})

			if gotKey != "fpt-key" {
				t.Errorf("expected api-key header, got %q", gotKey)
			}
			if tt.wantText != "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Text != tt.wantText {
					t.Errorf("expected %q, got %q", tt.wantText, got.Text)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if c := Classify(err); c != tt.wantClass {
				t.Errorf("expected class %s, got %s", tt.wantClass, c)
			}
			if tt.wantEmpty && !errors.Is(err, ErrEmptyTranscript) {
				t.Errorf("expected ErrEmptyTranscript, got %v", err)
			}
		})
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
		wantErr  bool
	}{
		{"", "groq", false},
		{"groq", "groq", false},
		{"OpenAI", "openai", false},
		{"fpt", "fpt", false},
		{"google", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(ProviderConfig{Name: tt.name, Timeout: time.Second})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("expected %s, got %s", tt.wantName, p.Name())
			}
		})
	}
}
