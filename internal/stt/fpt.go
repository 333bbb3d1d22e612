package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"rtlscribe/internal/logging"
)

const FPTDefaultURL = "https://api.fpt.ai/hmi/asr/v1"

// FPTProvider implements STT using FPT.AI Speech-to-Text API
type FPTProvider struct {
	url        string
	httpClient *http.Client
	logger     *log.Logger
}

// NewFPTProvider creates a new FPT STT provider
func NewFPTProvider(url string, timeout time.Duration) *FPTProvider {
	if url == "" {
		url = FPTDefaultURL
	}
	return &FPTProvider{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.For("stt.fpt"),
	}
}

// Name returns the provider name
func (p *FPTProvider) Name() string {
	return "fpt"
}

// FPTSTTResponse represents FPT.AI STT API response
type FPTSTTResponse struct {
	Hypotheses []struct {
		Utterance  string  `json:"utterance"`
		Confidence float64 `json:"confidence"`
	} `json:"hypotheses"`
	ErrorCode int    `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Transcribe posts the raw audio body to FPT.AI and returns the best hypothesis
func (p *FPTProvider) Transcribe(ctx context.Context, cred Credential, req *Request) (*Transcript, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(req.Audio))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("api-key", cred.Secret)
	httpReq.Header.Set("Content-Type", "text/plain")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to send request to FPT.AI: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	p.logger.Debug("response", "status", resp.StatusCode, "preview", truncateBody(body))

	var sttResp FPTSTTResponse
	parseErr := json.Unmarshal(body, &sttResp)

	if resp.StatusCode != http.StatusOK {
		perr := &ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode, Message: truncateBody(body)}
		if parseErr == nil && sttResp.ErrorCode != 0 {
			perr.Code = strconv.Itoa(sttResp.ErrorCode)
			perr.Message = sttResp.Message
		}
		return nil, perr
	}

	if parseErr != nil {
		return nil, &ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode, Message: "malformed response", Err: parseErr}
	}

	if sttResp.ErrorCode != 0 {
		return nil, &ProviderError{
			Provider: p.Name(),
			Code:     strconv.Itoa(sttResp.ErrorCode),
			Message:  sttResp.Message,
		}
	}

	if len(sttResp.Hypotheses) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Message: "no speech detected in audio", Err: ErrEmptyTranscript}
	}

	transcript := strings.TrimSpace(sttResp.Hypotheses[0].Utterance)
	if transcript == "" {
		return nil, &ProviderError{Provider: p.Name(), Message: "empty transcript returned", Err: ErrEmptyTranscript}
	}

	return &Transcript{Text: transcript, Language: req.Language}, nil
}
