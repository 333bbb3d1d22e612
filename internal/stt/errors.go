package stt

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoCredentials is the configuration error returned before any call is made.
	ErrNoCredentials = errors.New("no transcription credentials configured")

	// ErrInvalidRequest marks requests rejected by pre-flight validation.
	ErrInvalidRequest = errors.New("invalid transcription request")

	// ErrAudioTooLarge is an ErrInvalidRequest for audio above the size ceiling.
	ErrAudioTooLarge = fmt.Errorf("%w: audio too large", ErrInvalidRequest)

	// ErrEmptyTranscript is returned by providers when no speech was recognised.
	ErrEmptyTranscript = errors.New("empty transcript returned")
)

// ProviderError is the normalised form of a failed provider call. Backends
// translate their SDK or HTTP errors into it so classification never depends
// on free-form message text.
type ProviderError struct {
	Provider   string
	StatusCode int    // HTTP status, 0 when the call never got a response
	Code       string // structured provider code, e.g. "rate_limit_exceeded"
	Type       string // structured provider category, e.g. "tokens"
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Code != "":
		return fmt.Sprintf("%s API error (status %d, code %s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// RateLimitExhaustedError means every credential was rate limited. It is
// retryable after a cool-down, unlike ServiceError.
type RateLimitExhaustedError struct {
	Attempts   []Attempt
	RetryAfter time.Duration
}

func (e *RateLimitExhaustedError) Error() string {
	return fmt.Sprintf("all %d credentials are rate limited, retry after %s", len(e.Attempts), e.RetryAfter)
}

// Unwrap returns the error of the final attempt, if any.
func (e *RateLimitExhaustedError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// ServiceError is a non rate-limit failure. Rotation stops at the credential
// that produced it.
type ServiceError struct {
	Credential Credential
	Err        error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("transcription failed on %s: %v", e.Credential.Name, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IsRateLimitExhausted reports whether err is a RateLimitExhaustedError.
func IsRateLimitExhausted(err error) bool {
	var target *RateLimitExhaustedError
	return errors.As(err, &target)
}
