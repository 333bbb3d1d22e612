package stt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"rtlscribe/internal/logging"
	"rtlscribe/internal/metrics"
)

const (
	DefaultCallTimeout = 90 * time.Second
	DefaultCooldown    = 60 * time.Second
)

// state of one rotation run
type state int

const (
	stateTrying state = iota
	stateSucceeded
	stateExhausted
	stateAborted
)

func (s state) String() string {
	switch s {
	case stateTrying:
		return "trying"
	case stateSucceeded:
		return "succeeded"
	case stateExhausted:
		return "exhausted"
	default:
		return "aborted"
	}
}

// Rotator obtains a transcript by trying credentials in priority order.
// It holds no per-request state; every call starts at the first credential.
type Rotator struct {
	provider    Provider
	creds       []Credential
	maxBytes    int64
	callTimeout time.Duration
	cooldown    time.Duration
	metrics     *metrics.Metrics
	logger      *log.Logger
}

// RotatorOption configures a Rotator
type RotatorOption func(*Rotator)

// WithCallTimeout bounds each provider call.
func WithCallTimeout(d time.Duration) RotatorOption {
	return func(r *Rotator) { r.callTimeout = d }
}

// WithCooldown sets the wait suggested when every credential is rate limited.
func WithCooldown(d time.Duration) RotatorOption {
	return func(r *Rotator) { r.cooldown = d }
}

// WithMaxAudioBytes sets the pre-flight audio size ceiling.
func WithMaxAudioBytes(n int64) RotatorOption {
	return func(r *Rotator) { r.maxBytes = n }
}

// WithMetrics records attempts and outcomes.
func WithMetrics(m *metrics.Metrics) RotatorOption {
	return func(r *Rotator) { r.metrics = m }
}

// NewRotator creates a rotator over an ordered credential list. The slice is
// copied so later changes by the caller have no effect.
func NewRotator(provider Provider, creds []Credential, opts ...RotatorOption) *Rotator {
	r := &Rotator{
		provider:    provider,
		creds:       append([]Credential(nil), creds...),
		maxBytes:    DefaultMaxAudioBytes,
		callTimeout: DefaultCallTimeout,
		cooldown:    DefaultCooldown,
		logger:      logging.For("stt"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Credentials returns a copy of the configured credential list.
func (r *Rotator) Credentials() []Credential {
	return append([]Credential(nil), r.creds...)
}

// ProviderName returns the backend name.
func (r *Rotator) ProviderName() string {
	return r.provider.Name()
}

// Transcribe runs the request against credential 0, 1, ... advancing only on
// rate-limit failures. Errors: ErrNoCredentials, ErrInvalidRequest,
// *RateLimitExhaustedError or *ServiceError.
func (r *Rotator) Transcribe(ctx context.Context, req *Request) (*Result, error) {
	if len(r.creds) == 0 {
		return nil, ErrNoCredentials
	}
	if err := req.Validate(r.maxBytes); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { r.metrics.ObserveDuration(time.Since(start).Seconds()) }()

	attempts := make([]Attempt, 0, len(r.creds))
	st := stateTrying

	for i := 0; st == stateTrying; {
		cred := r.creds[i]
		r.logger.Info("attempt", "state", st, "credential", cred.Name, "index", i, "bytes", len(req.Audio))

		transcript, elapsed, err := r.call(ctx, cred, req)
		class := Classify(err)
		if err != nil && ctx.Err() != nil {
			// the caller gave up, later credentials would fail the same way
			class = ClassFatal
		}
		attempts = append(attempts, Attempt{Credential: cred, Class: class, Err: err, Elapsed: elapsed})
		r.metrics.ObserveAttempt(r.provider.Name(), class.String())

		switch class {
		case ClassNone:
			st = stateSucceeded
			r.logger.Info("transcription succeeded", "state", st, "credential", cred.Name,
				"attempts", len(attempts), "length", len(transcript.Text), "elapsed", time.Since(start))
			return &Result{
				Transcript: transcript.Text,
				Language:   transcript.Language,
				Duration:   transcript.Duration,
				Provider:   r.provider.Name(),
				Credential: cred,
				Attempts:   attempts,
				Elapsed:    time.Since(start),
			}, nil

		case ClassRateLimited:
			if i+1 < len(r.creds) {
				r.logger.Warn("rate limited, trying next credential", "credential", cred.Name, "next", r.creds[i+1].Name)
				r.metrics.ObserveRotation()
				i++
				continue
			}
			st = stateExhausted

		default:
			st = stateAborted
		}
	}

	if st == stateExhausted {
		r.metrics.ObserveExhausted()
		r.logger.Error("all credentials rate limited", "state", st, "attempts", len(attempts), "retry_after", r.cooldown)
		return nil, &RateLimitExhaustedError{Attempts: attempts, RetryAfter: r.cooldown}
	}

	last := attempts[len(attempts)-1]
	r.metrics.ObserveAborted()
	r.logger.Error("transcription aborted", "state", st, "credential", last.Credential.Name, "err", last.Err)
	return nil, &ServiceError{Credential: last.Credential, Err: last.Err}
}

// call performs one provider call under its own timeout.
func (r *Rotator) call(ctx context.Context, cred Credential, req *Request) (*Transcript, time.Duration, error) {
	callCtx := ctx
	if r.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
	}

	start := time.Now()
	t, err := r.provider.Transcribe(callCtx, cred, req)
	if err == nil && t == nil {
		err = fmt.Errorf("%s returned no transcript: %w", r.provider.Name(), ErrEmptyTranscript)
	}
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("call timed out after %s: %w", r.callTimeout, err)
	}
	return t, time.Since(start), err
}
