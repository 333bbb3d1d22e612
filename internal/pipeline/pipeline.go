// Package pipeline chains transcription and the optional refinement pass.
package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"rtlscribe/internal/ai"
	"rtlscribe/internal/logging"
	"rtlscribe/internal/stt"
)

// Transcriber is satisfied by *stt.Rotator.
type Transcriber interface {
	Transcribe(ctx context.Context, req *stt.Request) (*stt.Result, error)
}

// Refiner is satisfied by *ai.Refiner.
type Refiner interface {
	Refine(ctx context.Context, cred stt.Credential, transcript string) (*ai.Refined, error)
}

// Options are per-run switches
type Options struct {
	Refine bool
}

// Outcome holds the results of every stage that ran. Transcript is always
// set when Run returns a nil error, even if refinement failed.
type Outcome struct {
	ID         uuid.UUID
	Transcript *stt.Result
	Refined    *ai.Refined
	RefineErr  error
	Elapsed    time.Duration
}

// Text returns the refined text when available, the raw transcript otherwise.
func (o *Outcome) Text() string {
	if o.Refined != nil {
		return o.Refined.Text
	}
	return o.Transcript.Transcript
}

// Pipeline runs transcription then refinement for one upload
type Pipeline struct {
	transcriber Transcriber
	refiner     Refiner
	logger      *log.Logger
}

// New creates a pipeline. refiner may be nil, in which case refinement is
// always skipped.
func New(transcriber Transcriber, refiner Refiner) *Pipeline {
	return &Pipeline{
		transcriber: transcriber,
		refiner:     refiner,
		logger:      logging.For("pipeline"),
	}
}

// CanRefine reports whether a refiner is configured.
func (p *Pipeline) CanRefine() bool {
	return p.refiner != nil
}

// Run transcribes req and, when asked, refines the transcript with the
// credential that produced it. Only a transcription failure is returned as an
// error; a refinement failure is kept in Outcome.RefineErr.
func (p *Pipeline) Run(ctx context.Context, req *stt.Request, opts Options) (*Outcome, error) {
	start := time.Now()
	out := &Outcome{ID: uuid.New()}
	logger := p.logger.With("run", out.ID.String())

	res, err := p.transcriber.Transcribe(ctx, req)
	if err != nil {
		logger.Error("transcription failed", "err", err)
		return nil, err
	}
	out.Transcript = res
	logger.Info("transcribed", "credential", res.Credential.Name, "attempts", len(res.Attempts))

	if opts.Refine && p.refiner != nil {
		refined, err := p.refiner.Refine(ctx, res.Credential, res.Transcript)
		if err != nil {
			logger.Warn("refinement failed, keeping raw transcript", "err", err)
			out.RefineErr = err
		} else {
			out.Refined = refined
		}
	}

	out.Elapsed = time.Since(start)
	return out, nil
}
