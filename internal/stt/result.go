package stt

import "time"

// Transcript is what a single provider call returns
type Transcript struct {
	Text     string
	Language string
	Duration float64 // audio duration in seconds, 0 if not reported
}

// Attempt records one outbound call made during rotation
type Attempt struct {
	Credential Credential
	Class      Class
	Err        error
	Elapsed    time.Duration
}

// Result represents the outcome of a successful rotation
type Result struct {
	Transcript string
	Language   string
	Duration   float64
	Provider   string
	Credential Credential // the credential that produced the transcript
	Attempts   []Attempt
	Elapsed    time.Duration
}
