package stt

import (
	"errors"
	"net/http"
)

// ClassificationVersion identifies the rule set used by Classify. Bump it
// whenever the code or type tables change.
const ClassificationVersion = "2024-11.v1"

// Class is the rotation-relevant category of a failed call.
type Class int

const (
	ClassNone Class = iota
	ClassRateLimited
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "ok"
	case ClassRateLimited:
		return "rate_limited"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Per-account quota codes used by OpenAI-compatible APIs (OpenAI, Groq).
var rateLimitCodes = map[string]bool{
	"rate_limit_exceeded": true,
	"insufficient_quota":  true,
}

var rateLimitTypes = map[string]bool{
	"rate_limit_exceeded": true,
}

// Classify maps an error to a Class using only structured fields of a
// ProviderError. Anything that is not recognisably an account quota problem
// is fatal for the request.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}

	var perr *ProviderError
	if !errors.As(err, &perr) {
		return ClassFatal
	}

	if perr.StatusCode == http.StatusTooManyRequests {
		return ClassRateLimited
	}
	if rateLimitCodes[perr.Code] || rateLimitTypes[perr.Type] {
		return ClassRateLimited
	}
	return ClassFatal
}
