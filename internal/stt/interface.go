package stt

import "context"

// Provider defines the interface for speech-to-text backends. A provider is
// stateless with respect to credentials: the caller picks which account each
// call is made with.
type Provider interface {
	// Transcribe sends the request audio using the given credential
	Transcribe(ctx context.Context, cred Credential, req *Request) (*Transcript, error)

	// Name returns the name of the provider (e.g., "groq", "fpt")
	Name() string
}
