package stt

import "fmt"

// Credential is one account with the transcription provider. The position
// in the list given to a Rotator is its fallback priority.
type Credential struct {
	Index  int
	Name   string
	Secret string
}

// NewCredentials builds an ordered credential list from raw secrets.
// Names default to "key-1", "key-2", ... when not given.
func NewCredentials(secrets []string, names ...string) []Credential {
	creds := make([]Credential, 0, len(secrets))
	for i, s := range secrets {
		name := fmt.Sprintf("key-%d", i+1)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		creds = append(creds, Credential{Index: i, Name: name, Secret: s})
	}
	return creds
}

// String never includes the secret.
func (c Credential) String() string {
	return fmt.Sprintf("%s(#%d, %s)", c.Name, c.Index, mask(c.Secret))
}

func mask(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-2:]
}
