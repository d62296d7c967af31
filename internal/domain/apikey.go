package domain

import "time"

// APIKey identifies a calling service. Hash is derived from Alias and the
// shared issuance secret, so re-issuing for the same alias yields the same hash.
type APIKey struct {
	Alias          string
	Hash           string
	HealthEndpoint *string
}

// APICall is an append-only record of one metered request.
type APICall struct {
	Alias     string
	Path      string
	Method    string
	Status    int
	Elapsed   float64 // seconds
	Timestamp time.Time
}
