package utils

import (
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key the request ID is stored under.
	RequestIDKey = "request_id"
)

// maxRequestIDLen bounds caller-supplied IDs before they reach the logs.
const maxRequestIDLen = 128

// GenerateUUID returns a random v4 UUID.
func GenerateUUID() string {
	return uuid.NewString()
}

// RequestID returns incoming when it is a usable ID, otherwise a fresh UUID.
func RequestID(incoming string) string {
	if incoming == "" || len(incoming) > maxRequestIDLen {
		return GenerateUUID()
	}
	for i := 0; i < len(incoming); i++ {
		if c := incoming[i]; c < 0x21 || c > 0x7e {
			return GenerateUUID()
		}
	}
	return incoming
}
