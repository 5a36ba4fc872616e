package responses

import (
	"github.com/postcode-matcher/app/models"
)

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`                // machine-readable code
	Message   string `json:"message"`              // human-readable detail
	Field     string `json:"field,omitempty"`      // offending parameter, when known
	RequestID string `json:"request_id,omitempty"` // echoed X-Request-ID
}

// Error codes.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidParameter   = "INVALID_PARAMETER"
	CodeDatasetUnavailable = "DATASET_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ResolveResponse struct {
	Query            string                  `json:"query"`
	State            string                  `json:"state,omitempty"`
	Count            int                     `json:"count"`
	Results          []models.MatchCandidate `json:"results"`
	ProcessingTimeMs int64                   `json:"processing_time_ms"`
}

type ScoreResponse struct {
	Matched   bool                  `json:"matched"`
	Candidate models.MatchCandidate `json:"candidate"`
}

type RecordsResponse struct {
	Query   string                   `json:"query"`
	Count   int                      `json:"count"`
	Records []*models.LocationRecord `json:"records"`
}

type AutocompleteResponse struct {
	Prefix      string   `json:"prefix"`
	Suggestions []string `json:"suggestions"`
}

type LGAListResponse struct {
	State string              `json:"state,omitempty"`
	Count int                 `json:"count"`
	LGAs  []models.LGASummary `json:"lgas"`
}

type StateStatsResponse struct {
	States []models.StateStats `json:"states"`
}

type PhoneticCodeResponse struct {
	Input string   `json:"input"`
	Codes []string `json:"codes"`
}

// HealthResponse reports readiness. Generation is 0 before the first load.
type HealthResponse struct {
	Status     string `json:"status"`
	Generation uint64 `json:"generation"`
	Records    int    `json:"records"`
	Timestamp  string `json:"timestamp"`
}

type IndexResponse struct {
	Indexed          int   `json:"indexed"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}
