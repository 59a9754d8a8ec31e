package notion

import (
	"errors"
	"fmt"
)

var (
	errNoRecordID = errors.New("no record id after last hyphen")

	// ErrMissingCredentials is returned before any request is sent when the
	// client has no token or no database id.
	ErrMissingCredentials = errors.New("notion: missing api token or database id")
)

// ParseError reports a query response whose shape does not match what the
// reader expects. Index is -1 when the problem is not tied to one record.
type ParseError struct {
	Index    int
	Property string
	Reason   string
}

func (e *ParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("notion: malformed response: %s: %s", e.Property, e.Reason)
	}
	return fmt.Sprintf("notion: malformed record %d: property %q: %s", e.Index, e.Property, e.Reason)
}

// APIError is returned when the API answers with a non-2xx status.
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("notion: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}
