package appraise

import (
	"errors"
	"fmt"
)

// Reason classifies an appraisal failure for the caller. Every reason maps to
// the same user-facing outcome (retry with a clearer photo); the distinction
// exists for logs and metrics.
type Reason string

const (
	ReasonUpstream Reason = "upstream_error"
	ReasonEmpty    Reason = "empty_response"
	ReasonParse    Reason = "parse_error"
)

// Error is the typed failure returned by Client.Analyze. No retry happens at
// this layer; a human is present to decide whether to resubmit.
type Error struct {
	Reason     Reason
	StatusCode int    // set for upstream_error when known
	Snippet    string // truncated offending text for parse_error
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Snippet != "":
		return fmt.Sprintf("appraise: %s: %q", e.Reason, e.Snippet)
	case e.StatusCode != 0:
		return fmt.Sprintf("appraise: %s (status %d)", e.Reason, e.StatusCode)
	default:
		return fmt.Sprintf("appraise: %s", e.Reason)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the failure reason from an error chain, or "" if the
// error is not an appraisal failure.
func ReasonOf(err error) Reason {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ""
}
