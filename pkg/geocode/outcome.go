package geocode

import (
	"context"
	"errors"
	"strconv"

	"github.com/worldnewsmap/newsgeo/internal/model"
	"github.com/worldnewsmap/newsgeo/internal/resilience"
)

// OutcomeKind classifies a search.
type OutcomeKind int

const (
	// OutcomeHit means the acceptance policy selected a place.
	OutcomeHit OutcomeKind = iota
	// OutcomeAmbiguous means results came back but none could be accepted.
	OutcomeAmbiguous
	// OutcomeEmpty means the provider found nothing.
	OutcomeEmpty
	// OutcomeNetworkError means no usable response was received.
	OutcomeNetworkError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeHit:
		return "hit"
	case OutcomeAmbiguous:
		return "ambiguous"
	case OutcomeEmpty:
		return "empty"
	case OutcomeNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// ErrorKind refines OutcomeNetworkError.
type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindTimeout
	ErrorKindConnection
	ErrorKindTransport
	ErrorKindHTTPStatus
	ErrorKindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindConnection:
		return "connection"
	case ErrorKindTransport:
		return "transport"
	case ErrorKindHTTPStatus:
		return "http_status"
	case ErrorKindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Outcome is the result of one search. Coordinate is set only for
// OutcomeHit; Err and ErrorKind only for OutcomeNetworkError.
type Outcome struct {
	Kind       OutcomeKind
	Coordinate model.Coordinate
	Results    int
	ErrorKind  ErrorKind
	Err        error
}

// Accepted reports whether the outcome carries a coordinate.
func (o Outcome) Accepted() bool {
	return o.Kind == OutcomeHit
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return "geocode: unexpected status " + strconv.Itoa(e.StatusCode)
}

// DecodeError is returned when the response body is not a result array.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "geocode: decode response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// classify maps a request error to an ErrorKind.
func classify(err error) ErrorKind {
	var statusErr *StatusError
	var decodeErr *DecodeError
	switch {
	case errors.As(err, &statusErr):
		return ErrorKindHTTPStatus
	case errors.As(err, &decodeErr):
		return ErrorKindDecode
	case resilience.IsTimeout(err):
		return ErrorKindTimeout
	case errors.Is(err, context.Canceled):
		return ErrorKindTransport
	case resilience.IsConnectionError(err):
		return ErrorKindConnection
	default:
		return ErrorKindTransport
	}
}

func networkError(err error) Outcome {
	return Outcome{Kind: OutcomeNetworkError, ErrorKind: classify(err), Err: err}
}
