package search

import (
	"errors"
	"fmt"
)

// Op names the gateway operation that failed.
type Op string

const (
	OpLatest Op = "latest"
	OpByDate Op = "by_date"
)

func (o Op) prefix() string {
	if o == OpByDate {
		return "Failed to fetch news by date"
	}
	return "Failed to fetch latest news"
}

// InvalidDateMessage is the user-facing message for malformed YYYY-MM-DD input.
const InvalidDateMessage = "Invalid date format. Please use YYYY-MM-DD."

// ValidationError reports unusable caller input. It is raised before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UpstreamTransportError reports a non-2xx response from the search provider.
type UpstreamTransportError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamTransportError) Error() string {
	return fmt.Sprintf("SerpApi request failed: %d %s", e.StatusCode, e.Message)
}

// UpstreamDataError reports an error field inside an otherwise successful payload.
type UpstreamDataError struct {
	Message string
}

func (e *UpstreamDataError) Error() string {
	return "SerpApi returned an error: " + e.Message
}

// UnknownError covers transport failures, undecodable payloads and anything else.
type UnknownError struct {
	Err error
}

func (e *UnknownError) Error() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

func (e *UnknownError) Unwrap() error { return e.Err }

// FetchError prefixes a gateway failure with the operation that produced it.
type FetchError struct {
	Op  Op
	Err error
}

func (e *FetchError) Error() string {
	return e.Op.prefix() + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// Kind returns a short label for err, suitable for metrics and logs.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		validation *ValidationError
		transport  *UpstreamTransportError
		data       *UpstreamDataError
	)
	switch {
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &transport):
		return "upstream_transport"
	case errors.As(err, &data):
		return "upstream_data"
	default:
		return "unknown"
	}
}
