package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/wpx/internal/shared"
)

// FailureKind classifies why a request to the destination did not produce a reference.
type FailureKind int

const (
	ClientRejected    FailureKind = iota + 1 // 4xx
	ServerFailed                             // 5xx
	TransportFailed                          // no response
	UnmappedResponse                         // 1xx or 3xx
	MalformedResponse                        // 2xx without the expected body
	AssetUnresolvable                        // legacy file could not be located or read
)

var (
	ErrClientRejected    = errors.New("rejected by destination")
	ErrServerFailed      = fmt.Errorf("%w: destination error", shared.ErrServiceUnavailable)
	ErrTransport         = fmt.Errorf("%w: transport error", shared.ErrServiceUnavailable)
	ErrUnmappedResponse  = errors.New("unexpected response status")
	ErrMalformedResponse = errors.New("malformed response")
	ErrAssetUnresolvable = fmt.Errorf("%w: asset unresolvable", shared.ErrAssetResolution)
)

func (k FailureKind) String() string {
	switch k {
	case ClientRejected:
		return "client rejected"
	case ServerFailed:
		return "server failed"
	case TransportFailed:
		return "transport failed"
	case UnmappedResponse:
		return "unmapped response"
	case MalformedResponse:
		return "malformed response"
	case AssetUnresolvable:
		return "asset unresolvable"
	default:
		return "unknown failure"
	}
}

func (k FailureKind) sentinel() error {
	switch k {
	case ClientRejected:
		return ErrClientRejected
	case ServerFailed:
		return ErrServerFailed
	case TransportFailed:
		return ErrTransport
	case UnmappedResponse:
		return ErrUnmappedResponse
	case MalformedResponse:
		return ErrMalformedResponse
	case AssetUnresolvable:
		return ErrAssetUnresolvable
	default:
		return nil
	}
}

// maxBodyInError bounds how much of a response body ends up in an error message.
const maxBodyInError = 256

// Failure is the error returned for every unsuccessful submission or upload.
type Failure struct {
	Kind     FailureKind
	Endpoint string // request path, e.g. /posts
	Entity   string // owner label, e.g. post 12
	Status   int    // zero when no response was received
	Body     string
	Err      error
}

func (f *Failure) Error() string {
	var b strings.Builder
	if f.Entity != "" {
		b.WriteString(f.Entity + ": ")
	}
	if f.Endpoint != "" {
		b.WriteString(f.Endpoint + ": ")
	}
	b.WriteString(f.Kind.String())
	if f.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", f.Status)
	}
	if f.Err != nil {
		b.WriteString(": " + f.Err.Error())
	}
	if body := strings.TrimSpace(f.Body); body != "" {
		if len(body) > maxBodyInError {
			body = body[:maxBodyInError] + "..."
		}
		b.WriteString(": " + body)
	}
	return b.String()
}

func (f *Failure) Unwrap() error { return f.Err }

// Is matches the sentinel for the failure's kind and anything that sentinel wraps.
func (f *Failure) Is(target error) bool {
	s := f.Kind.sentinel()
	return s != nil && errors.Is(s, target)
}

// Retryable reports whether repeating the request could succeed.
// Callers that retry do so outside this package.
func (f *Failure) Retryable() bool {
	return f.Kind == TransportFailed || f.Kind == ServerFailed
}

// ClassifyStatus maps a non-2xx status to its failure kind.
func ClassifyStatus(status int) FailureKind {
	switch {
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return ClientRejected
	case status >= http.StatusInternalServerError:
		return ServerFailed
	default:
		return UnmappedResponse
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
