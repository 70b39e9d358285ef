// Package calls wraps fallible backend operations so that no error of
// any kind escapes to the page layer. Every failure is classified into
// a fixed taxonomy and rendered as display-ready data; the caller gets
// back either a value or a Failure, never an error.
package calls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"strings"

	"labelhub/internal/backend"
)

type Class string

const (
	ClassConfiguration Class = "configuration"
	ClassTransport     Class = "transport"
	ClassTimeout       Class = "timeout"
	ClassBackend       Class = "backend"
	ClassUnexpected    Class = "unexpected"
)

// Options control how an outcome is presented, not how the call runs.
type Options struct {
	// ShowPayload expands the raw error payload in the rendered block.
	ShowPayload bool
	// SuccessNote emits a lightweight confirmation on success.
	SuccessNote bool
	// OfferRetry attaches a retry affordance to any failure.
	OfferRetry bool
	// SpinnerText is the in-flight status text. There is no incremental
	// rendering in this server, so it goes to the debug log.
	SpinnerText string
}

// Failure is everything the page layer needs to render one error
// block: a one-line summary, a remediation hint keyed off the status
// code, and debug detail. ShowDetail gates whether the detail
// disclosure is rendered at all; ExpandDetail opens it by default,
// which only the unexpected class does.
type Failure struct {
	Class        Class
	Label        string
	Summary      string
	Hint         string
	StatusCode   int
	Detail       string
	ShowDetail   bool
	ExpandDetail bool
	OfferRetry   bool
}

type Outcome[T any] struct {
	OK      bool
	Value   T
	Note    string
	Failure *Failure
}

// Do runs one unit of work under the normalization contract. Panics in
// fn are captured as the unexpected class; they indicate a defect in
// the calling code, so their detail is always expanded.
func Do[T any](label string, opts Options, fn func() (T, error)) (out Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome[T]{Failure: &Failure{
				Class:        ClassUnexpected,
				Label:        label,
				Summary:      fmt.Sprintf("%s: Unexpected error — %v", label, r),
				Detail:       fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack()),
				ShowDetail:   true,
				ExpandDetail: true,
				OfferRetry:   opts.OfferRetry,
			}}
		}
	}()

	status := opts.SpinnerText
	if status == "" {
		status = label + "..."
	}
	slog.Debug("call started", "label", label, "status", status)

	v, err := fn()
	if err != nil {
		return Outcome[T]{Failure: Classify(label, err, opts)}
	}

	out = Outcome[T]{OK: true, Value: v}
	if opts.SuccessNote {
		out.Note = label + ": done"
	}
	return out
}

// Classify maps one error onto the taxonomy. It is deterministic: the
// same error value always produces the same Failure.
func Classify(label string, err error, opts Options) *Failure {
	f := &Failure{Label: label, OfferRetry: opts.OfferRetry, ShowDetail: opts.ShowPayload}

	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr) && errors.Is(err, backend.ErrNotConfigured):
		f.Class = ClassConfiguration
		f.Summary = fmt.Sprintf("%s: Configuration error — %s", label, apiErr.Message)
		f.Hint = hintFor(0, apiErr.Message)

	case errors.As(err, &apiErr) && apiErr.StatusCode == 0 && isTimeout(apiErr):
		f.Class = ClassTimeout
		f.Summary = fmt.Sprintf("%s: Timeout — operation took too long", label)
		f.Hint = timeoutHint
		f.Detail = payloadDetail(apiErr.Payload)

	case errors.As(err, &apiErr) && apiErr.StatusCode == 0:
		f.Class = ClassTransport
		f.Summary = fmt.Sprintf("%s: Network error — %s", label, strings.TrimPrefix(apiErr.Message, "Network error: "))
		f.Hint = hintFor(0, apiErr.Message)
		f.Detail = payloadDetail(apiErr.Payload)

	case errors.As(err, &apiErr):
		f.Class = ClassBackend
		f.StatusCode = apiErr.StatusCode
		f.Summary = fmt.Sprintf("%s: Backend error (%d) — %s", label, apiErr.StatusCode, apiErr.Message)
		f.Hint = hintFor(apiErr.StatusCode, apiErr.Message)
		f.Detail = payloadDetail(apiErr.Payload)

	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		f.Class = ClassTimeout
		f.Summary = fmt.Sprintf("%s: Timeout — operation took too long", label)
		f.Hint = timeoutHint
		f.Detail = err.Error()

	case isNetError(err):
		f.Class = ClassTransport
		f.Summary = fmt.Sprintf("%s: Network error — %s", label, err.Error())
		f.Hint = hintFor(0, err.Error())
		f.Detail = err.Error()

	default:
		f.Class = ClassUnexpected
		f.Summary = fmt.Sprintf("%s: Unexpected error — %s", label, err.Error())
		f.Detail = err.Error()
		f.ShowDetail = true
		f.ExpandDetail = true
	}

	return f
}

const timeoutHint = "The call exceeded its time limit. Retry, or raise request_timeout_s if the backend is just slow."

func hintFor(status int, message string) string {
	switch {
	case status == 0:
		return "Check network connectivity and the BACKEND_URL setting (or enable mock mode)."
	case status == 401:
		return "Authentication failed or the session expired. Log in again."
	case status == 403:
		return "This account's role lacks permission for the action."
	case status == 404:
		return "The backend has not implemented this route yet."
	case status == 422:
		return "The backend rejected the payload. Check required fields and value formats."
	case status >= 500:
		return "Backend-side failure. Check the backend service logs."
	case strings.Contains(strings.ToLower(message), "timeout"):
		return timeoutHint
	default:
		return ""
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded")
}

func isNetError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

func payloadDetail(payload any) string {
	if payload == nil {
		return ""
	}
	if s, ok := payload.(string); ok {
		return s
	}
	buf, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(buf)
}
