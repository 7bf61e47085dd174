package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tidwall/gjson"
)

// Outcome classifies how an exchange ended.
type Outcome int

const (
	// OutcomeSuccess means a response arrived and decoded.
	OutcomeSuccess Outcome = iota
	// OutcomeFault means encoding, transport or decoding failed.
	OutcomeFault
	// OutcomeCanceled means the request or the wait for it was canceled.
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFault:
		return "fault"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result is the settled state of one request/response exchange.
type Result struct {
	// Value is the decoded response payload (maps, slices, float64, string, bool or nil).
	Value any
	// Raw is the undecoded response body.
	Raw        []byte
	StatusCode int
	Header     http.Header
	Err        error
}

// Outcome reports whether the exchange succeeded, failed or was canceled.
func (r Result) Outcome() Outcome {
	switch {
	case r.Err == nil:
		return OutcomeSuccess
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeFault
	}
}

// Decode unmarshals the raw body into v.
func (r Result) Decode(v any) error {
	if r.Raw == nil {
		return errors.New("result has no body")
	}
	return json.Unmarshal(r.Raw, v)
}

// Get looks up a gjson path in the raw body.
func (r Result) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Raw, path)
}

// Future is a one-shot cell settled with the result of a submitted request.
type Future struct {
	done   chan struct{}
	result Result
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve must be called exactly once.
func (f *Future) resolve(r Result) {
	f.result = r
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Result returns the settled result without blocking.
func (f *Future) Result() (Result, bool) {
	select {
	case <-f.done:
		return f.result, true
	default:
		return Result{}, false
	}
}

// Await blocks until the result is settled or ctx ends. Abandoning the wait
// does not cancel the request; cancel the context passed to Submit for that.
func (f *Future) Await(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, f.result.Err
	case <-ctx.Done():
		return Result{Err: ctx.Err()}, ctx.Err()
	}
}
