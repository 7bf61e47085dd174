// Package dispatch sends one JSON request per call to a versioned API and
// delivers the decoded response.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/worldOneo/loginprojekt-client/pkg/httpclient"
)

var (
	// ErrTransport wraps failures to obtain any response.
	ErrTransport = errors.New("transport failure")
	// ErrDecode wraps response bodies that are not valid JSON.
	ErrDecode = errors.New("decode response")
	// ErrEncode wraps request bodies that cannot be serialized.
	ErrEncode = errors.New("encode request body")
	// ErrInvalidMethod is returned in strict mode for non-standard verbs.
	ErrInvalidMethod = errors.New("invalid http method")
)

// RequestSpec identifies one request. A nil Body transmits no payload.
type RequestSpec struct {
	Path   string
	Method string
	Body   any
}

// ResponseHandler receives the decoded response payload.
type ResponseHandler func(value any)

// Dispatcher builds and sends requests against a fixed API base.
// It holds no per-call state and is safe for concurrent use.
type Dispatcher struct {
	cfg    Config
	client httpclient.Client
	log    Logger
}

// New creates a Dispatcher. The client is usually a *httpclient.RestyClient.
func New(cfg Config, client httpclient.Client, log Logger) (*Dispatcher, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	return &Dispatcher{cfg: cfg, client: client, log: ensureLogger(log)}, nil
}

// Config returns the normalized configuration.
func (d *Dispatcher) Config() Config {
	cfg := d.cfg
	cfg.Headers = cloneHeaders(d.cfg.Headers)
	return cfg
}

// Target returns the address a request for path is sent to. The path is
// appended as is; callers escape it.
func (d *Dispatcher) Target(path string) string {
	return d.cfg.BaseURL + d.cfg.APIPrefix + path
}

// Dispatch sends the request in the background and calls onResult with the
// decoded payload. Transport, encode and decode failures are logged and
// onResult is never called for them. Non-2xx responses are delivered like
// any other decodable response.
func (d *Dispatcher) Dispatch(path, method string, body any, onResult ResponseHandler) {
	spec := RequestSpec{Path: path, Method: method, Body: body}
	go func() {
		res := d.exchange(context.Background(), spec)
		if res.Err != nil {
			d.log.WarnObj("dispatch dropped result", "dispatch_failure", map[string]any{
				"method": method,
				"target": d.Target(path),
				"error":  res.Err.Error(),
			})
			return
		}
		if onResult != nil {
			onResult(res.Value)
		}
	}()
}

// Submit sends the request in the background and returns a Future settled
// with the outcome. Cancelling ctx aborts the request.
func (d *Dispatcher) Submit(ctx context.Context, spec RequestSpec) *Future {
	f := newFuture()
	go func() {
		f.resolve(d.exchange(ctx, spec))
	}()
	return f
}

// Do sends the request and waits for its result.
func (d *Dispatcher) Do(ctx context.Context, spec RequestSpec) (Result, error) {
	res := d.exchange(ctx, spec)
	return res, res.Err
}

func (d *Dispatcher) exchange(ctx context.Context, spec RequestSpec) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	target := d.Target(spec.Path)

	if d.cfg.StrictMethods && !isStandardMethod(spec.Method) {
		return Result{Err: fmt.Errorf("%w: %q", ErrInvalidMethod, spec.Method)}
	}

	var payload []byte
	if spec.Body != nil {
		b, err := json.Marshal(spec.Body)
		if err != nil {
			return Result{Err: fmt.Errorf("%w: %w", ErrEncode, err)}
		}
		payload = b
	}

	d.log.DebugObj("dispatch request", "dispatch_request", map[string]any{
		"method":     spec.Method,
		"target":     target,
		"body_bytes": len(payload),
	})

	resp, err := d.client.Do(ctx, httpclient.Request{
		Method:  spec.Method,
		URL:     target,
		Headers: d.cfg.Headers,
		Body:    payload,
	})
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %s %s: %w", ErrTransport, spec.Method, target, err)}
	}

	res := Result{
		Raw:        resp.Body(),
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
	}
	if err := json.Unmarshal(res.Raw, &res.Value); err != nil {
		res.Err = fmt.Errorf("%w: status %d, %s: %w", ErrDecode, res.StatusCode,
			summarizeBody(res.Header.Get("Content-Type"), res.Raw), err)
		return res
	}

	d.log.DebugObj("dispatch response", "dispatch_response", map[string]any{
		"method": spec.Method,
		"target": target,
		"status": res.StatusCode,
	})
	return res
}
