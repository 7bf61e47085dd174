package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/moul/http2curl"
)

// Options configures a RestyClient.
type Options struct {
	Policy Policy
	// Logger receives resty's own warnings and errors. A *zap.SugaredLogger fits.
	Logger resty.Logger
	// Trace, when set, receives every outgoing request rendered as a curl command.
	Trace func(cmd string)
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
	policy Policy
}

// NewRestyClient creates a RestyClient enforcing the given transport policy.
func NewRestyClient(opts Options) (*RestyClient, error) {
	policy := opts.Policy.Normalize()
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("transport policy: %w", err)
	}

	c := newRestyBaseClient(policy)
	if opts.Logger != nil {
		c.SetLogger(opts.Logger)
	}
	if opts.Trace != nil {
		trace := opts.Trace
		c.SetPreRequestHook(func(_ *resty.Client, req *http.Request) error {
			cmd, err := http2curl.GetCurlCommand(req)
			if err != nil {
				return nil
			}
			trace(cmd.String())
			return nil
		})
	}
	return &RestyClient{client: c, policy: policy}, nil
}

// newRestyBaseClient creates a resty.Client without timeouts or retries.
func newRestyBaseClient(policy Policy) *resty.Client {
	c := resty.New()
	c.SetAllowGetMethodPayload(true)
	if !policy.KeepCookies() {
		c.SetCookieJar(nil)
	}
	return c
}

// Policy returns the normalized transport policy.
func (r *RestyClient) Policy() Policy { return r.policy }

// Do performs the request as given. The method is sent verbatim.
func (r *RestyClient) Do(ctx context.Context, in Request) (Response, error) {
	if in.Body != nil && !bodyAllowed(in.Method) {
		return nil, fmt.Errorf("%w: %s", ErrBodyNotAllowed, in.Method)
	}
	target, err := url.Parse(in.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	policyHeaders, err := r.policy.Headers(in.Method, target)
	if err != nil {
		return nil, err
	}

	req := r.client.R().SetContext(ctx)
	if len(in.Headers) > 0 {
		req.SetHeaders(in.Headers)
	}
	if len(policyHeaders) > 0 {
		req.SetHeaders(policyHeaders)
	}
	if in.Body != nil {
		req.SetBody(in.Body)
	}

	resp, err := req.Execute(in.Method, in.URL)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// bodyAllowed reports whether resty transmits a payload for method.
func bodyAllowed(method string) bool {
	return !strings.EqualFold(method, http.MethodHead) && !strings.EqualFold(method, http.MethodOptions)
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
