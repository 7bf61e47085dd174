package httpclient

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Request modes.
const (
	ModeCORS       = "cors"
	ModeSameOrigin = "same-origin"
	ModeNoCORS     = "no-cors"
	ModeNavigate   = "navigate"
)

// Credentials modes.
const (
	CredentialsOmit       = "omit"
	CredentialsSameOrigin = "same-origin"
	CredentialsInclude    = "include"
)

// Referrer policies.
const (
	ReferrerNoReferrer                  = "no-referrer"
	ReferrerOrigin                      = "origin"
	ReferrerSameOrigin                  = "same-origin"
	ReferrerStrictOrigin                = "strict-origin"
	ReferrerStrictOriginWhenCrossOrigin = "strict-origin-when-cross-origin"
	ReferrerUnsafeURL                   = "unsafe-url"
)

var (
	// ErrCrossOrigin is returned in same-origin mode for requests leaving the page origin.
	ErrCrossOrigin = errors.New("cross-origin request blocked")
	// ErrModeViolation is returned when a method is not allowed by the request mode.
	ErrModeViolation = errors.New("method not allowed by request mode")
	// ErrBodyNotAllowed is returned when a payload is given for HEAD or OPTIONS.
	ErrBodyNotAllowed = errors.New("request body not allowed for method")
)

// Policy holds the browser-style transport options applied to every request.
type Policy struct {
	Mode           string
	Credentials    string
	ReferrerPolicy string
	// Origin is the page origin requests are made on behalf of. Derived from
	// Referrer when empty.
	Origin string
	// Referrer is the page URL reported through the Referer header.
	Referrer string
}

// DefaultPolicy returns cors mode, credentials omitted and a
// strict-origin-when-cross-origin referrer policy.
func DefaultPolicy() Policy {
	return Policy{
		Mode:           ModeCORS,
		Credentials:    CredentialsOmit,
		ReferrerPolicy: ReferrerStrictOriginWhenCrossOrigin,
	}
}

// Normalize lowercases the enumerations and fills in defaults for empty fields.
func (p Policy) Normalize() Policy {
	def := DefaultPolicy()
	p.Mode = strings.ToLower(strings.TrimSpace(p.Mode))
	if p.Mode == "" {
		p.Mode = def.Mode
	}
	p.Credentials = strings.ToLower(strings.TrimSpace(p.Credentials))
	if p.Credentials == "" {
		p.Credentials = def.Credentials
	}
	p.ReferrerPolicy = strings.ToLower(strings.TrimSpace(p.ReferrerPolicy))
	if p.ReferrerPolicy == "" {
		p.ReferrerPolicy = def.ReferrerPolicy
	}
	p.Origin = strings.TrimSpace(p.Origin)
	p.Referrer = strings.TrimSpace(p.Referrer)
	return p
}

// Validate checks that the enumerations hold known values and the page URLs parse.
func (p Policy) Validate() error {
	switch p.Mode {
	case ModeCORS, ModeSameOrigin, ModeNoCORS, ModeNavigate:
	default:
		return fmt.Errorf("unknown request mode %q", p.Mode)
	}
	switch p.Credentials {
	case CredentialsOmit, CredentialsSameOrigin, CredentialsInclude:
	default:
		return fmt.Errorf("unknown credentials mode %q", p.Credentials)
	}
	switch p.ReferrerPolicy {
	case ReferrerNoReferrer, ReferrerOrigin, ReferrerSameOrigin, ReferrerStrictOrigin,
		ReferrerStrictOriginWhenCrossOrigin, ReferrerUnsafeURL:
	default:
		return fmt.Errorf("unknown referrer policy %q", p.ReferrerPolicy)
	}
	if _, err := p.pageURL(); err != nil {
		return err
	}
	return nil
}

// KeepCookies reports whether a cookie jar should be attached to the transport.
func (p Policy) KeepCookies() bool {
	return p.Credentials != CredentialsOmit
}

// Headers returns the policy-derived headers for a request, or an error when
// the mode forbids the request.
func (p Policy) Headers(method string, target *url.URL) (map[string]string, error) {
	page, err := p.pageURL()
	if err != nil {
		return nil, err
	}

	sameOrigin := page == nil || isSameOrigin(page, target)

	switch p.Mode {
	case ModeSameOrigin:
		if !sameOrigin {
			return nil, fmt.Errorf("%w: %s", ErrCrossOrigin, originOf(target))
		}
	case ModeNoCORS:
		switch strings.ToUpper(method) {
		case "GET", "HEAD", "POST":
		default:
			return nil, fmt.Errorf("%w: %s in %s mode", ErrModeViolation, method, p.Mode)
		}
	}

	out := make(map[string]string, 2)
	if page != nil && p.Mode == ModeCORS && !sameOrigin {
		out["Origin"] = originOf(page)
	}
	if ref := referrerFor(p.ReferrerPolicy, page, target); ref != "" {
		out["Referer"] = ref
	}
	return out, nil
}

// pageURL resolves the page the client acts on behalf of. Nil when unset.
func (p Policy) pageURL() (*url.URL, error) {
	raw := p.Referrer
	if raw == "" {
		raw = p.Origin
	}
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse page url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("page url %q must be absolute", raw)
	}
	if p.Referrer != "" && p.Origin != "" {
		o, err := url.Parse(p.Origin)
		if err != nil {
			return nil, fmt.Errorf("parse origin %q: %w", p.Origin, err)
		}
		if !isSameOrigin(o, u) {
			return nil, fmt.Errorf("referrer %q is outside origin %q", p.Referrer, p.Origin)
		}
	}
	return u, nil
}

func referrerFor(policy string, page, target *url.URL) string {
	if page == nil {
		return ""
	}

	full := *page
	full.User = nil
	full.Fragment = ""
	full.RawFragment = ""
	origin := originOf(page) + "/"
	same := isSameOrigin(page, target)
	downgrade := page.Scheme == "https" && target.Scheme != "https"

	switch policy {
	case ReferrerNoReferrer:
		return ""
	case ReferrerOrigin:
		return origin
	case ReferrerUnsafeURL:
		return full.String()
	case ReferrerSameOrigin:
		if same {
			return full.String()
		}
		return ""
	case ReferrerStrictOrigin:
		if downgrade {
			return ""
		}
		return origin
	default:
		if same {
			return full.String()
		}
		if downgrade {
			return ""
		}
		return origin
	}
}

func isSameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(hostPort(a), hostPort(b))
}

func originOf(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	switch port := u.Port(); {
	case port == "",
		scheme == "http" && port == "80",
		scheme == "https" && port == "443":
	default:
		host += ":" + port
	}
	return scheme + "://" + host
}

func hostPort(u *url.URL) string {
	port := u.Port()
	switch {
	case port == "" && u.Scheme == "http":
		port = "80"
	case port == "" && u.Scheme == "https":
		port = "443"
	}
	if port == "" {
		return u.Hostname()
	}
	return u.Hostname() + ":" + port
}
