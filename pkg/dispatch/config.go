package dispatch

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the local development API server.
	DefaultBaseURL = "http://localhost:6060"
	// DefaultAPIPrefix is the versioned path segment of the API.
	DefaultAPIPrefix = "/api/v1/"
)

// Config describes where requests go and which headers they carry.
type Config struct {
	// BaseURL is the scheme and authority of the API server.
	BaseURL string
	// APIPrefix is placed between BaseURL and the request path.
	APIPrefix string
	// Headers replaces DefaultHeaders when non-nil.
	Headers map[string]string
	// StrictMethods rejects verbs outside the standard HTTP method set.
	StrictMethods bool
}

// DefaultHeaders returns the header set a browser sends for a top-level
// navigation, plus a JSON content type.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.9",
		"Content-Type":              "application/json",
		"accept-language":           "en-US,en;q=0.9",
		"cache-control":             "max-age=0",
		"sec-fetch-dest":            "document",
		"sec-fetch-mode":            "navigate",
		"sec-fetch-site":            "none",
		"sec-fetch-user":            "?1",
		"sec-gpc":                   "1",
		"upgrade-insecure-requests": "1",
	}
}

// DefaultConfig returns the configuration for the local development API.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		APIPrefix: DefaultAPIPrefix,
		Headers:   DefaultHeaders(),
	}
}

// normalize fills in defaults and makes BaseURL+APIPrefix join with exactly one slash.
func (c Config) normalize() (Config, error) {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return Config{}, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("base url %q must be absolute", c.BaseURL)
	}

	prefix := strings.TrimSpace(c.APIPrefix)
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	c.APIPrefix = "/" + strings.Trim(prefix, "/") + "/"
	if c.APIPrefix == "//" {
		c.APIPrefix = "/"
	}

	if c.Headers == nil {
		c.Headers = DefaultHeaders()
	} else {
		c.Headers = cloneHeaders(c.Headers)
	}
	return c, nil
}

func cloneHeaders(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var standardMethods = map[string]struct{}{
	"GET": {}, "HEAD": {}, "POST": {}, "PUT": {}, "PATCH": {},
	"DELETE": {}, "CONNECT": {}, "OPTIONS": {}, "TRACE": {},
}

func isStandardMethod(method string) bool {
	_, ok := standardMethods[strings.ToUpper(method)]
	return ok
}
