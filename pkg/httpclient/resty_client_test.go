package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestRestyClientSendsMethodHeadersAndBody(t *testing.T) {
	var (
		gotMethod string
		gotBody   string
		gotHeader string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Test")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client, err := NewRestyClient(Options{})
	if err != nil {
		t.Fatalf("NewRestyClient: %v", err)
	}

	resp, err := client.Do(context.Background(), Request{
		Method:  "Patch",
		URL:     srv.URL + "/thing",
		Headers: map[string]string{"X-Test": "1"},
		Body:    []byte(`{"a":1}`),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotMethod != "Patch" {
		t.Fatalf("expected verbatim method, got %q", gotMethod)
	}
	if gotHeader != "1" {
		t.Fatalf("missing header, got %q", gotHeader)
	}
	if gotBody != `{"a":1}` {
		t.Fatalf("unexpected body %q", gotBody)
	}
	if resp.StatusCode() != http.StatusOK || string(resp.Body()) != `{"ok":true}` {
		t.Fatalf("unexpected response %d %s", resp.StatusCode(), resp.Body())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestRestyClientNilBodySendsNoPayload(t *testing.T) {
	var length int64 = -2
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		length = int64(len(b))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := NewRestyClient(Options{})
	if err != nil {
		t.Fatalf("NewRestyClient: %v", err)
	}
	if _, err := client.Do(context.Background(), Request{Method: http.MethodPost, URL: srv.URL}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if length != 0 {
		t.Fatalf("expected empty payload, got %d bytes", length)
	}
}

func TestRestyClientRejectsBodyForHeadAndOptions(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	client, err := NewRestyClient(Options{})
	if err != nil {
		t.Fatalf("NewRestyClient: %v", err)
	}
	for _, method := range []string{http.MethodHead, http.MethodOptions, "options"} {
		_, err := client.Do(context.Background(), Request{Method: method, URL: srv.URL, Body: []byte(`{"k":"v"}`)})
		if !errors.Is(err, ErrBodyNotAllowed) {
			t.Fatalf("%s: expected ErrBodyNotAllowed, got %v", method, err)
		}
	}
	if hits != 0 {
		t.Fatalf("no request should reach the server, got %d", hits)
	}

	if _, err := client.Do(context.Background(), Request{Method: http.MethodOptions, URL: srv.URL}); err != nil {
		t.Fatalf("OPTIONS without body: %v", err)
	}
}

func TestRestyClientCredentialsPolicy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/set" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			return
		}
		if c, err := r.Cookie("session"); err == nil {
			_, _ = w.Write([]byte(c.Value))
		}
	}))
	defer srv.Close()

	run := func(credentials string) string {
		client, err := NewRestyClient(Options{Policy: Policy{Credentials: credentials}})
		if err != nil {
			t.Fatalf("NewRestyClient: %v", err)
		}
		ctx := context.Background()
		if _, err := client.Do(ctx, Request{Method: http.MethodGet, URL: srv.URL + "/set"}); err != nil {
			t.Fatalf("set cookie: %v", err)
		}
		resp, err := client.Do(ctx, Request{Method: http.MethodGet, URL: srv.URL + "/check"})
		if err != nil {
			t.Fatalf("check cookie: %v", err)
		}
		return string(resp.Body())
	}

	if got := run(CredentialsOmit); got != "" {
		t.Fatalf("omit must not send cookies, server saw %q", got)
	}
	if got := run(CredentialsInclude); got != "abc" {
		t.Fatalf("include must send cookies, server saw %q", got)
	}
}

func TestRestyClientAppliesPolicyHeaders(t *testing.T) {
	var origin, referer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin = r.Header.Get("Origin")
		referer = r.Header.Get("Referer")
	}))
	defer srv.Close()

	client, err := NewRestyClient(Options{Policy: Policy{Referrer: "http://frontend.test:8080/index.html"}})
	if err != nil {
		t.Fatalf("NewRestyClient: %v", err)
	}
	if _, err := client.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if origin != "http://frontend.test:8080" {
		t.Fatalf("unexpected Origin %q", origin)
	}
	if referer != "http://frontend.test:8080/" {
		t.Fatalf("unexpected Referer %q", referer)
	}
}

func TestRestyClientTraceRendersCurl(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_, _ = w.Write(b)
	}))
	defer srv.Close()

	var (
		mu     sync.Mutex
		traces []string
	)
	client, err := NewRestyClient(Options{Trace: func(cmd string) {
		mu.Lock()
		traces = append(traces, cmd)
		mu.Unlock()
	}})
	if err != nil {
		t.Fatalf("NewRestyClient: %v", err)
	}

	resp, err := client.Do(context.Background(), Request{Method: http.MethodPost, URL: srv.URL, Body: []byte(`{"k":"v"}`)})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body()) != `{"k":"v"}` {
		t.Fatalf("body must survive tracing, got %q", resp.Body())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(traces) != 1 {
		t.Fatalf("expected 1 trace, got %d", len(traces))
	}
	if !strings.HasPrefix(traces[0], "curl") || !strings.Contains(traces[0], srv.URL) {
		t.Fatalf("unexpected trace %q", traces[0])
	}
}

func TestRestyClientRejectsInvalidPolicy(t *testing.T) {
	if _, err := NewRestyClient(Options{Policy: Policy{Mode: "tunnel"}}); err == nil {
		t.Fatalf("expected invalid policy error")
	}
}
