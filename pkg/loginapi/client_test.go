package loginapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldOneo/loginprojekt-client/pkg/dispatch"
	"github.com/worldOneo/loginprojekt-client/pkg/httpclient"
)

// fakeAPI mimics the login server's v1 routes.
type fakeAPI struct {
	mu     sync.Mutex
	users  map[string]string
	tokens map[string]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{users: map[string]string{}, tokens: map[string]string{}}
}

func (f *fakeAPI) reply(w http.ResponseWriter, status int, success bool, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(MessageResponse{Response: Response{Success: success}, Message: msg})
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/api/v1/createuser":
		var c Credentials
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			f.reply(w, http.StatusBadRequest, false, "username and password required")
			return
		}
		if _, ok := f.users[c.Username]; ok {
			f.reply(w, http.StatusForbidden, false, "user already exists")
			return
		}
		f.users[c.Username] = c.Password
		f.reply(w, http.StatusOK, true, "user created")
	case "/api/v1/generatetoken":
		var c Credentials
		_ = json.NewDecoder(r.Body).Decode(&c)
		if pw, ok := f.users[c.Username]; !ok || pw != c.Password {
			f.reply(w, http.StatusUnauthorized, false, "invalid credentials")
			return
		}
		token := "tok-" + c.Username
		f.tokens[token] = c.Username
		f.reply(w, http.StatusOK, true, token)
	case "/api/v1/time":
		var tr TokenRequest
		if err := json.NewDecoder(r.Body).Decode(&tr); err != nil {
			f.reply(w, http.StatusBadRequest, false, "token required")
			return
		}
		if _, ok := f.tokens[tr.Token]; !ok {
			f.reply(w, http.StatusInternalServerError, false, "token expired")
			return
		}
		_, _ = w.Write([]byte("1700000000"))
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(newFakeAPI())
	t.Cleanup(srv.Close)

	transport, err := httpclient.NewRestyClient(httpclient.Options{})
	require.NoError(t, err)
	d, err := dispatch.New(dispatch.Config{BaseURL: srv.URL}, transport, nil)
	require.NoError(t, err)
	c, err := New(d)
	require.NoError(t, err)
	return c
}

func TestCreateUserAndDuplicate(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	msg, err := c.CreateUser(ctx, "anna", "secret")
	require.NoError(t, err)
	assert.True(t, msg.Success)
	assert.Equal(t, "user created", msg.Message)

	_, err = c.CreateUser(ctx, "anna", "other")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "user already exists", apiErr.Message)
}

func TestGenerateTokenAndTime(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateUser(ctx, "ben", "pw")
	require.NoError(t, err)

	token, err := c.GenerateToken(ctx, "ben", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-ben", token)

	ts, err := c.Time(ctx, token)
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Unix(1700000000, 0)))
}

func TestGenerateTokenRejectsBadCredentials(t *testing.T) {
	c := newTestClient(t)

	_, err := c.GenerateToken(context.Background(), "nobody", "pw")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestTimeWithUnknownToken(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Time(context.Background(), "forged")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "token expired", apiErr.Message)
}

func TestNewRequiresDoer(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
