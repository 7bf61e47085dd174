// Package loginapi is a typed client for the login project's v1 API.
package loginapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/worldOneo/loginprojekt-client/pkg/dispatch"
)

const (
	PathCreateUser    = "createuser"
	PathGenerateToken = "generatetoken"
	PathTime          = "time"
)

// Doer sends a single request. *dispatch.Dispatcher satisfies it.
type Doer interface {
	Do(ctx context.Context, spec dispatch.RequestSpec) (dispatch.Result, error)
}

// Client wraps a Doer with the API's endpoints.
type Client struct {
	doer Doer
}

// New returns a Client sending through doer.
func New(doer Doer) (*Client, error) {
	if doer == nil {
		return nil, errors.New("loginapi: doer must not be nil")
	}
	return &Client{doer: doer}, nil
}

// CreateUser registers a username/password pair.
func (c *Client) CreateUser(ctx context.Context, username, password string) (MessageResponse, error) {
	return c.message(ctx, "create user", PathCreateUser, Credentials{Username: username, Password: password})
}

// GenerateToken exchanges credentials for a signed token.
func (c *Client) GenerateToken(ctx context.Context, username, password string) (string, error) {
	msg, err := c.message(ctx, "generate token", PathGenerateToken, Credentials{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(msg.Message) == "" {
		return "", fmt.Errorf("generate token: empty token in response")
	}
	return msg.Message, nil
}

// Time asks the server for its clock using token. The server answers with
// bare unix seconds on success and a MessageResponse otherwise.
func (c *Client) Time(ctx context.Context, token string) (time.Time, error) {
	res, err := c.doer.Do(ctx, dispatch.RequestSpec{
		Path:   PathTime,
		Method: http.MethodPost,
		Body:   TokenRequest{Token: token},
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("time: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return time.Time{}, apiErrorFrom("time", res)
	}

	secs, ok := res.Value.(float64)
	if !ok || secs < 0 || secs > math.MaxInt64 {
		return time.Time{}, fmt.Errorf("time: unexpected payload %s", string(res.Raw))
	}
	return time.Unix(int64(secs), 0), nil
}

func (c *Client) message(ctx context.Context, op, path string, body any) (MessageResponse, error) {
	res, err := c.doer.Do(ctx, dispatch.RequestSpec{Path: path, Method: http.MethodPost, Body: body})
	if err != nil {
		return MessageResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	var msg MessageResponse
	if err := res.Decode(&msg); err != nil {
		return MessageResponse{}, fmt.Errorf("%s: decode message: %w", op, err)
	}
	if res.StatusCode >= http.StatusBadRequest || !msg.Success {
		return msg, &APIError{Op: op, Status: res.StatusCode, Message: msg.Message}
	}
	return msg, nil
}

func apiErrorFrom(op string, res dispatch.Result) *APIError {
	apiErr := &APIError{Op: op, Status: res.StatusCode}
	if msg := res.Get("message"); msg.Exists() {
		apiErr.Message = msg.String()
	}
	return apiErr
}
