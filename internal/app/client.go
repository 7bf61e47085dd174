package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/worldOneo/loginprojekt-client/internal/config"
	"github.com/worldOneo/loginprojekt-client/internal/logger"
	"github.com/worldOneo/loginprojekt-client/internal/tokenstore"
	"github.com/worldOneo/loginprojekt-client/pkg/dispatch"
	"github.com/worldOneo/loginprojekt-client/pkg/httpclient"
	"github.com/worldOneo/loginprojekt-client/pkg/loginapi"
	"go.uber.org/zap"
)

// ErrNoToken is returned when no stored token exists for a user.
var ErrNoToken = errors.New("no stored token; run login first")

// Client wires together transport, dispatcher, typed API and token store.
type Client struct {
	cfg        *config.Config
	dispatcher *dispatch.Dispatcher
	api        *loginapi.Client
	tokens     tokenstore.Store
	log        logger.Logger
}

// NewClient builds a client runtime from config. sugar may be nil.
func NewClient(cfg *config.Config, sugar *zap.SugaredLogger, log logger.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	extra, err := config.LoadHeaders(cfg.HeadersFile)
	if err != nil {
		return nil, fmt.Errorf("load headers: %w", err)
	}
	headers := config.MergeHeaders(dispatch.DefaultHeaders(), extra)

	opts := httpclient.Options{
		Policy: httpclient.Policy{
			Mode:           cfg.FetchMode,
			Credentials:    cfg.Credentials,
			ReferrerPolicy: cfg.ReferrerPolicy,
			Origin:         cfg.Origin,
			Referrer:       cfg.Referrer,
		},
	}
	if sugar != nil {
		opts.Logger = sugar
	}
	if cfg.DebugCurl {
		opts.Trace = func(cmd string) { log.DebugObj("outgoing request", "curl", cmd) }
	}
	transport, err := httpclient.NewRestyClient(opts)
	if err != nil {
		return nil, fmt.Errorf("build transport: %w", err)
	}

	dispatcher, err := dispatch.New(dispatch.Config{
		BaseURL:       cfg.BaseURL,
		APIPrefix:     cfg.APIPrefix,
		Headers:       headers,
		StrictMethods: cfg.StrictMethods,
	}, transport, log)
	if err != nil {
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}

	api, err := loginapi.New(dispatcher)
	if err != nil {
		return nil, err
	}

	tokens, err := tokenstore.NewStore(cfg.TokenStoreType, cfg.TokenStorePath, tokenstore.Options{
		TokenTTL:        cfg.TokenTTL,
		CleanupInterval: cfg.TokenCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}

	log.InfoObj("client initialized", "client_state", map[string]any{
		"target":      dispatcher.Target(""),
		"policy":      transport.Policy(),
		"token_store": cfg.TokenStoreType,
	})

	return &Client{
		cfg:        cfg,
		dispatcher: dispatcher,
		api:        api,
		tokens:     tokens,
		log:        log,
	}, nil
}

// Close releases the token store.
func (c *Client) Close() error {
	if c == nil || c.tokens == nil {
		return nil
	}
	return c.tokens.Close()
}

// Dispatcher exposes the underlying dispatcher.
func (c *Client) Dispatcher() *dispatch.Dispatcher { return c.dispatcher }

// Request sends an arbitrary request and waits for the decoded result.
func (c *Client) Request(ctx context.Context, path, method string, body any) (dispatch.Result, error) {
	start := time.Now()
	res, err := c.dispatcher.Submit(ctx, dispatch.RequestSpec{Path: path, Method: method, Body: body}).Await(ctx)
	c.log.InfoObj("request completed", "request_meta", map[string]any{
		"path":       path,
		"method":     method,
		"status":     res.StatusCode,
		"outcome":    res.Outcome().String(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return res, err
}

// CreateUser registers a new account.
func (c *Client) CreateUser(ctx context.Context, username, password string) (loginapi.MessageResponse, error) {
	return c.api.CreateUser(ctx, username, password)
}

// Login generates a token and stores it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	token, err := c.api.GenerateToken(ctx, username, password)
	if err != nil {
		return err
	}
	if err := c.tokens.SaveToken(username, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	c.log.InfoObj("token stored", "username", username)
	return nil
}

// Logout forgets the stored token.
func (c *Client) Logout(username string) error {
	return c.tokens.DeleteToken(username)
}

// ServerTime asks the server for its time using the stored token of username.
// A rejected token is dropped from the store.
func (c *Client) ServerTime(ctx context.Context, username string) (time.Time, error) {
	token, found, err := c.tokens.Token(strings.TrimSpace(username))
	if err != nil {
		return time.Time{}, fmt.Errorf("read token: %w", err)
	}
	if !found {
		return time.Time{}, ErrNoToken
	}

	ts, err := c.api.Time(ctx, token)
	var apiErr *loginapi.APIError
	if errors.As(err, &apiErr) {
		if delErr := c.tokens.DeleteToken(username); delErr != nil {
			c.log.WarnObj("failed to drop rejected token", "error", delErr.Error())
		}
	}
	return ts, err
}
