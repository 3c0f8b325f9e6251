package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"mediahub/internal/client/session"
	"mediahub/pkg/logger"
	"mediahub/pkg/models"
)

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 4 << 20

// RequestIDHeader carries the per-call request id, shared by all attempts
const RequestIDHeader = "X-Request-ID"

// TokenStore holds the bearer token between requests
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Client handles HTTP API communication
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	log        *logrus.Entry
	limiter    *rate.Limiter

	requestTimeout time.Duration
	maxAttempts    int
	backoffInitial time.Duration
	backoffMax     time.Duration
	tokenSkew      time.Duration
	now            func() time.Time

	onSessionExpired func()

	refreshGroup singleflight.Group
	getGroup     singleflight.Group
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenStore sets where the bearer token is read from and written to
func WithTokenStore(ts TokenStore) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the client logger
func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) { c.log = l }
}

// WithRequestTimeout bounds each individual attempt
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.requestTimeout = d }
}

// WithRetry sets the attempt budget for transient failures and the backoff bounds
func WithRetry(maxAttempts int, initial, max time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.backoffInitial = initial
		c.backoffMax = max
	}
}

// WithRateLimit limits outbound attempts. rps <= 0 disables the limiter.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTokenRefreshSkew refreshes a JWT proactively when it expires within d
func WithTokenRefreshSkew(d time.Duration) Option {
	return func(c *Client) { c.tokenSkew = d }
}

// WithSessionExpiredHook is called after a refresh fails terminally and
// credentials were cleared
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// WithClock overrides time.Now for expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a new API client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{},
		log:            logger.Component("api"),
		requestTimeout: 10 * time.Second,
		maxAttempts:    3,
		backoffInitial: 300 * time.Millisecond,
		backoffMax:     3 * time.Second,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens == nil {
		c.tokens = session.NewMemoryStore("")
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	return c
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tokens returns the client's token store
func (c *Client) Tokens() TokenStore {
	return c.tokens
}

type request struct {
	method string
	path   string
	body   interface{}
	noAuth bool
}

// Do performs an authenticated JSON request and decodes the envelope's data into out.
// Concurrent identical GETs share one round trip.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.send(ctx, request{method: method, path: path, body: body}, out)
}

func (c *Client) send(ctx context.Context, r request, out interface{}) error {
	var (
		raw json.RawMessage
		err error
	)

	if r.method == http.MethodGet && r.body == nil && !r.noAuth {
		var v interface{}
		v, _, err = c.shared(ctx, &c.getGroup, r.path, func(sctx context.Context) (interface{}, error) {
			return c.doAuthed(sctx, r)
		})
		if err == nil {
			raw = v.(json.RawMessage)
		}
	} else {
		raw, err = c.doAuthed(ctx, r)
	}
	if err != nil {
		return err
	}

	if out != nil && len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// doAuthed runs the request, refreshing the token and retrying once on an auth failure
func (c *Client) doAuthed(ctx context.Context, r request) (json.RawMessage, error) {
	if r.noAuth {
		return c.doWithRetry(ctx, r, "")
	}

	token, err := c.currentToken(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := c.doWithRetry(ctx, r, token)
	if err == nil || !isAuthFailure(err) {
		return raw, err
	}
	if token == "" {
		return nil, fmt.Errorf("%w: %w", models.ErrSessionExpired, err)
	}

	c.log.WithFields(logger.Fields{"path": r.path}).Debug("auth failure, refreshing token")
	newToken, rerr := c.refreshFrom(ctx, token)
	if rerr != nil {
		if errors.Is(rerr, models.ErrSessionExpired) {
			return nil, fmt.Errorf("%w: %w", models.ErrSessionExpired, err)
		}
		return nil, fmt.Errorf("%w (token refresh failed: %v)", err, rerr)
	}

	raw, err = c.doWithRetry(ctx, r, newToken)
	if err != nil && isAuthFailure(err) {
		c.expireSession(ctx)
		return nil, fmt.Errorf("%w: %w", models.ErrSessionExpired, err)
	}
	return raw, err
}

// shared runs fn once per key for all concurrent callers. fn gets a context
// detached from any one caller and bounded by the client's own budget; each
// caller stops waiting when its own ctx is done.
func (c *Client) shared(ctx context.Context, g *singleflight.Group, key string,
	fn func(context.Context) (interface{}, error)) (interface{}, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	ch := g.DoChan(key, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.callBudget())
		defer cancel()
		return fn(sctx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// callBudget bounds a whole logical call: every attempt and backoff, twice
// over to leave room for a token refresh
func (c *Client) callBudget() time.Duration {
	attempts := max(1, c.maxAttempts)
	return 2 * time.Duration(attempts) * (c.requestTimeout + c.backoffMax)
}

// currentToken returns the stored token, refreshing it first when it is about to expire
func (c *Client) currentToken(ctx context.Context) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil || token == "" {
		return "", nil
	}
	if c.tokenSkew <= 0 || !expiresWithin(token, c.tokenSkew, c.now()) {
		return token, nil
	}

	fresh, err := c.refreshFrom(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrSessionExpired) {
			return "", err
		}
		c.log.WithError(err).Warn("proactive token refresh failed")
		return token, nil
	}
	return fresh, nil
}

// RefreshToken exchanges the stored token for a new one. Concurrent callers
// share a single in-flight refresh.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrSessionExpired, err)
	}
	return c.refreshFrom(ctx, token)
}

// refreshFrom replaces stale with a new token, reusing one that a finished refresh already stored
func (c *Client) refreshFrom(ctx context.Context, stale string) (string, error) {
	if cur, err := c.tokens.Token(ctx); err == nil && cur != "" && cur != stale {
		return cur, nil
	}

	v, shared, err := c.shared(ctx, &c.refreshGroup, "refresh", func(ctx context.Context) (interface{}, error) {
		cur, err := c.tokens.Token(ctx)
		if err != nil || cur == "" {
			return "", models.ErrSessionExpired
		}
		if cur != stale {
			return cur, nil
		}

		var resp models.RefreshResponse
		raw, err := c.doWithRetry(ctx, request{
			method: http.MethodPost,
			path:   "/auth/refresh",
			body:   models.RefreshRequest{Token: cur},
			noAuth: true,
		}, cur)
		if err != nil {
			if isTerminalRefreshFailure(err) {
				c.expireSession(ctx)
				return "", fmt.Errorf("%w: %w", models.ErrSessionExpired, err)
			}
			return "", fmt.Errorf("token refresh failed: %w", err)
		}
		if err := json.Unmarshal(raw, &resp); err != nil || resp.Token == "" {
			c.expireSession(ctx)
			return "", fmt.Errorf("%w: refresh returned no token", models.ErrSessionExpired)
		}
		if err := c.tokens.SetToken(ctx, resp.Token); err != nil {
			return "", fmt.Errorf("failed to store refreshed token: %w", err)
		}

		c.log.Info("access token refreshed")
		return resp.Token, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.log.Debug("joined in-flight token refresh")
	}
	return v.(string), nil
}

func (c *Client) expireSession(ctx context.Context) {
	if err := c.tokens.Clear(ctx); err != nil {
		c.log.WithError(err).Error("failed to clear session")
	}
	c.log.Warn("session expired, credentials cleared")
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// doWithRetry sends the request, retrying transient failures with capped exponential backoff
func (c *Client) doWithRetry(ctx context.Context, r request, token string) (json.RawMessage, error) {
	var payload []byte
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.backoffInitial
	eb.MaxInterval = c.backoffMax
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.maxAttempts-1)), ctx)

	requestID := uuid.NewString()
	attempt := 0
	var result json.RawMessage

	op := func() error {
		attempt++
		raw, err := c.attempt(ctx, r, payload, token, requestID)
		if err == nil {
			result = raw
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if errors.Is(err, models.ErrTransient) {
			c.log.WithFields(logger.Fields{
				"method":     r.method,
				"path":       r.path,
				"attempt":    attempt,
				"request_id": requestID,
			}).WithError(err).Debug("transient failure")
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return result, nil
}

// attempt performs a single round trip under its own timeout
func (c *Client) attempt(ctx context.Context, r request, payload []byte, token, requestID string) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	actx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(actx, r.method, c.baseURL+r.path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s %s: %w", models.ErrTransient, r.method, r.path, err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logger.Fields{
		"method":     r.method,
		"path":       r.path,
		"status":     resp.StatusCode,
		"latency_ms": time.Since(start).Milliseconds(),
		"request_id": requestID,
	}).Debug("api request")

	return decodeAPIResponse(resp)
}

// decodeAPIResponse unwraps the response envelope, turning failures into *models.HTTPError
func decodeAPIResponse(resp *http.Response) (json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, fmt.Errorf("%w: failed to read response: %w", models.ErrTransient, err)
		}
		return nil, models.NewHTTPError(resp.StatusCode, "", "")
	}

	var env models.RawAPIResponse
	jsonErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if jsonErr != nil {
			return nil, models.NewHTTPError(resp.StatusCode, "", "")
		}
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return nil, models.NewHTTPError(resp.StatusCode, env.Code, msg)
	}

	if jsonErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", jsonErr)
	}
	if !env.Success {
		return nil, models.NewHTTPError(resp.StatusCode, env.Code, env.Error)
	}
	return env.Data, nil
}

func isAuthFailure(err error) bool {
	var httpErr *models.HTTPError
	return errors.As(err, &httpErr) && httpErr.IsAuthFailure()
}

// isTerminalRefreshFailure reports a refresh the server rejected outright
func isTerminalRefreshFailure(err error) bool {
	var httpErr *models.HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.IsAuthFailure() || httpErr.StatusCode == http.StatusBadRequest || httpErr.StatusCode == http.StatusForbidden
}

// expiresWithin reports whether token is a JWT whose exp is within skew of now.
// Opaque tokens never report expiry.
func expiresWithin(token string, skew time.Duration, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(now.Add(skew))
}
