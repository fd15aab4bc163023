package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/proxy"

	"github.com/sahil485/neXus/internal/model"
)

// userFields is the field set requested for every user record. Requesting
// them on the following endpoint too means each page carries full profiles,
// so first-degree expansion usually needs no separate profile calls.
const userFields = "id,name,username,description,location,public_metrics,verified,verified_type,protected"

// Defaults for retry and pagination behavior.
const (
	// DefaultMaxAttempts is the number of attempts per call for transient
	// failures (timeouts, 5xx).
	DefaultMaxAttempts = 3

	// DefaultBackoffBase is the first retry delay; subsequent delays
	// double it (1s, 2s, 4s).
	DefaultBackoffBase = time.Second

	// DefaultPageSize is the following-list page size (upstream max 1000).
	DefaultPageSize = 1000

	// DefaultCallTimeout bounds each individual HTTP request.
	DefaultCallTimeout = 30 * time.Second

	// defaultQuotaResetWait is used when a quota-exceeded response carries
	// no usable reset header.
	defaultQuotaResetWait = time.Minute
)

// QuotaGovernor is the slice of the quota governor the client needs.
// Declared here so tests can substitute a non-blocking implementation.
type QuotaGovernor interface {
	// Acquire blocks until n tokens are available, then consumes them.
	Acquire(ctx context.Context, n int) error

	// Penalize drains the bucket for an upstream-declared reset window.
	Penalize(d time.Duration)
}

// Client talks to the upstream directory API.
//
// Design decision: We accept an external *http.Client rather than building
// one internally for proxy support, consistent timeouts in tests, and
// connection reuse across crawls. NewProxiedHTTPClient builds a SOCKS5
// transport for deployments that route API traffic through an egress proxy.
type Client struct {
	// httpClient performs the actual requests.
	httpClient *http.Client

	// baseURL is the API root, without a trailing slash.
	baseURL string

	// credential is the bearer credential attached to every request.
	credential string

	// governor is consulted before every request, one token per page.
	governor QuotaGovernor

	// pageSize is the max_results value for following-list pages.
	pageSize int

	// maxAttempts bounds transient retries per call.
	maxAttempts int

	// backoffBase is the first transient retry delay.
	backoffBase time.Duration

	// callTimeout bounds each individual request.
	callTimeout time.Duration

	// now, sleep and jitter are injectable for tests.
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration

	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API root. Tests point this at an httptest server.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = base
	}
}

// WithPageSize sets the following-list page size (1-1000).
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMaxAttempts sets the transient retry budget per call.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoffBase sets the first transient retry delay.
func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoffBase = d
		}
	}
}

// WithCallTimeout sets the per-request timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClock replaces the wall clock used for refresh timestamps and
// quota-reset arithmetic.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithSleeper replaces the backoff sleep function.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// WithJitter replaces the backoff jitter source.
func WithJitter(jitter func() time.Duration) Option {
	return func(c *Client) {
		c.jitter = jitter
	}
}

// NewClient creates a directory client that authenticates with credential
// and acquires from governor before every request.
func NewClient(credential string, governor QuotaGovernor, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{},
		baseURL:     "https://api.twitter.com/2",
		credential:  credential,
		governor:    governor,
		pageSize:    DefaultPageSize,
		maxAttempts: DefaultMaxAttempts,
		backoffBase: DefaultBackoffBase,
		callTimeout: DefaultCallTimeout,
		now:         time.Now,
		sleep:       sleepContext,
		jitter:      defaultJitter,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// NewProxiedHTTPClient builds an *http.Client that routes all traffic
// through the SOCKS5 proxy at addr ("host:port").
func NewProxiedHTTPClient(addr string) (*http.Client, error) {
	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	ctxDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("SOCKS5 dialer does not support context dialing")
	}

	return &http.Client{
		Transport: &http.Transport{
			DialContext: ctxDialer.DialContext,
		},
	}, nil
}

// FetchActor looks up a single actor's profile by ID.
// The returned actor carries LastRefreshedAt set to the fetch time. Protected
// accounts still resolve with IsRestricted set; OutcomeRestricted is reserved
// for lookups the upstream refuses outright.
func (c *Client) FetchActor(ctx context.Context, actorID string) (model.Actor, Outcome, error) {
	params := url.Values{}
	params.Set("user.fields", userFields)

	body, outcome, err := c.execute(ctx, "/users/"+actorID, params)
	if err != nil {
		return model.Actor{}, outcome, err
	}
	if outcome != OutcomeFound {
		return model.Actor{}, outcome, nil
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return model.Actor{}, OutcomeFound, fmt.Errorf("directory: malformed user response: %w", err)
	}
	if outcome := classifyAPIErrors(env.Errors); outcome != OutcomeFound {
		return model.Actor{}, outcome, nil
	}

	var user apiUser
	if err := json.Unmarshal(env.Data, &user); err != nil {
		return model.Actor{}, OutcomeFound, fmt.Errorf("directory: malformed user record: %w", err)
	}

	return user.toActor(c.now()), OutcomeFound, nil
}

// FetchFollowing returns the complete set of actors the given actor follows.
// Pagination is drained internally; each page costs one quota token. The
// returned profiles carry LastRefreshedAt set to their page's fetch time.
func (c *Client) FetchFollowing(ctx context.Context, actorID string) ([]model.Actor, Outcome, error) {
	var all []model.Actor
	var nextToken string
	pages := 0

	for {
		params := url.Values{}
		params.Set("user.fields", userFields)
		params.Set("max_results", strconv.Itoa(c.pageSize))
		if nextToken != "" {
			params.Set("pagination_token", nextToken)
		}

		body, outcome, err := c.execute(ctx, "/users/"+actorID+"/following", params)
		if err != nil {
			return nil, outcome, err
		}
		if outcome != OutcomeFound {
			return nil, outcome, nil
		}

		var env apiEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, OutcomeFound, fmt.Errorf("directory: malformed following response: %w", err)
		}
		if outcome := classifyAPIErrors(env.Errors); outcome != OutcomeFound {
			return nil, outcome, nil
		}

		var users []apiUser
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &users); err != nil {
				return nil, OutcomeFound, fmt.Errorf("directory: malformed following page: %w", err)
			}
		}

		fetchedAt := c.now()
		for _, u := range users {
			all = append(all, u.toActor(fetchedAt))
		}
		pages++

		if env.Meta.NextToken == "" {
			break
		}
		nextToken = env.Meta.NextToken
	}

	c.logger.Debug("drained following list",
		"actor_id", actorID,
		"count", len(all),
		"pages", pages,
	)

	return all, OutcomeFound, nil
}

// apiEnvelope is the upstream response envelope. Lookups that partially fail
// return HTTP 200 with an errors array instead of data, so both fields must
// be inspected.
type apiEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Meta   apiMeta         `json:"meta"`
	Errors []apiError      `json:"errors"`
}

// apiMeta carries pagination state.
type apiMeta struct {
	NextToken   string `json:"next_token"`
	ResultCount int    `json:"result_count"`
}

// apiError is one entry of the upstream errors array.
type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

// apiUser mirrors the upstream user record shape.
type apiUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Location      string `json:"location"`
	Verified      bool   `json:"verified"`
	VerifiedType  string `json:"verified_type"`
	Protected     bool   `json:"protected"`
	PublicMetrics struct {
		FollowersCount int `json:"followers_count"`
		FollowingCount int `json:"following_count"`
	} `json:"public_metrics"`
}

// toActor maps the duck-typed upstream record into the closed Actor type.
func (u apiUser) toActor(fetchedAt time.Time) model.Actor {
	return model.Actor{
		ActorID:         u.ID,
		Handle:          u.Username,
		DisplayName:     u.Name,
		Bio:             u.Description,
		Location:        u.Location,
		Verified:        u.Verified || u.VerifiedType != "",
		FollowerCount:   u.PublicMetrics.FollowersCount,
		FollowingCount:  u.PublicMetrics.FollowingCount,
		IsRestricted:    u.Protected,
		LastRefreshedAt: fetchedAt,
	}
}

// classifyAPIErrors maps the upstream errors array onto the closed outcome
// set. Unknown error titles default to NotFound: the record is unusable
// either way, and NotFound keeps it from being retried.
func classifyAPIErrors(errs []apiError) Outcome {
	if len(errs) == 0 {
		return OutcomeFound
	}
	for _, e := range errs {
		if e.Title == "Authorization Error" || e.Title == "Forbidden" {
			return OutcomeRestricted
		}
	}
	return OutcomeNotFound
}
