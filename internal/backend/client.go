// Package backend is the REST client for the content back-end that stores
// sites and pages. Each call maps to one back-end endpoint and returns the
// decoded payload; failures are reported as structured errors carrying the
// HTTP status so the admin server can relay them.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/conneroisu/sitepanel/internal/errors"
	"github.com/conneroisu/sitepanel/internal/logging"
	"golang.org/x/net/publicsuffix"
)

// ErrNotFound matches errors for sites or pages the back-end does not know.
var ErrNotFound = errors.NewNotFoundError(errors.ErrCodeNotFound, "not found")

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 4 << 10

// Client talks to the content back-end over HTTP.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
	logger     logging.Logger
	timeout    time.Duration
	hasTimeout bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its cookie jar is kept
// as is; the client itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout, whatever the option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
		c.hasTimeout = true
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger.WithComponent("backend")
	}
}

// New creates a client for the back-end rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "invalid back-end URL: "+baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "back-end URL must be http or https: "+baseURL)
	}

	// The back-end authenticates the admin with a session cookie.
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.WrapInternal(err, errors.ErrCodeInternalError, "create cookie jar")
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Jar: jar, Timeout: 10 * time.Second},
		userAgent:  "sitepanel",
		logger:     logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.hasTimeout && c.httpClient.Timeout != c.timeout {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	return c, nil
}

// BaseURL returns the back-end root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// GetAllSites lists every site.
func (c *Client) GetAllSites(ctx context.Context) ([]Site, error) {
	var sites []Site
	if err := c.do(ctx, http.MethodGet, c.path("sites"), nil, &sites); err != nil {
		return nil, err
	}
	return sites, nil
}

// CreateSite creates a site and returns it as stored by the back-end.
func (c *Client) CreateSite(ctx context.Context, name string) (*Site, error) {
	var site Site
	if err := c.do(ctx, http.MethodPost, c.path("sites"), Site{Name: name}, &site); err != nil {
		return nil, err
	}
	if site.Name == "" {
		site.Name = name
	}
	return &site, nil
}

// GetPages lists the pages of a site.
func (c *Client) GetPages(ctx context.Context, site string) ([]Page, error) {
	var pages []Page
	if err := c.do(ctx, http.MethodGet, c.path("sites", site, "pages"), nil, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// GetPage fetches one page by slug.
func (c *Client) GetPage(ctx context.Context, site, slug string) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodGet, c.path("sites", site, "pages", slug), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AddPage creates a page under site.
func (c *Client) AddPage(ctx context.Context, site string, cmd PageAddCommand) (*Page, error) {
	cmd.Site = site
	var page Page
	if err := c.do(ctx, http.MethodPost, c.path("sites", site, "pages"), cmd, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePage replaces a page's fields.
func (c *Client) UpdatePage(ctx context.Context, site string, cmd PageUpdateCommand) error {
	cmd.Site = site
	return c.do(ctx, http.MethodPut, c.path("sites", site, "pages"), cmd, nil)
}

// DeletePage removes a page.
func (c *Client) DeletePage(ctx context.Context, site, slug string) error {
	return c.do(ctx, http.MethodDelete, c.path("sites", site, "pages", slug), nil, nil)
}

// PatchPageIndices reorders pages of a site in one request.
func (c *Client) PatchPageIndices(ctx context.Context, site string, cmds []PagePatchCommand) error {
	return c.do(ctx, http.MethodPatch, c.path("sites", site, "page-indices"), cmds, nil)
}

// path joins escaped segments onto the base URL.
func (c *Client) path(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.baseURL.String() + "/" + strings.Join(escaped, "/")
}

func (c *Client) do(ctx context.Context, method, target string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.WrapInternal(err, errors.ErrCodeInternalError, "encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return errors.WrapInternal(err, errors.ErrCodeInternalError, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn(ctx, err, "Back-end request failed", "method", method, "url", target)
		return errors.WrapNetwork(err, errors.ErrCodeBackendRequest, method+" "+req.URL.Path).
			WithComponent("backend")
	}
	defer resp.Body.Close()

	c.logger.Debug(ctx, "Back-end request",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, req.URL.Path, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errors.WrapNetwork(err, errors.ErrCodeBackendDecode, "decode "+method+" "+req.URL.Path).
			WithComponent("backend")
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(data))

	msg := fmt.Sprintf("%s %s: back-end returned %d", method, path, resp.StatusCode)
	if detail != "" {
		msg += ": " + detail
	}

	var pe *errors.PanelError
	if resp.StatusCode == http.StatusNotFound {
		pe = errors.NewNotFoundError(errors.ErrCodeNotFound, msg)
	} else {
		pe = errors.NewNetworkError(errors.ErrCodeBackendStatus, msg, nil)
	}

	return pe.WithComponent("backend").WithContext("status", resp.StatusCode)
}
