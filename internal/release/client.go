package release

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/logging"
)

const (
	// DefaultAPIURL is the GitHub REST API root.
	DefaultAPIURL = "https://api.github.com"
	// DefaultTimeout bounds a single metadata request.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is the User-Agent header sent with requests.
	DefaultUserAgent = "fmtsync/1.0"
	// maxBodySize caps how much of a metadata response is read.
	maxBodySize = 16 << 20
)

// TokenSource supplies the bearer token attached to API requests.
// An empty token means anonymous access.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Client fetches release metadata for one repository.
type Client struct {
	httpClient *http.Client
	apiURL     string
	repository string
	userAgent  string
	tokens     TokenSource
	log        logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithAPIURL points the client at a different API root (tests, GHE).
func WithAPIURL(url string) Option {
	return func(cl *Client) { cl.apiURL = strings.TrimRight(url, "/") }
}

// WithTokenSource attaches credentials to every request.
func WithTokenSource(ts TokenSource) Option {
	return func(cl *Client) { cl.tokens = ts }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(cl *Client) { cl.log = logging.OrNoop(l) }
}

// NewClient creates a client for repository, given as "owner/name".
func NewClient(repository string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		apiURL:     DefaultAPIURL,
		repository: repository,
		userAgent:  DefaultUserAgent,
		log:        logging.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Repository returns the "owner/name" this client queries.
func (c *Client) Repository() string {
	return c.repository
}

// AllReleases returns the release listing in API order (newest first).
// A response that is not a JSON array yields an empty list.
func (c *Client) AllReleases(ctx context.Context) ([]Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases?per_page=100", c.apiURL, c.repository)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}
	return ParseReleases(body), nil
}

// Latest returns the release the API marks as latest.
func (c *Client) Latest(ctx context.Context) (Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.apiURL, c.repository)
	body, err := c.get(ctx, url)
	if err != nil {
		return Release{}, fmt.Errorf("get latest release: %w", err)
	}
	return ParseRelease(body), nil
}

// Release resolves version to a release record. "latest" uses the dedicated
// endpoint; anything else is normalised to a "v"-prefixed tag and matched as
// a prefix against the listing, first match wins.
func (c *Client) Release(ctx context.Context, version string) (Release, error) {
	if version == "" || version == LatestVersion {
		return c.Latest(ctx)
	}

	tag := NormalizeTag(version)
	releases, err := c.AllReleases(ctx)
	if err != nil {
		return Release{}, err
	}

	for _, r := range releases {
		if strings.HasPrefix(r.TagName, tag) {
			return r, nil
		}
	}

	return Release{}, fmt.Errorf("%w: %s in %s", ErrNoReleaseFound, tag, c.repository)
}

// get performs an authenticated-or-anonymous GET and returns the body.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "token "+token)
		}
	}

	c.log.Debug("fetching release metadata", "url", url, "authenticated", req.Header.Get("Authorization") != "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(url, resp, time.Now())
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}
