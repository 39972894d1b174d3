package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/ifacetool/internal/model"
)

// maxErrorBody bounds how much of an error response is kept in APIError.
const maxErrorBody = 512

// Options configures a Client.
type Options struct {
	// BaseURL is the store dashboard URL, e.g. https://dashboard.snapcraft.io.
	BaseURL string

	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds a single request. Zero means no timeout.
	Timeout time.Duration

	// Credentials authorize requests. Nil sends anonymous requests.
	Credentials *Credentials

	// Logger receives request logs. Nil uses slog.Default().
	Logger *slog.Logger

	// HTTPClient replaces the default client built from Timeout.
	HTTPClient *http.Client
}

// Client talks to the snap store.
type Client struct {
	baseURL    string
	userAgent  string
	creds      *Credentials
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a store client.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("store base URL must not be empty")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid store base URL: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: newTransport(),
			Timeout:   opts.Timeout,
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		creds:      opts.Credentials,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// newTransport clones the default transport. When ALL_PROXY is set,
// connections are dialed through that proxy instead of HTTP(S)_PROXY.
func newTransport() *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
	if os.Getenv("ALL_PROXY") != "" || os.Getenv("all_proxy") != "" {
		transport.Proxy = nil
		transport.DialContext = proxy.Dial
	}
	return transport
}

// infoResponse is the subset of /dev/api/snaps/info/<name> we use.
type infoResponse struct {
	SnapID    string `json:"snap_id"`
	Publisher struct {
		ID string `json:"id"`
	} `json:"publisher"`
}

// SnapInfo resolves the store identity of name.
func (c *Client) SnapInfo(ctx context.Context, name string) (*model.SnapRef, error) {
	if name == "" {
		return nil, model.ErrEmptySnapName
	}

	var info infoResponse
	if err := c.get(ctx, "/dev/api/snaps/info/"+url.PathEscape(name), nil, &info); err != nil {
		return nil, err
	}
	if info.SnapID == "" || info.Publisher.ID == "" {
		return nil, fmt.Errorf("%w: no snap id or publisher id for %s", ErrIncompleteResponse, name)
	}

	return &model.SnapRef{
		SnapName:    name,
		SnapID:      info.SnapID,
		PublisherID: info.Publisher.ID,
	}, nil
}

// revisionResponse is the subset of /api/v2/snaps/<name>/revisions/<rev> we use.
type revisionResponse struct {
	Revision *struct {
		Revision int    `json:"revision"`
		SnapYAML string `json:"snap-yaml"`
	} `json:"revision"`
}

// RevisionMetadata returns the revision number and snap.yaml of name at rev.
// An unset rev asks for the latest revision.
func (c *Client) RevisionMetadata(ctx context.Context, name string, rev model.Revision) (int, string, error) {
	if name == "" {
		return 0, "", model.ErrEmptySnapName
	}
	if rev.Kind() == model.RevisionLocal {
		return 0, "", fmt.Errorf("%w: %s", ErrLocalRevision, rev.Path())
	}

	path := fmt.Sprintf("/api/v2/snaps/%s/revisions/%s", url.PathEscape(name), rev)
	query := url.Values{"include-yaml": {"1"}}

	var resp revisionResponse
	if err := c.get(ctx, path, query, &resp); err != nil {
		return 0, "", err
	}
	if resp.Revision == nil || resp.Revision.SnapYAML == "" {
		return 0, "", fmt.Errorf("%w: no snap.yaml for %s@%s", ErrIncompleteResponse, name, rev)
	}

	return resp.Revision.Revision, resp.Revision.SnapYAML, nil
}

// get issues a GET for path and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create store request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.creds != nil {
		req.Header.Set("Authorization", c.creds.Header())
	}

	c.logger.Debug("store request", "url", u, "authorization", req.Header.Get("Authorization"))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("store request %s failed: %w", u, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("store response", "url", u, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best effort error detail
		return &APIError{
			StatusCode: resp.StatusCode,
			URL:        u,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode store response from %s: %w", u, err)
	}
	return nil
}
