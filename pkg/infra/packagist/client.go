package packagist

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/carrot/pkg/domain/interfaces"
	"github.com/m-mizutani/carrot/pkg/domain/model"
	"github.com/m-mizutani/carrot/pkg/domain/types"
)

// DefaultBaseURL is the Composer v2 metadata repository
const DefaultBaseURL = "https://repo.packagist.org"

type client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// Option configures the Packagist client
type Option func(*client)

// WithBaseURL points the client to another Composer v2 repository
func WithBaseURL(url string) Option {
	return func(c *client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *client) {
		c.userAgent = ua
	}
}

// NewClient creates a Packagist metadata client
func NewClient(httpClient *http.Client, opts ...Option) interfaces.RegistryClient {
	c := &client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
		userAgent:  types.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// metadataResponse is the p2 document. Only the first version record is complete; later ones
// are diffs against their predecessor, so nothing but [0] is read.
type metadataResponse struct {
	Packages map[string][]struct {
		Version string          `json:"version"`
		Require json.RawMessage `json:"require"`
	} `json:"packages"`
}

// LatestVersion returns the first version record listed for pkg
func (c *client) LatestVersion(ctx context.Context, pkg string) (*model.PackageVersion, error) {
	url := c.baseURL + "/p2/" + pkg + ".json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create registry request",
			goerr.V("url", url), goerr.T(model.ErrTagRegistryUnreachable))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query registry",
			goerr.V("url", url), goerr.T(model.ErrTagRegistryUnreachable))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status code from registry",
			goerr.V("url", url), goerr.V("status", resp.StatusCode), goerr.T(model.ErrTagRegistryUnreachable))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read registry response",
			goerr.V("url", url), goerr.T(model.ErrTagRegistryUnreachable))
	}

	var meta metadataResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, goerr.Wrap(err, "failed to decode registry response",
			goerr.V("url", url), goerr.T(model.ErrTagRegistryParse))
	}

	versions := meta.Packages[pkg]
	if len(versions) == 0 || versions[0].Version == "" {
		return nil, goerr.New("no version listed for package",
			goerr.V("package", pkg), goerr.T(model.ErrTagRegistryParse))
	}

	return &model.PackageVersion{
		Package:       pkg,
		Version:       versions[0].Version,
		PHPConstraint: phpConstraint(versions[0].Require),
	}, nil
}

// phpConstraint extracts require.php. require may be absent or the string "__unset".
func phpConstraint(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var require map[string]string
	if err := json.Unmarshal(raw, &require); err != nil {
		return ""
	}
	return require["php"]
}
