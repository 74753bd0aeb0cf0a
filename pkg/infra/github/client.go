package github

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/carrot/pkg/domain/interfaces"
	"github.com/m-mizutani/carrot/pkg/domain/model"
)

// Credentials for Basic authentication against the GitHub API
type Credentials struct {
	Username string
	Token    string `masq:"secret"`
}

// Workflow identifies the workflow file that is dispatched
type Workflow struct {
	Owner string
	Repo  string
	File  string // e.g. webform_civicrm.yml
}

type client struct {
	githubClient *github.Client
	workflow     Workflow
}

// Option configures the dispatcher
type Option func(*github.Client) error

// WithBaseURL points the client at another API endpoint
func WithBaseURL(baseURL string) Option {
	return func(c *github.Client) error {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return goerr.Wrap(err, "invalid GitHub API base URL", goerr.V("url", baseURL))
		}
		c.BaseURL = u
		return nil
	}
}

// NewClient creates a workflow dispatcher authenticated with Basic auth on top of httpClient's
// transport
func NewClient(httpClient *http.Client, cred Credentials, workflow Workflow, opts ...Option) (interfaces.Dispatcher, error) {
	if workflow.Owner == "" || workflow.Repo == "" || workflow.File == "" {
		return nil, goerr.New("workflow owner, repo and file are required",
			goerr.V("owner", workflow.Owner), goerr.V("repo", workflow.Repo), goerr.V("file", workflow.File))
	}

	transport := &github.BasicAuthTransport{
		Username:  cred.Username,
		Password:  cred.Token,
		Transport: httpClient.Transport,
	}
	githubClient := github.NewClient(&http.Client{Transport: transport})

	for _, opt := range opts {
		if err := opt(githubClient); err != nil {
			return nil, err
		}
	}

	return &client{
		githubClient: githubClient,
		workflow:     workflow,
	}, nil
}

// Dispatch triggers a workflow_dispatch event. An error response from GitHub is returned as
// *model.DispatchRejectedError carrying the response body.
func (c *client) Dispatch(ctx context.Context, req *model.DispatchRequest) error {
	ref := req.Ref
	if ref == "" {
		ref = model.DefaultDispatchRef
	}

	resp, err := c.githubClient.Actions.CreateWorkflowDispatchEventByFileName(ctx,
		c.workflow.Owner, c.workflow.Repo, c.workflow.File,
		github.CreateWorkflowDispatchEventRequest{
			Ref:    ref,
			Inputs: req.Inputs(),
		})
	if err == nil {
		return nil
	}

	if resp != nil && resp.Response != nil && resp.StatusCode >= http.StatusBadRequest {
		return &model.DispatchRejectedError{
			StatusCode: resp.StatusCode,
			Body:       responseBody(resp.Response, err),
		}
	}

	return goerr.Wrap(err, "failed to dispatch workflow",
		goerr.V("owner", c.workflow.Owner),
		goerr.V("repo", c.workflow.Repo),
		goerr.V("workflow", c.workflow.File),
	)
}

// responseBody returns the raw error body. go-github keeps a readable copy of it after
// decoding the error.
func responseBody(resp *http.Response, err error) string {
	if resp.Body != nil {
		if data, readErr := io.ReadAll(resp.Body); readErr == nil && len(data) > 0 {
			return string(data)
		}
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Message != "" {
		return errResp.Message
	}
	return err.Error()
}
