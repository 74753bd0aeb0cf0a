package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/carrot/pkg/domain/model"
	"github.com/m-mizutani/carrot/pkg/infra/github"
)

// GitHub holds the credentials and target of the CI workflow dispatch
type GitHub struct {
	Username  string
	Token     string `masq:"secret"`
	Owner     string
	Repo      string
	Workflow  string
	Ref       string
	BaseURL   string
	VerifyTLS bool
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-username",
			Usage:       "GitHub user for basic authentication",
			Destination: &c.Username,
			Sources:     cli.EnvVars("CARROT_GITHUB_USERNAME"),
		},
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub personal access token",
			Destination: &c.Token,
			Sources:     cli.EnvVars("CARROT_GITHUB_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "github-owner",
			Usage:       "Owner of the repository running the CI workflow",
			Destination: &c.Owner,
			Sources:     cli.EnvVars("CARROT_GITHUB_OWNER"),
		},
		&cli.StringFlag{
			Name:        "github-repo",
			Usage:       "Repository running the CI workflow",
			Destination: &c.Repo,
			Sources:     cli.EnvVars("CARROT_GITHUB_REPO"),
		},
		&cli.StringFlag{
			Name:        "github-workflow",
			Usage:       "Workflow file name, e.g. main.yml",
			Value:       "main.yml",
			Destination: &c.Workflow,
			Sources:     cli.EnvVars("CARROT_GITHUB_WORKFLOW"),
		},
		&cli.StringFlag{
			Name:        "github-ref",
			Usage:       "Branch the workflow is dispatched on",
			Value:       model.DefaultDispatchRef,
			Destination: &c.Ref,
			Sources:     cli.EnvVars("CARROT_GITHUB_REF"),
		},
		&cli.StringFlag{
			Name:        "github-base-url",
			Usage:       "GitHub API base URL (for GitHub Enterprise)",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("CARROT_GITHUB_BASE_URL"),
		},
		&cli.BoolFlag{
			Name:        "github-verify-tls",
			Usage:       "Verify the TLS certificate of the GitHub API",
			Value:       true,
			Destination: &c.VerifyTLS,
			Sources:     cli.EnvVars("CARROT_GITHUB_VERIFY_TLS"),
		},
	}
}

// Validate checks that every value needed for a dispatch is present
func (c *GitHub) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"github-username", c.Username},
		{"github-token", c.Token},
		{"github-owner", c.Owner},
		{"github-repo", c.Repo},
		{"github-workflow", c.Workflow},
	}
	for _, r := range required {
		if r.value == "" {
			return goerr.New("missing GitHub configuration", goerr.V("flag", r.name))
		}
	}
	return nil
}

// Credentials returns the basic authentication pair
func (c *GitHub) Credentials() github.Credentials {
	return github.Credentials{Username: c.Username, Token: c.Token}
}

// Target returns the workflow to dispatch
func (c *GitHub) Target() github.Workflow {
	return github.Workflow{Owner: c.Owner, Repo: c.Repo, File: c.Workflow}
}

// Options returns client options derived from the configuration
func (c *GitHub) Options() []github.Option {
	var opts []github.Option
	if c.BaseURL != "" {
		opts = append(opts, github.WithBaseURL(c.BaseURL))
	}
	return opts
}
