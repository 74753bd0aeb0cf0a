package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// GitLab holds the shared secret GitLab sends with every webhook
type GitLab struct {
	Token string `masq:"secret"`
}

// Flags returns CLI flags for GitLab configuration
func (c *GitLab) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gitlab-token",
			Usage:       "Secret token expected in the X-Gitlab-Token header",
			Destination: &c.Token,
			Sources:     cli.EnvVars("CARROT_GITLAB_TOKEN"),
		},
	}
}

// Validate checks that the token is configured
func (c *GitLab) Validate() error {
	if c.Token == "" {
		return goerr.New("gitlab-token is required")
	}
	return nil
}
