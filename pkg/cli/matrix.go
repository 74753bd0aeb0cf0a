package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/carrot/pkg/cli/config"
	"github.com/m-mizutani/carrot/pkg/infra/gitlab"
	"github.com/m-mizutani/carrot/pkg/infra/httpclient"
	"github.com/m-mizutani/carrot/pkg/usecase"
)

// cmdMatrix prints the matrix a merge request would be dispatched with
func cmdMatrix() *cli.Command {
	var (
		fileCfg     config.File
		registryCfg config.Registry
		repoURL     string
		revision    string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "repo",
			Usage:       "Repository clone URL, e.g. https://lab.civicrm.org/extensions/foo.git",
			Required:    true,
			Destination: &repoURL,
		},
		&cli.StringFlag{
			Name:        "revision",
			Usage:       "Commit or branch to read tests/civicarrot.json from",
			Value:       "master",
			Destination: &revision,
		},
	}
	flags = append(flags, fileCfg.Flags()...)
	flags = append(flags, registryCfg.Flags()...)

	return &cli.Command{
		Name:  "matrix",
		Usage: "Resolve and print the CI matrix of a repository",
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, fileCfg.Apply(c)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			fetcher := gitlab.NewClient(
				httpclient.New(httpclient.WithConnectTimeout(registryCfg.ConnectTimeout)),
				gitlab.WithUserAgent(registryCfg.UserAgent),
			)
			matrixUC := usecase.NewMatrix(fetcher, registryCfg.NewClient())

			matrix, err := matrixUC.Build(ctx, repoURL, revision)
			if err != nil {
				return goerr.Wrap(err, "failed to build matrix")
			}

			_, err = fmt.Fprintln(c.Root().Writer, matrix)
			return err
		},
	}
}
