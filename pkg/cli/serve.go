package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/carrot/pkg/cli/config"
	controller "github.com/m-mizutani/carrot/pkg/controller/http"
	"github.com/m-mizutani/carrot/pkg/infra/github"
	"github.com/m-mizutani/carrot/pkg/infra/gitlab"
	"github.com/m-mizutani/carrot/pkg/infra/httpclient"
	"github.com/m-mizutani/carrot/pkg/usecase"
	"github.com/m-mizutani/carrot/pkg/utils/async"
)

func cmdServe() *cli.Command {
	var (
		fileCfg     config.File
		serverCfg   config.Server
		gitlabCfg   config.GitLab
		githubCfg   config.GitHub
		registryCfg config.Registry
		notifyCfg   config.Notify
		sentryCfg   config.Sentry
	)

	var flags []cli.Flag
	flags = append(flags, fileCfg.Flags()...)
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, gitlabCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, registryCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, fileCfg.Apply(c)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := gitlabCfg.Validate(); err != nil {
				return err
			}
			if err := githubCfg.Validate(); err != nil {
				return err
			}

			flush, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			defer flush()

			logger.Info("Starting carrot server",
				slog.String("addr", serverCfg.Addr),
				slog.Any("github", githubCfg),
			)

			dispatcher, err := github.NewClient(
				httpclient.New(
					httpclient.WithConnectTimeout(registryCfg.ConnectTimeout),
					httpclient.WithVerifyTLS(githubCfg.VerifyTLS),
				),
				githubCfg.Credentials(),
				githubCfg.Target(),
				githubCfg.Options()...,
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create GitHub client")
			}
			if !githubCfg.VerifyTLS {
				logger.Warn("TLS verification of the GitHub API is disabled")
			}

			notifier, err := notifyCfg.NewNotifier()
			if err != nil {
				return err
			}

			fetcher := gitlab.NewClient(
				httpclient.New(httpclient.WithConnectTimeout(registryCfg.ConnectTimeout)),
				gitlab.WithUserAgent(registryCfg.UserAgent),
			)
			matrixUC := usecase.NewMatrix(fetcher, registryCfg.NewClient())
			webhookUC := usecase.NewWebhook(matrixUC, dispatcher, notifier,
				usecase.WithDispatchRef(githubCfg.Ref),
			)

			server, err := controller.NewServer(
				ctx,
				webhookUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithGitLabToken(gitlabCfg.Token),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}
			if err := async.Wait(shutdownCtx); err != nil {
				logger.Warn("Pending notifications were dropped", slog.Any("error", err))
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
