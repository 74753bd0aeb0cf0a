package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/carrot/pkg/domain/interfaces"
	"github.com/m-mizutani/carrot/pkg/infra/httpclient"
	"github.com/m-mizutani/carrot/pkg/infra/notify"
)

// Notify selects how merge request authors are told about problems. With nothing configured
// notifications are only logged.
type Notify struct {
	SMTPAddr     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string `masq:"secret"`

	SlackWebhookURL string `masq:"secret"`
}

// Flags returns CLI flags for notification configuration
func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "smtp-addr",
			Usage:       "Mail server host:port",
			Destination: &c.SMTPAddr,
			Sources:     cli.EnvVars("CARROT_SMTP_ADDR"),
		},
		&cli.StringFlag{
			Name:        "smtp-from",
			Usage:       "Sender address of notification mails",
			Destination: &c.SMTPFrom,
			Sources:     cli.EnvVars("CARROT_SMTP_FROM"),
		},
		&cli.StringFlag{
			Name:        "smtp-username",
			Usage:       "Mail server user",
			Destination: &c.SMTPUsername,
			Sources:     cli.EnvVars("CARROT_SMTP_USERNAME"),
		},
		&cli.StringFlag{
			Name:        "smtp-password",
			Usage:       "Mail server password",
			Destination: &c.SMTPPassword,
			Sources:     cli.EnvVars("CARROT_SMTP_PASSWORD"),
		},
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook for notifications",
			Destination: &c.SlackWebhookURL,
			Sources:     cli.EnvVars("CARROT_SLACK_WEBHOOK_URL"),
		},
	}
}

// NewNotifier builds the configured notifier. Delivery runs in the background so that a slow
// mail server does not hold up the webhook response.
func (c *Notify) NewNotifier() (interfaces.Notifier, error) {
	if c.SMTPAddr != "" && c.SlackWebhookURL != "" {
		return nil, goerr.New("smtp-addr and slack-webhook-url are mutually exclusive")
	}

	switch {
	case c.SMTPAddr != "":
		if c.SMTPFrom == "" {
			return nil, goerr.New("smtp-from is required with smtp-addr")
		}
		mailer, err := notify.NewSMTP(notify.SMTPConfig{
			Addr:     c.SMTPAddr,
			From:     c.SMTPFrom,
			Username: c.SMTPUsername,
			Password: c.SMTPPassword,
		})
		if err != nil {
			return nil, err
		}
		return notify.NewAsync(mailer), nil

	case c.SlackWebhookURL != "":
		return notify.NewAsync(notify.NewSlack(c.SlackWebhookURL, httpclient.New())), nil

	default:
		return notify.NewLog(), nil
	}
}
