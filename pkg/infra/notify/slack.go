package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/m-mizutani/carrot/pkg/domain/model"
)

// Slack posts notifications to an incoming webhook. The recipient e-mail is included in the
// message text since Slack users can not be addressed by e-mail through a webhook.
type Slack struct {
	webhookURL string
	httpClient *http.Client
}

func NewSlack(webhookURL string, httpClient *http.Client) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (x *Slack) Notify(ctx context.Context, n *model.Notification) error {
	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("*%s*\nRecipient: %s", n.Subject(), n.Recipient),
		Attachments: []slack.Attachment{
			{
				Color:  attachmentColor(n.Template),
				Text:   n.Body(),
				Footer: string(n.Template),
			},
		},
	}

	if err := slack.PostWebhookCustomHTTPContext(ctx, x.webhookURL, x.httpClient, msg); err != nil {
		return goerr.Wrap(err, "failed to post notification to Slack", goerr.V("template", n.Template))
	}

	ctxlog.From(ctx).Info("Notification posted to Slack", "template", n.Template, "recipient", n.Recipient)
	return nil
}

func attachmentColor(t model.NotificationTemplate) string {
	if t == model.TemplateTriggerFailure {
		return "danger"
	}
	return "warning"
}
