package notify

import (
	"context"

	"github.com/m-mizutani/ctxlog"

	"github.com/m-mizutani/carrot/pkg/domain/model"
)

// Log only records notifications. Used when no delivery channel is configured.
type Log struct{}

func NewLog() *Log {
	return &Log{}
}

func (x *Log) Notify(ctx context.Context, n *model.Notification) error {
	ctxlog.From(ctx).Info("Notification (not delivered)",
		"template", n.Template,
		"recipient", n.Recipient,
		"subject", n.Subject(),
	)
	return nil
}
