package notify

import (
	"context"

	"github.com/m-mizutani/carrot/pkg/domain/interfaces"
	"github.com/m-mizutani/carrot/pkg/domain/model"
	"github.com/m-mizutani/carrot/pkg/utils/async"
)

// Async delivers notifications in the background so that a slow mail server does not hold
// the webhook response. Delivery errors are logged by async.Dispatch.
type Async struct {
	inner interfaces.Notifier
}

func NewAsync(inner interfaces.Notifier) *Async {
	return &Async{inner: inner}
}

func (x *Async) Notify(ctx context.Context, n *model.Notification) error {
	async.Dispatch(ctx, func(ctx context.Context) error {
		return x.inner.Notify(ctx, n)
	})
	return nil
}
