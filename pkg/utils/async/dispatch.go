package async

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/carrot/pkg/utils/errutil"
)

var pending sync.WaitGroup

// Dispatch runs handler in its own goroutine. The handler gets a context that keeps the
// caller's logger but is detached from its cancellation, since the caller is usually an HTTP
// request that ends before the work does. Returned errors and panics are logged and reported.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	taskCtx := detach(ctx)

	pending.Add(1)
	go func() {
		defer pending.Done()
		defer func() {
			if r := recover(); r != nil {
				ctxlog.From(taskCtx).Error("panic in async handler",
					"recover", r,
					"stack", string(debug.Stack()),
				)
				sentry.GetHubFromContext(taskCtx).Recover(r)
			}
		}()

		if err := handler(taskCtx); err != nil {
			errutil.Handle(taskCtx, "error in async handler", err)
		}
	}()
}

// Wait blocks until every dispatched handler has returned or ctx is done
func Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "async handlers still running")
	}
}

func detach(ctx context.Context) context.Context {
	taskCtx := ctxlog.With(context.Background(), ctxlog.From(ctx))
	return sentry.SetHubOnContext(taskCtx, sentry.CurrentHub().Clone())
}
