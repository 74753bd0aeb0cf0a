package errutil

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs err together with its goerr values and reports it to Sentry. Reporting is a
// no-op unless sentry.Init was called.
func Handle(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}

	attrs := []any{slog.Any("error", err)}
	details := sentry.Context{"message": msg}
	for k, v := range goerr.Values(err) {
		attrs = append(attrs, slog.Any(k, v))
		details[k] = v
	}
	ctxlog.From(ctx).Error(msg, attrs...)

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetContext("carrot", details)
		hub.CaptureException(err)
	})
}
