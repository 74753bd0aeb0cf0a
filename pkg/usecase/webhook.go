package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/carrot/pkg/domain/interfaces"
	"github.com/m-mizutani/carrot/pkg/domain/model"
	"github.com/m-mizutani/carrot/pkg/utils/errutil"
)

type webhookUseCase struct {
	matrix     interfaces.MatrixUseCase
	dispatcher interfaces.Dispatcher
	notifier   interfaces.Notifier
	ref        string
}

// WebhookOption configures the webhook use case
type WebhookOption func(*webhookUseCase)

// WithDispatchRef sets the branch the CI workflow is dispatched on
func WithDispatchRef(ref string) WebhookOption {
	return func(uc *webhookUseCase) {
		uc.ref = ref
	}
}

// NewWebhook creates a new instance of WebhookUseCase
func NewWebhook(
	matrix interfaces.MatrixUseCase,
	dispatcher interfaces.Dispatcher,
	notifier interfaces.Notifier,
	opts ...WebhookOption,
) *webhookUseCase {
	uc := &webhookUseCase{
		matrix:     matrix,
		dispatcher: dispatcher,
		notifier:   notifier,
		ref:        model.DefaultDispatchRef,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ProcessEvent classifies a webhook event and dispatches CI for open merge requests. The
// returned error is informational only; callers acknowledge the webhook regardless.
func (uc *webhookUseCase) ProcessEvent(ctx context.Context, event *model.WebhookEvent) error {
	logger := ctxlog.From(ctx).With("invocation_id", uuid.NewString())
	ctx = ctxlog.With(ctx, logger)

	decision := event.Classify()

	switch decision {
	case model.DecisionIgnore:
		if event == nil {
			logger.Warn("Ignoring empty or malformed webhook payload")
		} else {
			logger.Info("Ignoring merge request that is not open",
				"state", event.State,
				"request_url", event.RequestURL,
			)
		}
		return nil

	case model.DecisionNotifyWrongEventType:
		logger.Info("Only open merge_request events are allowed",
			"object_kind", event.ObjectKind,
			"event_type", event.EventType,
		)
		uc.notify(ctx, event, model.TemplateMergeObjectsOnly, nil)
		return nil

	case model.DecisionProceed:
		return uc.dispatch(ctx, event)

	default:
		return goerr.New("unknown decision", goerr.V("decision", decision.String()))
	}
}

func (uc *webhookUseCase) dispatch(ctx context.Context, event *model.WebhookEvent) error {
	logger := ctxlog.From(ctx)

	logger.Info("Processing merge request",
		"source_url", event.SourceURL,
		"revision", event.Revision,
		"request_url", event.RequestURL,
	)

	matrix, err := uc.matrix.Build(ctx, event.SourceURL, event.Revision)
	if err != nil {
		return goerr.Wrap(err, "failed to build CI matrix",
			goerr.V("source_url", event.SourceURL),
			goerr.V("revision", event.Revision),
		)
	}

	req := &model.DispatchRequest{
		Ref:        uc.ref,
		Matrix:     matrix,
		RequestURL: event.RequestURL,
	}
	if err := uc.dispatcher.Dispatch(ctx, req); err != nil {
		var rejected *model.DispatchRejectedError
		if errors.As(err, &rejected) {
			uc.notify(ctx, event, model.TemplateTriggerFailure, map[string]string{
				"result": rejected.Body,
			})
		}
		return goerr.Wrap(err, "failed to dispatch CI workflow",
			goerr.V("request_url", event.RequestURL),
		)
	}

	logger.Info("CI workflow dispatched",
		"request_url", event.RequestURL,
		"matrix", matrix,
	)
	return nil
}

// notify sends a notification when the event carries an e-mail address. Delivery failures are
// reported but do not affect the webhook outcome.
func (uc *webhookUseCase) notify(ctx context.Context, event *model.WebhookEvent, template model.NotificationTemplate, params map[string]string) {
	if event.RequesterEmail == "" {
		return
	}

	n := &model.Notification{
		Template:  template,
		Recipient: event.RequesterEmail,
		Params:    params,
	}
	if err := uc.notifier.Notify(ctx, n); err != nil {
		errutil.Handle(ctx, "failed to send notification", err)
	}
}
