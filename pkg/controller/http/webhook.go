package http

import (
	"context"
	"crypto/subtle"
	"io"
	"net/http"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/carrot/pkg/domain/interfaces"
	"github.com/m-mizutani/carrot/pkg/domain/model"
	"github.com/m-mizutani/carrot/pkg/utils/errutil"
)

// WebhookHandler handles GitLab merge request webhooks
type WebhookHandler struct {
	token       string
	maxBodySize int64
	webhookUC   interfaces.WebhookUseCase
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(token string, webhookUC interfaces.WebhookUseCase, maxBodySize int64) *WebhookHandler {
	return &WebhookHandler{
		token:       token,
		maxBodySize: maxBodySize,
		webhookUC:   webhookUC,
	}
}

// Handle processes webhook requests. Once the token is accepted the response is always 200, so
// that GitLab does not retry or disable the hook because of a failure further down.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	if !h.verifyToken(r.Header.Get("X-Gitlab-Token")) {
		logger.Warn("Invalid webhook token", "remote_addr", r.RemoteAddr)
		writeError(w, r, goerr.New("invalid token"), http.StatusForbidden)
		return
	}

	event, err := h.readEvent(w, r)
	if err != nil {
		logger.Warn("Discarding malformed webhook payload", "error", err)
		event = nil
	}

	// GitLab hanging up must not abort the dispatch; outbound calls are bounded by the HTTP
	// client timeouts instead
	if err := h.webhookUC.ProcessEvent(context.WithoutCancel(ctx), event); err != nil {
		errutil.Handle(ctx, "failed to process webhook event", err)
	}

	writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "Ok",
	})
}

func (h *WebhookHandler) readEvent(w http.ResponseWriter, r *http.Request) (*model.WebhookEvent, error) {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read request body", goerr.T(model.ErrTagMalformedPayload))
	}

	return model.ParseWebhookEvent(body)
}

func (h *WebhookHandler) verifyToken(token string) bool {
	if h.token == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) == 1
}
