package interfaces

import (
	"context"

	"github.com/m-mizutani/carrot/pkg/domain/model"
)

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// ProcessEvent filters a merge request event and dispatches CI for it. A nil event stands
	// for a payload that could not be decoded.
	ProcessEvent(ctx context.Context, event *model.WebhookEvent) error
}

// MatrixUseCase resolves the CI matrix of a repository revision
type MatrixUseCase interface {
	// Build returns the JSON encoded matrix with all placeholders resolved
	Build(ctx context.Context, repoURL, revision string) (string, error)
}
