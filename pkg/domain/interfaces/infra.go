package interfaces

import (
	"context"

	"github.com/m-mizutani/carrot/pkg/domain/model"
)

// ManifestFetcher downloads a manifest file
type ManifestFetcher interface {
	FetchManifest(ctx context.Context, url string) ([]byte, error)
}

// RegistryClient looks up package metadata. Errors are tagged with
// model.ErrTagRegistryUnreachable or model.ErrTagRegistryParse.
type RegistryClient interface {
	LatestVersion(ctx context.Context, pkg string) (*model.PackageVersion, error)
}

// Dispatcher starts a CI workflow run
type Dispatcher interface {
	Dispatch(ctx context.Context, req *model.DispatchRequest) error
}

// Notifier delivers a message to the person who triggered a webhook
type Notifier interface {
	Notify(ctx context.Context, n *model.Notification) error
}
