package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/carrot/pkg/domain/interfaces"
	"github.com/m-mizutani/carrot/pkg/domain/model"
)

type matrixUseCase struct {
	fetcher  interfaces.ManifestFetcher
	registry interfaces.RegistryClient
}

// NewMatrix creates the matrix builder. registry may be shared between builds; the per-build
// memoization lives in the Resolver created for each Build call.
func NewMatrix(fetcher interfaces.ManifestFetcher, registry interfaces.RegistryClient) interfaces.MatrixUseCase {
	return &matrixUseCase{
		fetcher:  fetcher,
		registry: registry,
	}
}

// Build fetches tests/civicarrot.json of the repository at revision, fills in default
// dimensions and resolves all placeholders
func (uc *matrixUseCase) Build(ctx context.Context, repoURL, revision string) (string, error) {
	logger := ctxlog.From(ctx)
	url := model.ManifestURL(repoURL, revision)

	data, err := uc.fetcher.FetchManifest(ctx, url)
	if err != nil {
		return "", goerr.Wrap(err, "failed to fetch manifest",
			goerr.V("url", url), goerr.T(model.ErrTagManifestFetch))
	}

	spec, err := model.ParseManifest(data)
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse manifest",
			goerr.V("url", url), goerr.T(model.ErrTagManifestParse))
	}
	spec.FillDefaults()

	raw, err := spec.MarshalJSON()
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode matrix", goerr.V("url", url))
	}

	matrix := NewResolver(uc.registry).Substitute(ctx, string(raw))

	logger.Debug("Matrix resolved",
		"url", url,
		"include", spec.IsInclude(),
		"matrix", matrix,
	)

	return matrix, nil
}
