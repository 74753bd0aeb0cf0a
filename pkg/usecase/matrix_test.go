package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/carrot/pkg/domain/model"
	"github.com/m-mizutani/carrot/pkg/usecase"
)

func TestMatrix_Build(t *testing.T) {
	tests := []struct {
		name          string
		manifest      string
		versions      []*model.PackageVersion
		expected      string
		registryCalls []string
	}{
		{
			name:          "empty singlePR gets resolved defaults",
			manifest:      `{"singlePR":{}}`,
			versions:      []*model.PackageVersion{drupal1010, civi5600},
			expected:      `{"civicrm":["5.61.x-dev"],"drupal":["~10.1.0"],"php-versions":["8.1"]}`,
			registryCalls: []string{model.PackageDrupalCore, model.PackageCiviCRMCore},
		},
		{
			name:          "missing singlePR behaves like empty",
			manifest:      `{}`,
			versions:      []*model.PackageVersion{drupal1010, civi5600},
			expected:      `{"civicrm":["5.61.x-dev"],"drupal":["~10.1.0"],"php-versions":["8.1"]}`,
			registryCalls: []string{model.PackageDrupalCore, model.PackageCiviCRMCore},
		},
		{
			name:          "registry down falls back",
			manifest:      `{"singlePR":{}}`,
			expected:      `{"civicrm":["dev-master"],"drupal":["^9"],"php-versions":["7.0"]}`,
			registryCalls: []string{model.PackageDrupalCore, model.PackageCiviCRMCore},
		},
		{
			name:     "concrete values need no lookups",
			manifest: `{"singlePR":{"php-versions":["8.2"],"drupal":["~10.2.0"],"civicrm":["5.70.x-dev"]}}`,
			versions: []*model.PackageVersion{drupal1010, civi5600},
			expected: `{"civicrm":["5.70.x-dev"],"drupal":["~10.2.0"],"php-versions":["8.2"]}`,
		},
		{
			name:     "numbers are kept as written",
			manifest: `{"singlePR":{"php-versions":[8.0,7.4],"drupal":["~9.5.0"],"civicrm":["5.60.x-dev"],"mysql":["5.7"]}}`,
			expected: `{"civicrm":["5.60.x-dev"],"drupal":["~9.5.0"],"mysql":["5.7"],"php-versions":[8.0,7.4]}`,
		},
		{
			name: "include rows pass through with substitution only",
			manifest: `{"singlePR":{"include":[
				{"php-versions":"7.4","drupal":"CIVICARROT_DRUPAL_PRIOR","civicrm":"CIVICARROT_CIVI_DEV"},
				{"php-versions":"8.1","drupal":"~10.1.0","civicrm":"5.60.x-dev"}
			]}}`,
			versions: []*model.PackageVersion{{Package: model.PackageDrupalCore, Version: "9.2.4"}},
			expected: `{"include":[{"civicrm":"dev-master","drupal":"~9.1.1","php-versions":"7.4"},` +
				`{"civicrm":"5.60.x-dev","drupal":"~10.1.0","php-versions":"8.1"}]}`,
			registryCalls: []string{model.PackageDrupalCore},
		},
		{
			name:     "exclude rows are kept",
			manifest: `{"singlePR":{"php-versions":["7.4","8.1"],"drupal":["~9.5.0"],"civicrm":["5.60.x-dev"],"exclude":[{"php-versions":"7.4"}]}}`,
			expected: `{"civicrm":["5.60.x-dev"],"drupal":["~9.5.0"],"exclude":[{"php-versions":"7.4"}],"php-versions":["7.4","8.1"]}`,
		},
		{
			name:          "html characters are not escaped",
			manifest:      `{"singlePR":{"php-versions":["8.1"],"drupal":[">=9 <11"],"civicrm":["CIVICARROT_CIVI_LATEST"]}}`,
			versions:      []*model.PackageVersion{civi5600},
			expected:      `{"civicrm":["5.60.0"],"drupal":[">=9 <11"],"php-versions":["8.1"]}`,
			registryCalls: []string{model.PackageCiviCRMCore},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &mockFetcher{data: []byte(tt.manifest)}
			registry := newMockRegistry(tt.versions...)
			uc := usecase.NewMatrix(fetcher, registry)

			got, err := uc.Build(context.Background(), "https://git.example/org/repo.git", "abc123")
			gt.NoError(t, err)
			gt.Value(t, got).Equal(tt.expected)
			gt.Value(t, fetcher.urls).Equal([]string{"https://git.example/org/repo/-/raw/abc123/tests/civicarrot.json"})
			gt.Number(t, len(registry.calls)).Equal(len(tt.registryCalls))
			if len(tt.registryCalls) > 0 {
				gt.Value(t, registry.calls).Equal(tt.registryCalls)
			}
		})
	}
}

func TestMatrix_BuildIsIdempotentOnResolvedOutput(t *testing.T) {
	fetcher := &mockFetcher{data: []byte(`{"singlePR":{}}`)}
	uc := usecase.NewMatrix(fetcher, newMockRegistry(drupal1010, civi5600))

	first, err := uc.Build(context.Background(), "https://git.example/org/repo", "abc123")
	gt.NoError(t, err)

	registry := newMockRegistry(drupal1010, civi5600)
	second := usecase.NewResolver(registry).Substitute(context.Background(), first)
	gt.Value(t, second).Equal(first)
	gt.Number(t, len(registry.calls)).Equal(0)
}

func TestMatrix_BuildErrors(t *testing.T) {
	t.Run("fetch failure", func(t *testing.T) {
		fetcher := &mockFetcher{err: errors.New("connection refused")}
		registry := newMockRegistry(drupal1010, civi5600)
		uc := usecase.NewMatrix(fetcher, registry)

		_, err := uc.Build(context.Background(), "https://git.example/org/repo.git", "abc123")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, model.ErrTagManifestFetch))
		gt.Number(t, len(registry.calls)).Equal(0)
	})

	t.Run("not JSON", func(t *testing.T) {
		fetcher := &mockFetcher{data: []byte(`<html>404</html>`)}
		registry := newMockRegistry(drupal1010, civi5600)
		uc := usecase.NewMatrix(fetcher, registry)

		_, err := uc.Build(context.Background(), "https://git.example/org/repo.git", "abc123")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, model.ErrTagManifestParse))
		gt.Number(t, len(registry.calls)).Equal(0)
	})

	t.Run("dimension is not a list", func(t *testing.T) {
		fetcher := &mockFetcher{data: []byte(`{"singlePR":{"drupal":"~9"}}`)}
		uc := usecase.NewMatrix(fetcher, newMockRegistry())

		_, err := uc.Build(context.Background(), "https://git.example/org/repo.git", "abc123")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, model.ErrTagManifestParse))
	})
}
