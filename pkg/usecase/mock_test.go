package usecase_test

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/carrot/pkg/domain/model"
)

// mockRegistry serves fixed package versions and records lookups
type mockRegistry struct {
	mu       sync.Mutex
	versions map[string]*model.PackageVersion
	calls    []string
}

func newMockRegistry(versions ...*model.PackageVersion) *mockRegistry {
	r := &mockRegistry{versions: make(map[string]*model.PackageVersion)}
	for _, v := range versions {
		r.versions[v.Package] = v
	}
	return r
}

func (r *mockRegistry) LatestVersion(ctx context.Context, pkg string) (*model.PackageVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, pkg)

	pv, ok := r.versions[pkg]
	if !ok {
		return nil, goerr.New("registry unavailable",
			goerr.V("package", pkg), goerr.T(model.ErrTagRegistryUnreachable))
	}
	return pv, nil
}

// mockFetcher returns a fixed manifest
type mockFetcher struct {
	data []byte
	err  error
	urls []string
}

func (f *mockFetcher) FetchManifest(ctx context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	return f.data, f.err
}

// mockMatrix returns a fixed matrix
type mockMatrix struct {
	result string
	err    error
	calls  []matrixCall
}

type matrixCall struct {
	RepoURL  string
	Revision string
}

func (m *mockMatrix) Build(ctx context.Context, repoURL, revision string) (string, error) {
	m.calls = append(m.calls, matrixCall{RepoURL: repoURL, Revision: revision})
	return m.result, m.err
}

// mockDispatcher records dispatch requests
type mockDispatcher struct {
	err   error
	calls []*model.DispatchRequest
}

func (d *mockDispatcher) Dispatch(ctx context.Context, req *model.DispatchRequest) error {
	d.calls = append(d.calls, req)
	return d.err
}

// mockNotifier records notifications
type mockNotifier struct {
	err   error
	calls []*model.Notification
}

func (n *mockNotifier) Notify(ctx context.Context, notification *model.Notification) error {
	n.calls = append(n.calls, notification)
	return n.err
}

var (
	drupal1010 = &model.PackageVersion{Package: model.PackageDrupalCore, Version: "10.1.0", PHPConstraint: ">=8.1.0"}
	civi5600   = &model.PackageVersion{Package: model.PackageCiviCRMCore, Version: "5.60.0", PHPConstraint: "~7.3 || ~8"}
)
