package model

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrTagMalformedPayload    = goerr.NewTag("malformed_payload")
	ErrTagManifestFetch       = goerr.NewTag("manifest_fetch")
	ErrTagManifestParse       = goerr.NewTag("manifest_parse")
	ErrTagRegistryUnreachable = goerr.NewTag("registry_unreachable")
	ErrTagRegistryParse       = goerr.NewTag("registry_parse")
)

// DispatchRejectedError is returned when the CI provider answers a workflow dispatch with an
// error body
type DispatchRejectedError struct {
	StatusCode int
	Body       string
}

func (e *DispatchRejectedError) Error() string {
	return fmt.Sprintf("workflow dispatch rejected (status %d): %s", e.StatusCode, e.Body)
}
