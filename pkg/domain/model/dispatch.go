package model

// DefaultDispatchRef is the branch of the CI repository the workflow runs on
const DefaultDispatchRef = "main"

// DispatchRequest is the payload of one workflow_dispatch call
type DispatchRequest struct {
	Ref        string
	Matrix     string // JSON encoded, placeholders already resolved
	RequestURL string // merge request the run was triggered for
}

// Inputs returns the workflow inputs sent with the dispatch
func (r *DispatchRequest) Inputs() map[string]any {
	return map[string]any{
		"matrix": r.Matrix,
		"prurl":  r.RequestURL,
	}
}
