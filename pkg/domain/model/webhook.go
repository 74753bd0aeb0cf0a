package model

import (
	"bytes"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// KindMergeRequest is the value of both object_kind and event_type for merge request hooks
	KindMergeRequest = "merge_request"
	// StateOpened is the merge request state that triggers CI
	StateOpened = "opened"
)

// Decision is the outcome of classifying a webhook event
type Decision int

const (
	DecisionIgnore Decision = iota
	DecisionNotifyWrongEventType
	DecisionProceed
)

func (d Decision) String() string {
	switch d {
	case DecisionIgnore:
		return "ignore"
	case DecisionNotifyWrongEventType:
		return "notify_wrong_event_type"
	case DecisionProceed:
		return "proceed"
	default:
		return "unknown"
	}
}

// WebhookEvent represents a merge request hook received from GitLab
type WebhookEvent struct {
	ObjectKind     string // object_kind
	EventType      string // event_type
	State          string // object_attributes.state
	SourceURL      string // project.git_http_url
	Revision       string // last commit SHA, or source branch when no commit is given
	RequestURL     string // object_attributes.url
	RequesterEmail string // user.email, may be empty
}

// mergeRequestPayload is the subset of the GitLab merge request hook body we read
type mergeRequestPayload struct {
	ObjectKind       string `json:"object_kind"`
	EventType        string `json:"event_type"`
	ObjectAttributes struct {
		State        string `json:"state"`
		SourceBranch string `json:"source_branch"`
		URL          string `json:"url"`
		LastCommit   struct {
			ID string `json:"id"`
		} `json:"last_commit"`
	} `json:"object_attributes"`
	Project struct {
		GitHTTPURL string `json:"git_http_url"`
	} `json:"project"`
	User struct {
		Email string `json:"email"`
	} `json:"user"`
}

// ParseWebhookEvent decodes a hook body. Empty bodies, non-object JSON and empty objects are
// reported as ErrTagMalformedPayload.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, goerr.New("empty request body", goerr.T(ErrTagMalformedPayload))
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, goerr.Wrap(err, "request body is not a JSON object", goerr.T(ErrTagMalformedPayload))
	}
	if len(raw) == 0 {
		return nil, goerr.New("empty JSON object in request body", goerr.T(ErrTagMalformedPayload))
	}

	var payload mergeRequestPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, goerr.Wrap(err, "unexpected merge request payload shape", goerr.T(ErrTagMalformedPayload))
	}

	revision := payload.ObjectAttributes.LastCommit.ID
	if revision == "" {
		revision = payload.ObjectAttributes.SourceBranch
	}

	return &WebhookEvent{
		ObjectKind:     payload.ObjectKind,
		EventType:      payload.EventType,
		State:          payload.ObjectAttributes.State,
		SourceURL:      payload.Project.GitHTTPURL,
		Revision:       revision,
		RequestURL:     payload.ObjectAttributes.URL,
		RequesterEmail: payload.User.Email,
	}, nil
}

// IsMergeRequest reports whether both the object kind and the event type name a merge request
func (e *WebhookEvent) IsMergeRequest() bool {
	return e.ObjectKind == KindMergeRequest && e.EventType == KindMergeRequest
}

// Classify decides what to do with the event. A nil event (malformed payload) is ignored.
// Closed or merged merge requests are checked before the event type so that they never
// produce a wrong-event notification.
func (e *WebhookEvent) Classify() Decision {
	if e == nil {
		return DecisionIgnore
	}
	if e.IsMergeRequest() && e.State != StateOpened {
		return DecisionIgnore
	}
	if !e.IsMergeRequest() {
		return DecisionNotifyWrongEventType
	}
	return DecisionProceed
}
