package model

// NotificationTemplate identifies the message sent to a merge request author
type NotificationTemplate string

const (
	TemplateMergeObjectsOnly NotificationTemplate = "merge_objects_only"
	TemplateTriggerFailure   NotificationTemplate = "trigger_failure"
)

// Notification is a message to the person who triggered a webhook
type Notification struct {
	Template  NotificationTemplate
	Recipient string
	Params    map[string]string
}

// Subject returns a one-line summary for the template
func (n *Notification) Subject() string {
	switch n.Template {
	case TemplateMergeObjectsOnly:
		return "CI webhook: only merge request events are supported"
	case TemplateTriggerFailure:
		return "CI webhook: failed to start the test workflow"
	default:
		return "CI webhook notification"
	}
}

// Body returns the message text for the template
func (n *Notification) Body() string {
	switch n.Template {
	case TemplateMergeObjectsOnly:
		return "The webhook only reacts to merge request events. " +
			"Please configure the GitLab webhook to send merge request events only."
	case TemplateTriggerFailure:
		return "The CI workflow could not be started. The CI provider responded with:\n\n" + n.Params["result"]
	default:
		return ""
	}
}
