// Package notifications defines what drivebox sends to people: the welcome
// mail for new accounts and the Slack alerts that go to operators.
package notifications

import (
	"fmt"
	"html"

	"drivebox/pkg/notification"
)

// Welcome greets a newly registered user over email.
type Welcome struct {
	Name string
}

func (w *Welcome) Via() []string { return []string{"mail"} }

func (w *Welcome) ToMail() notification.MailData {
	name := html.EscapeString(w.Name)
	return notification.MailData{
		Subject: "Welcome to Drivebox",
		Body: fmt.Sprintf(
			"<h2>Hi %s,</h2><p>Your drive is ready. Upload files, organise them into folders and reach them from any browser.</p>",
			name),
		Text: fmt.Sprintf("Hi %s, your drive is ready.", w.Name),
	}
}

// SweepAlert tells the ops channel that a reconciliation sweep removed
// orphaned blobs. Orphans appearing at a steady rate usually mean an upload
// path keeps failing between the blob write and the metadata write.
type SweepAlert struct {
	Removed int
}

func (a *SweepAlert) Via() []string { return []string{"slack"} }

func (a *SweepAlert) ToSlack() notification.SlackData {
	return notification.SlackData{
		Text: fmt.Sprintf("Blob sweep removed %d orphaned blob(s).", a.Removed),
		Attachments: []notification.SlackAttachment{{
			Color:  "warning",
			Title:  "Orphaned blobs swept",
			Text:   "Check upload failure metrics if this keeps happening.",
			Footer: "drivebox sweep",
		}},
	}
}
