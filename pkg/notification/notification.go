// Package notification delivers multi-channel notifications: email to a
// user, Slack and plain webhooks to operators.
//
// A notification names its channels and provides per-channel payloads:
//
//	type SweepAlert struct{ Removed int }
//	func (a *SweepAlert) Via() []string { return []string{"slack"} }
//	func (a *SweepAlert) ToSlack() notification.SlackData {
//	    return notification.SlackData{Text: fmt.Sprintf("sweep removed %d orphans", a.Removed)}
//	}
//
// Send:
//
//	notification.SendAsync("", &SweepAlert{Removed: n})
package notification

import (
	"fmt"
	"time"

	httpclient "drivebox/pkg/http"
	"drivebox/pkg/logger"
	"drivebox/pkg/mail"
)

// ------------------- Channel data structs -------------------

// MailData carries the data needed to send an email notification.
type MailData struct {
	To      string // overrides the notifiable address if set
	Subject string
	Body    string // HTML
	Text    string // plain-text fallback
}

// SlackData carries a Slack message payload.
type SlackData struct {
	WebhookURL  string // override default if set
	Text        string
	Attachments []SlackAttachment
}

// SlackAttachment is a single Slack message attachment block.
type SlackAttachment struct {
	Color  string `json:"color,omitempty"` // "good" | "warning" | "danger"
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

// WebhookData carries an arbitrary JSON payload to POST to a URL.
type WebhookData struct {
	URL     string
	Payload interface{}
	Headers map[string]string
}

// ------------------- Interfaces -------------------

// Notification is the minimal contract: which channels to deliver on.
type Notification interface {
	Via() []string
}

// Mailable provides the mail-channel payload.
type Mailable interface {
	ToMail() MailData
}

// Slackable provides the slack-channel payload.
type Slackable interface {
	ToSlack() SlackData
}

// Webhookable provides the webhook-channel payload.
type Webhookable interface {
	ToWebhook() WebhookData
}

var defaultSlackWebhook string

// SetSlackWebhook sets the fallback Slack webhook used when a SlackData
// carries none. Called once at bootstrap.
func SetSlackWebhook(url string) { defaultSlackWebhook = url }

// Send delivers n on every channel it names and collects the failures.
// address is the recipient for the mail channel; channels that do not
// address a person ignore it.
func Send(address string, n Notification) []error {
	var errs []error
	for _, channel := range n.Via() {
		if err := dispatch(address, channel, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// SendAsync delivers in a goroutine, logging failures instead of
// returning them.
func SendAsync(address string, n Notification) {
	go func() {
		for _, err := range Send(address, n) {
			logger.Error("notification: delivery failed", "type", fmt.Sprintf("%T", n), "error", err)
		}
	}()
}

func dispatch(address, channel string, n Notification) error {
	switch channel {
	case "mail":
		m, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Mailable", n)
		}
		return sendMail(address, m.ToMail())

	case "slack":
		s, ok := n.(Slackable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Slackable", n)
		}
		return sendSlack(s.ToSlack())

	case "webhook":
		wh, ok := n.(Webhookable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Webhookable", n)
		}
		return sendWebhook(wh.ToWebhook())

	default:
		return fmt.Errorf("notification: unknown channel %q", channel)
	}
}

// ------------------- Mail channel -------------------

func sendMail(address string, d MailData) error {
	to := d.To
	if to == "" {
		to = address
	}

	body := d.Body
	if body == "" {
		body = d.Text
	}

	return mail.To(to).Subject(d.Subject).Body(body).Text(d.Text).Send()
}

// ------------------- Slack channel -------------------

type slackPayload struct {
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

func sendSlack(d SlackData) error {
	url := d.WebhookURL
	if url == "" {
		url = defaultSlackWebhook
	}
	if url == "" {
		return fmt.Errorf("notification: slack webhook URL not configured")
	}

	resp, err := httpclient.Post(url).
		Body(slackPayload{Text: d.Text, Attachments: d.Attachments}).
		Timeout(5 * time.Second).
		Send()
	if err != nil {
		return fmt.Errorf("notification: slack post: %w", err)
	}
	return resp.Throw()
}

// ------------------- Webhook channel -------------------

func sendWebhook(d WebhookData) error {
	if d.URL == "" {
		return fmt.Errorf("notification: webhook URL is empty")
	}

	resp, err := httpclient.Post(d.URL).
		Headers(d.Headers).
		Body(d.Payload).
		Timeout(10 * time.Second).
		Retry(3, time.Second).
		Send()
	if err != nil {
		return fmt.Errorf("notification: webhook post: %w", err)
	}
	return resp.Throw()
}
