package notification_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivebox/pkg/notification"
)

type stubAlert struct {
	text string
}

func (a *stubAlert) Via() []string { return []string{"slack"} }

func (a *stubAlert) ToSlack() notification.SlackData {
	return notification.SlackData{
		Text:        a.text,
		Attachments: []notification.SlackAttachment{{Color: "warning", Title: "heads up"}},
	}
}

func TestSendSlackPostsPayload(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &got))
	}))
	defer srv.Close()

	notification.SetSlackWebhook(srv.URL)
	defer notification.SetSlackWebhook("")

	errs := notification.Send("", &stubAlert{text: "12 orphans removed"})
	assert.Empty(t, errs)
	assert.Equal(t, "12 orphans removed", got["text"])

	atts, ok := got["attachments"].([]interface{})
	require.True(t, ok)
	require.Len(t, atts, 1)
}

func TestSendSlackSurfacesHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such channel", http.StatusNotFound)
	}))
	defer srv.Close()

	notification.SetSlackWebhook(srv.URL)
	defer notification.SetSlackWebhook("")

	errs := notification.Send("", &stubAlert{text: "x"})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "404")
}

func TestSendSlackUnconfigured(t *testing.T) {
	notification.SetSlackWebhook("")
	errs := notification.Send("", &stubAlert{text: "x"})
	require.Len(t, errs, 1)
}

type wrongChannel struct{}

func (w *wrongChannel) Via() []string { return []string{"mail"} }

func TestSendRejectsMissingChannelPayload(t *testing.T) {
	errs := notification.Send("user@example.com", &wrongChannel{})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "Mailable")
}

type pinger struct {
	url string
}

func (p *pinger) Via() []string { return []string{"webhook"} }

func (p *pinger) ToWebhook() notification.WebhookData {
	return notification.WebhookData{
		URL:     p.url,
		Payload: map[string]int{"removed": 3},
		Headers: map[string]string{"X-Source": "drivebox"},
	}
}

func TestSendWebhook(t *testing.T) {
	var gotHeader string
	var got map[string]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Source")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
	}))
	defer srv.Close()

	errs := notification.Send("", &pinger{url: srv.URL})
	assert.Empty(t, errs)
	assert.Equal(t, "drivebox", gotHeader)
	assert.Equal(t, 3, got["removed"])
}
