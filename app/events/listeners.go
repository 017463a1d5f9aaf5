package events

import (
	"encoding/json"

	"drivebox/app/jobs"
	"drivebox/pkg/event"
	"drivebox/pkg/logger"
	"drivebox/pkg/queue"
	"drivebox/pkg/ws"
)

// RegisterListeners attaches the event side effects: tree changes are
// pushed to the owner's open websockets, and a fresh registration queues
// the welcome mail.
func RegisterListeners(hub *ws.Hub) {
	for _, name := range []string{FileUploaded, FileDeleted, FolderCreated, FolderDeleted} {
		n := name
		event.Listen(n, func(payload interface{}) { push(hub, n, payload) })
	}

	event.Listen(UserRegistered, func(payload interface{}) {
		p, ok := payload.(UserPayload)
		if !ok {
			return
		}
		if err := queue.Dispatch(&jobs.WelcomeEmailJob{Email: p.Email, Name: p.Name}); err != nil {
			logger.Warn("events: welcome mail not queued", "email", p.Email, "error", err)
		}
	})
}

// push fans one event out to the owning user's sockets.
func push(hub *ws.Hub, name string, payload interface{}) {
	if hub == nil {
		return
	}
	userID := ownerOf(payload)
	if userID == 0 {
		return
	}
	msg, err := json.Marshal(map[string]interface{}{"event": name, "data": payload})
	if err != nil {
		logger.Error("events: marshal failed", "event", name, "error", err)
		return
	}
	hub.Publish(userID, msg)
}

func ownerOf(payload interface{}) uint {
	switch p := payload.(type) {
	case UserPayload:
		return p.UserID
	case FilePayload:
		return p.UserID
	case FolderPayload:
		return p.UserID
	case CascadePayload:
		return p.UserID
	}
	return 0
}
