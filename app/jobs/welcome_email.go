package jobs

import (
	"errors"

	"drivebox/app/notifications"
	"drivebox/pkg/mail"
	"drivebox/pkg/notification"
)

// WelcomeEmailJob greets a new account. It reports success without sending
// when SMTP is not configured, the normal case in development.
type WelcomeEmailJob struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (j *WelcomeEmailJob) Handle() error {
	if !mail.Configured() {
		return nil
	}
	return errors.Join(notification.Send(j.Email, &notifications.Welcome{Name: j.Name})...)
}
