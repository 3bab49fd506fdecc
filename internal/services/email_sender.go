package services

import (
	"fmt"

	"blogssom/internal/models"
)

type EmailSender interface {
	Send(to string, subject string, body string) error
}

// Notifier renders the outbound account emails on top of an EmailSender.
// Send failures are returned synchronously; the reset flow depends on
// observing them to roll back the stored token.
type Notifier struct {
	Sender EmailSender
}

func (n *Notifier) SendWelcome(u *models.User, url string) error {
	subject := "Welcome to Blogssom!"
	body := fmt.Sprintf("Hi %s,\n\nWelcome to Blogssom! Visit %s to complete your profile.\n", u.FirstName, url)
	return n.Sender.Send(u.Email, subject, body)
}

func (n *Notifier) SendPasswordReset(u *models.User, resetURL string) error {
	subject := "Your password reset token (valid for only 10 minutes)"
	body := fmt.Sprintf("Hi %s,\n\nForgot your password? Reset it here:\n\n%s\n\nIf you didn't request a reset, ignore this email.\n", u.FirstName, resetURL)
	return n.Sender.Send(u.Email, subject, body)
}
