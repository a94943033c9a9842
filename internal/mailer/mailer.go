package mailer

import "context"

// Mailer delivers password-reset links. A nil Mailer at the HTTP
// boundary means no channel is configured and the reset link is
// returned to the requester directly (dev fallback).
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, link string) error
}

// ResetMailJob is the queue payload for a password-reset email.
type ResetMailJob struct {
	To   string `json:"to"`
	Name string `json:"name"`
	Link string `json:"link"`
}

// MailChannel is the broker channel reset-mail jobs travel on.
const MailChannel = "emails"
