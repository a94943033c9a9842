package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tastebud/apiserver/internal/mq"
)

// QueueMailer hands reset mails to a broker; a worker process consumes
// the channel and performs the SMTP delivery.
type QueueMailer struct {
	backend mq.Backend
}

// NewQueueMailer constructs a mailer publishing to the given broker.
func NewQueueMailer(backend mq.Backend) *QueueMailer {
	return &QueueMailer{backend: backend}
}

// SendPasswordReset enqueues a reset-mail job.
func (m *QueueMailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	data, err := json.Marshal(ResetMailJob{To: to, Name: name, Link: link})
	if err != nil {
		return err
	}
	if _, err := m.backend.Publish(ctx, MailChannel, data, map[string]string{"type": "password_reset"}); err != nil {
		return fmt.Errorf("enqueueing reset mail: %w", err)
	}
	return nil
}

// ConsumeResetMail subscribes to the mail channel and delivers each job
// with the given mailer. It blocks until ctx is done.
func ConsumeResetMail(ctx context.Context, backend mq.Backend, sender Mailer) error {
	return backend.Subscribe(ctx, MailChannel, func(ctx context.Context, msg mq.Message) error {
		var job ResetMailJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			// Drop undecodable jobs instead of redelivering them forever.
			return nil
		}
		return sender.SendPasswordReset(ctx, job.To, job.Name, job.Link)
	})
}
