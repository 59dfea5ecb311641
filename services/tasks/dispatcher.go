package tasks

import (
	"context"
	"fmt"
	"time"

	"tourbook/models"

	"github.com/hibiken/asynq"
)

// Dispatcher queues outgoing e-mail.
type Dispatcher interface {
	SendWelcome(ctx context.Context, p models.EmailPayload) error
	SendPasswordReset(ctx context.Context, p models.EmailPayload, ttl time.Duration) error
}

type asynqDispatcher struct {
	client *asynq.Client
}

func NewDispatcher(client *asynq.Client) Dispatcher {
	return &asynqDispatcher{client: client}
}

func (d *asynqDispatcher) SendWelcome(ctx context.Context, p models.EmailPayload) error {
	task, opts, err := NewWelcomeEmailTask(p)
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue welcome email: %w", err)
	}
	return nil
}

func (d *asynqDispatcher) SendPasswordReset(ctx context.Context, p models.EmailPayload, ttl time.Duration) error {
	task, opts, err := NewPasswordResetEmailTask(p, ttl)
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue password reset email: %w", err)
	}
	return nil
}
