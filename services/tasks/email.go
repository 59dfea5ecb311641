package tasks

import (
	"encoding/json"
	"time"

	"tourbook/models"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeWelcomeEmail       = "email:welcome"
	TypePasswordResetEmail = "email:password_reset"
	TypeRatingsReconcile   = "ratings:reconcile"
)

const emailQueue = "mail"

func newEmailTask(kind string, payload models.EmailPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(kind, b)
	opts := []asynq.Option{
		asynq.Queue(emailQueue),
		asynq.TaskID(uuid.NewString()),
		asynq.MaxRetry(3),
		asynq.Timeout(30 * time.Second),
	}
	return task, opts, nil
}

func NewWelcomeEmailTask(payload models.EmailPayload) (*asynq.Task, []asynq.Option, error) {
	return newEmailTask(TypeWelcomeEmail, payload)
}

// NewPasswordResetEmailTask expires with the token it carries.
func NewPasswordResetEmailTask(payload models.EmailPayload, ttl time.Duration) (*asynq.Task, []asynq.Option, error) {
	task, opts, err := newEmailTask(TypePasswordResetEmail, payload)
	if err != nil {
		return nil, nil, err
	}
	return task, append(opts, asynq.Deadline(time.Now().Add(ttl))), nil
}

func NewRatingsReconcileTask() *asynq.Task {
	return asynq.NewTask(TypeRatingsReconcile, nil)
}
