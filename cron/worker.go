package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tourbook/config"
	"tourbook/models"
	"tourbook/services/notification"
	"tourbook/services/tasks"
	"tourbook/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Reconciler recomputes derived ratings of every tour.
type Reconciler interface {
	ReconcileAll(ctx context.Context) error
}

// RedisOpt is the asynq connection for the queue database.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewMux routes every background task type to its handler.
func NewMux(mailer notification.Mailer, ratings Reconciler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeWelcomeEmail, handleWelcomeEmail(mailer))
	mux.HandleFunc(tasks.TypePasswordResetEmail, handlePasswordResetEmail(mailer))
	mux.HandleFunc(tasks.TypeRatingsReconcile, handleRatingsReconcile(ratings))
	return mux
}

// InitWorker runs the task server in the background. It returns the server
// so the caller can shut it down.
func InitWorker(mailer notification.Mailer, ratings Reconciler) *asynq.Server {
	logger := utils.GetLogger()
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"mail":    3,
				"default": 1,
			},
		},
	)
	mux := NewMux(mailer, ratings)

	// Start async worker with retry logic
	go func() {
		logger.Info("Starting task worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Warn("Task worker failed to start", zap.Int("attempt", attempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("Task worker gave up after max retry attempts")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

// InitScheduler enqueues the ratings reconcile task on the configured spec.
func InitScheduler() (*asynq.Scheduler, error) {
	logger := utils.GetLogger()
	scheduler := asynq.NewScheduler(RedisOpt(), &asynq.SchedulerOpts{
		EnqueueErrorHandler: func(task *asynq.Task, _ []asynq.Option, err error) {
			logger.Error("Scheduled enqueue failed", zap.String("type", task.Type()), zap.Error(err))
		},
	})

	spec := config.AppConfig.RatingsReconcileSpec
	if _, err := scheduler.Register(spec, tasks.NewRatingsReconcileTask(), asynq.Unique(time.Minute)); err != nil {
		return nil, fmt.Errorf("failed to register ratings reconcile: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}
	logger.Info("Ratings reconcile scheduled", zap.String("spec", spec))
	return scheduler, nil
}

func decodeEmail(task *asynq.Task) (models.EmailPayload, error) {
	var p models.EmailPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid email payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.To == "" {
		return p, fmt.Errorf("email payload without recipient: %w", asynq.SkipRetry)
	}
	return p, nil
}

func handleWelcomeEmail(mailer notification.Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := decodeEmail(task)
		if err != nil {
			utils.GetLogger().Error("Dropping welcome email", zap.Error(err))
			return err
		}
		return mailer.SendWelcome(ctx, p)
	}
}

func handlePasswordResetEmail(mailer notification.Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := decodeEmail(task)
		if err != nil {
			utils.GetLogger().Error("Dropping password reset email", zap.Error(err))
			return err
		}
		return mailer.SendPasswordReset(ctx, p)
	}
}

func handleRatingsReconcile(ratings Reconciler) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		start := time.Now()
		if err := ratings.ReconcileAll(ctx); err != nil {
			return err
		}
		utils.GetLogger().Info("Ratings reconciled", zap.Duration("took", time.Since(start)))
		return nil
	}
}
