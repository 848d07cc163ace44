package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/jkarimi/iou-engine/internal/config"
	"github.com/jkarimi/iou-engine/internal/gateway"
	"github.com/jkarimi/iou-engine/internal/notify"
	"github.com/jkarimi/iou-engine/internal/repository"
	"github.com/jkarimi/iou-engine/internal/sweeper"
	"github.com/jkarimi/iou-engine/pkg/logger"
	"github.com/jkarimi/iou-engine/pkg/pg"
	"github.com/jkarimi/iou-engine/pkg/taskqueue"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("loading configuration", "error", err)
	}

	db, err := pg.Connect(cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.GetConnMaxLifetime())
	if err != nil {
		logger.Fatal("connecting to database", "error", err)
	}
	defer db.Close()

	debtRepo := repository.NewDebtRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	queue := taskqueue.New(taskqueue.Options{
		Workers:     cfg.Queue.Workers,
		BufferSize:  cfg.Queue.BufferSize,
		MaxAttempts: cfg.Queue.MaxAttempts,
		BackoffBase: cfg.GetBackoffBase(),
	})

	resolver := notify.NewResolver(templateRepo)
	dispatcher := notify.NewDispatcher(notificationRepo, resolver,
		gateway.NewMailClient(gateway.MailConfig{
			APIURL:  cfg.Notification.MailAPIURL,
			APIKey:  cfg.Notification.MailAPIKey,
			From:    cfg.Notification.FromEmail,
			Timeout: cfg.GetSendTimeout(),
		}),
		gateway.NewSMSClient(gateway.SMSConfig{
			APIURL:   cfg.Notification.SMSAPIURL,
			APIKey:   cfg.Notification.SMSAPIKey,
			SenderID: cfg.Notification.SMSSender,
			Timeout:  cfg.GetSendTimeout(),
		}),
		notify.Config{
			EmailEnabled: cfg.Notification.EmailEnabled,
			SMSEnabled:   cfg.Notification.SMSEnabled,
		},
	)
	tasks := notify.NewTasks(debtRepo, paymentRepo, dispatcher, resolver, queue)
	tasks.RegisterAll()
	queue.Start()

	sweep := sweeper.New(debtRepo, notificationRepo, tasks, sweeper.Options{
		LogRetention:   time.Duration(cfg.Sweeper.LogRetentionDays) * 24 * time.Hour,
		PendingTimeout: cfg.GetPendingTimeout(),
		ReminderDedup:  cfg.GetReminderDedupWindow(),
	})

	c := cron.New(cron.WithSeconds())
	setupCronJobs(c, cfg, sweep)

	c.Start()
	logger.Info("scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	if err := queue.Stop(30 * time.Second); err != nil {
		logger.Error("stopping task queue", "error", err)
	}
	logger.Info("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, sweep *sweeper.Sweeper) {
	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{
			name: "process-scheduled-notifications",
			spec: cfg.Sweeper.ScheduledSpec,
			run: func(ctx context.Context) error {
				_, err := sweep.ProcessScheduled(ctx)
				return err
			},
		},
		{
			name: "daily-debt-reminders",
			spec: cfg.Sweeper.DailyReminderSpec,
			run: func(ctx context.Context) error {
				_, err := sweep.DailyReminders(ctx)
				return err
			},
		},
		{
			name: "cleanup-notification-logs",
			spec: cfg.Sweeper.CleanupSpec,
			run: func(ctx context.Context) error {
				_, err := sweep.CleanupLogs(ctx)
				return err
			},
		},
		{
			name: "reconcile-stuck-notifications",
			spec: cfg.Sweeper.ReconcileSpec,
			run: func(ctx context.Context) error {
				_, err := sweep.ReconcileTimeouts(ctx)
				return err
			},
		},
	}

	for _, job := range jobs {
		job := job
		_, err := c.AddFunc(job.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			if err := job.run(ctx); err != nil {
				logger.Error("sweep job failed", "job", job.name, "error", err)
			}
		})
		if err != nil {
			logger.Fatal("scheduling sweep job", "job", job.name, "spec", job.spec, "error", err)
		}
	}

	logger.Info("cron jobs scheduled", "count", len(jobs))
}
