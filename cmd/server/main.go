package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jkarimi/iou-engine/internal/config"
	"github.com/jkarimi/iou-engine/internal/gateway"
	"github.com/jkarimi/iou-engine/internal/handler"
	"github.com/jkarimi/iou-engine/internal/notify"
	"github.com/jkarimi/iou-engine/internal/repository"
	"github.com/jkarimi/iou-engine/internal/service"
	"github.com/jkarimi/iou-engine/pkg/logger"
	"github.com/jkarimi/iou-engine/pkg/pg"
	"github.com/jkarimi/iou-engine/pkg/response"
	"github.com/jkarimi/iou-engine/pkg/taskqueue"
)

const migrationsDir = "migrations"

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

	if err := pg.Migrate(db, migrationsDir); err != nil {
		logger.Fatal("applying migrations", "error", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	debtRepo := repository.NewDebtRepository(db)
	planRepo := repository.NewPaymentPlanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	transactor := repository.NewTransactor(db)

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

	debtService := service.NewDebtService(debtRepo, planRepo, paymentRepo, notificationRepo, transactor, tasks, redisClient)
	notificationService := service.NewNotificationService(notificationRepo, templateRepo)

	debtHandler := handler.NewDebtHandler(debtService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	healthHandler := handler.NewHealthHandler(db, redisClient, queue)

	router := setupRoutes(debtHandler, notificationHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced server shutdown", "error", err)
	}
	if err := queue.Stop(30 * time.Second); err != nil {
		logger.Error("stopping task queue", "error", err)
	}

	logger.Info("server exited")
}

func setupRoutes(debtHandler *handler.DebtHandler, notificationHandler *handler.NotificationHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)

	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(response.JSONMiddleware)

	api.HandleFunc("/debts", debtHandler.CreateDebt).Methods("POST")
	api.HandleFunc("/debts", debtHandler.ListDebts).Methods("GET")
	api.HandleFunc("/debts/stats", debtHandler.Statistics).Methods("GET")
	api.HandleFunc("/debts/{id}", debtHandler.GetDebt).Methods("GET")
	api.HandleFunc("/debts/{id}", debtHandler.DeleteDebt).Methods("DELETE")
	api.HandleFunc("/debts/{id}/payments", debtHandler.RecordPayment).Methods("POST")
	api.HandleFunc("/debts/{id}/payments", debtHandler.ListPayments).Methods("GET")
	api.HandleFunc("/debts/{id}/payment-plan", debtHandler.CreatePaymentPlan).Methods("POST")
	api.HandleFunc("/debts/{id}/payment-plan", debtHandler.GetPaymentPlan).Methods("GET")
	api.HandleFunc("/debts/{id}/mark-paid", debtHandler.MarkPaid).Methods("POST")
	api.HandleFunc("/debts/{id}/remind", debtHandler.SendReminder).Methods("POST")
	api.HandleFunc("/debts/{id}/remind/schedule", debtHandler.ScheduleReminder).Methods("POST")

	api.HandleFunc("/notifications/preferences", notificationHandler.GetPreferences).Methods("GET")
	api.HandleFunc("/notifications/preferences", notificationHandler.UpdatePreferences).Methods("PATCH")
	api.HandleFunc("/notifications/history", notificationHandler.History).Methods("GET")
	api.HandleFunc("/notifications/templates", notificationHandler.ListReminderTemplates).Methods("GET")

	return router
}
