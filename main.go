package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"task_app_backend/api"
	"task_app_backend/config"
	"task_app_backend/db"
	"task_app_backend/middleware"
	"task_app_backend/queue"
	"task_app_backend/service"
	"task_app_backend/workers"

	logrus "github.com/sirupsen/logrus"
)

func init() {
	// Configure logrus
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.Warnf("Unknown LOG_LEVEL %q, keeping info", cfg.LogLevel)
	}
	logger := logrus.StandardLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize the database
	database, err := db.OpenDB(cfg.DB)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.EnsureSchema(ctx, database, cfg.DB.Driver); err != nil {
		logrus.Fatalf("Failed to prepare schema: %v", err)
	}
	store := db.NewTaskStore(database, cfg.DB.Driver)

	opts := []service.Option{service.WithLogger(logger)}

	var wg sync.WaitGroup
	var eventQueue *queue.Queue
	if cfg.RedisAddr != "" {
		eventQueue = queue.NewQueue(cfg.RedisAddr)
		defer eventQueue.Close()
		if err := eventQueue.Ping(ctx); err != nil {
			logrus.Fatalf("Failed to connect to redis: %v", err)
		}
		opts = append(opts, service.WithPublisher(eventQueue))

		handler := workers.LogHandler(logger)
		for i := 0; i < cfg.Workers; i++ {
			worker := workers.NewWorker(fmt.Sprintf("worker-%d", i+1), eventQueue, handler, logger)
			wg.Add(1)
			go func() {
				defer wg.Done()
				worker.Start(ctx)
			}()
		}
	} else {
		logrus.Info("REDIS_ADDR not set, task events disabled")
	}

	svc, err := service.New(store, opts...)
	if err != nil {
		logrus.Fatalf("Service initiation failed: %v", err)
	}

	server := api.NewServer(svc, logger)
	server.Health = store
	server.RateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	server.AllowedOrigins = cfg.AllowedOrigins
	if eventQueue != nil {
		server.Workers = eventQueue
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Routes(),
	}

	go func() {
		logrus.WithField("addr", cfg.HTTPAddr).Info("Server started")
		var err error
		if cfg.TLSCertFile != "" {
			err = httpServer.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Shutdown failed: %v", err)
	}

	wg.Wait()
	logrus.Info("All workers have stopped")
}
