package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"rollcall/internal/config"
	"rollcall/internal/creds"
	"rollcall/internal/notify"
	"rollcall/internal/queue"
	"rollcall/internal/store"
)

// Notifier consumes queued absence jobs and sends one SMS per job.
// Attendance is committed before a job is ever queued, so failures here are
// logged and dropped rather than retried.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		log.Println("WARNING: memory queue has no cross-process delivery; the api serves its own jobs")
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:absences")
	}

	credStore := creds.NewStore(db, redisClient.Client)
	smsClient := notify.NewClient(cfg.SMSGatewayURL, cfg.SMSSendTimeout)
	dispatcher := notify.NewDispatcher(credStore, smsClient)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("notifier started, waiting for absence jobs...")
	dispatcher.Run(ctx, messages)
	log.Println("notifier stopped")
}
