package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Raja-karthikeya-137/ticketing-system/config"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/bootstrap"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/cache"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/kafka"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/qr"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/repository"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/service/booking"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/service/issuance"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping postgres: %v", err)
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Issuance.CacheTTLSeconds)*time.Second)
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	encoder := qr.NewPNGEncoder(cfg.Issuance.QRSize)
	applicantRepo := repository.NewApplicantRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	issuanceService := issuance.NewIssuanceService(
		applicantRepo,
		encoder,
		redisCache,
		producer,
		cfg.Kafka.EventsTopic,
		issuance.WithPassPrefix(cfg.Issuance.PassPrefix),
		issuance.WithMaxIDAttempts(cfg.Issuance.MaxIDAttempts),
		issuance.WithOpTimeout(time.Duration(cfg.Issuance.OpTimeoutSeconds)*time.Second),
		issuance.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	bookingService := booking.NewBookingService(
		applicantRepo,
		ticketRepo,
		redisCache,
		producer,
		cfg.Kafka.EventsTopic,
		booking.WithOpTimeout(time.Duration(cfg.Booking.OpTimeoutSeconds)*time.Second),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, issuanceService, bookingService, pool.Ping); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
