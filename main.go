package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/abhay-jindal/shopkart/handlers"
	"github.com/abhay-jindal/shopkart/internal/auth"
	"github.com/abhay-jindal/shopkart/internal/cache"
	"github.com/abhay-jindal/shopkart/internal/consul"
	"github.com/abhay-jindal/shopkart/internal/orders"
	"github.com/abhay-jindal/shopkart/internal/razorpay"
	"github.com/abhay-jindal/shopkart/internal/stores/kafka"
	"github.com/abhay-jindal/shopkart/internal/stores/postgres"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const gatewayTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("service startup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := postgres.OpenDB()
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	ordersConf, err := orders.NewConf(db)
	if err != nil {
		return fmt.Errorf("creating orders conf: %w", err)
	}

	brokers := strings.Split(os.Getenv("KAFKA_BROKERS"), ",")
	kafkaConf, err := kafka.NewConf(brokers)
	if err != nil {
		return fmt.Errorf("connecting to kafka: %w", err)
	}
	defer kafkaConf.Close()

	gateway := razorpay.NewClient(
		os.Getenv("RAZORPAY_BASE_URL"),
		os.Getenv("RAZORPAY_KEY_ID"),
		os.Getenv("RAZORPAY_KEY_SECRET"),
		gatewayTimeout,
	)
	webhookSecret := os.Getenv("RAZORPAY_WEBHOOK_SECRET")
	if webhookSecret == "" {
		return fmt.Errorf("RAZORPAY_WEBHOOK_SECRET is not set")
	}

	orch, err := orders.NewOrchestrator(ordersConf, gateway)
	if err != nil {
		return fmt.Errorf("creating checkout orchestrator: %w", err)
	}

	pubPEM, err := os.ReadFile(os.Getenv("AUTH_PUBLIC_KEY_FILE"))
	if err != nil {
		return fmt.Errorf("reading auth public key: %w", err)
	}
	keys, err := auth.NewKeys(pubPEM)
	if err != nil {
		return fmt.Errorf("loading auth keys: %w", err)
	}

	consulClient, err := consul.NewClient()
	if err != nil {
		return fmt.Errorf("connecting to consul: %w", err)
	}

	prefix := os.Getenv("SERVICE_ENDPOINT_PREFIX")
	if prefix == "" {
		prefix = "/orders"
	}
	port, err := strconv.Atoi(os.Getenv("SERVICE_PORT"))
	if err != nil {
		return fmt.Errorf("SERVICE_PORT is not a number: %w", err)
	}
	host := os.Getenv("SERVICE_HOST")
	if host == "" {
		host = "localhost"
	}

	serviceID := "orders-" + uuid.NewString()
	if err := consul.RegisterService(consulClient, "orders", serviceID, host, port); err != nil {
		return fmt.Errorf("registering with consul: %w", err)
	}
	defer func() {
		if err := consulClient.Agent().ServiceDeregister(serviceID); err != nil {
			slog.Error("consul deregistration failed", slog.String("error", err.Error()))
		}
	}()

	api := handlers.API(prefix, keys, consulClient, ordersConf, orch, gateway,
		kafkaConf, cache.NewLocalCache(), webhookSecret)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      api,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("order service listening", slog.String("addr", srv.Addr))
		serverErr <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		slog.Info("shutdown started", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}
