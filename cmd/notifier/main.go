package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/samirrijal/ridepool/internal/adapters/nats"
	"github.com/samirrijal/ridepool/internal/core/domain"
	"github.com/samirrijal/ridepool/internal/pkg/config"
	"github.com/samirrijal/ridepool/internal/pkg/logging"
)

// The notifier consumes lifecycle notifications from JetStream and delivers
// them out-of-process. Delivery is a structured log line for now; push and
// email transports plug in behind deliver.
func main() {
	cfg, err := config.Load("ridepool-notifier")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	if err := sub.SubscribeNotifications(ctx, deliver); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("notifier started", "nats", cfg.NATS.URL)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received", "signal", sig.String())
}

func deliver(ctx context.Context, userID string, n *domain.Notification) error {
	slog.Info("notification delivered",
		"user_id", userID,
		"event", n.Event,
		"ride_id", n.RideID,
		"booking_id", n.BookingID,
		"message", n.Message,
	)
	return nil
}
