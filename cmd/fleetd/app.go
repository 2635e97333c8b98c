package main

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/logging"
	"github.com/ukydev/fleet-maintenance/internal/notify"
	"github.com/ukydev/fleet-maintenance/internal/reminder"
)

// app holds what both subcommands need.
type app struct {
	cfg       *config.Config
	client    *mongo.Client
	store     *db.Store
	publisher notify.Publisher
	job       *reminder.Job
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.Log)

	client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, err
	}
	store := db.NewStore(client, cfg.Mongo.Database)
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	log.WithField("database", cfg.Mongo.Database).Info("Connected to MongoDB")

	a := &app{cfg: cfg, client: client, store: store}
	a.publisher = newPublisher(cfg.MQTT)
	a.job = reminder.NewJob(store.Maintenances, store.Vehicles, store.Users,
		newMailer(cfg.SMTP), a.publisher,
		reminder.Options{AppName: cfg.App.Name, BaseURL: cfg.App.BaseURL})
	return a, nil
}

func (a *app) close() {
	a.publisher.Close()
	if err := a.client.Disconnect(context.Background()); err != nil {
		log.WithError(err).Warn("Failed to disconnect from MongoDB")
	}
}

func newMailer(cfg *config.SMTPConfig) notify.Mailer {
	if cfg.Host == "" {
		log.Warn("SMTP_HOST not set, reminder emails will only be logged")
		return notify.LogMailer{}
	}
	mailer, err := notify.NewSMTPMailer(cfg)
	if err != nil {
		log.WithError(err).Warn("Invalid SMTP settings, reminder emails will only be logged")
		return notify.LogMailer{}
	}
	return mailer
}

// newPublisher connects to MQTT when a broker is configured. A broker that
// cannot be reached disables events rather than the service.
func newPublisher(cfg *config.MQTTConfig) notify.Publisher {
	if cfg.Broker == "" {
		return notify.NopPublisher{}
	}
	publisher, err := notify.NewMQTTPublisher(cfg)
	if err != nil {
		log.WithError(err).Warn("MQTT unavailable, reminder events disabled")
		return notify.NopPublisher{}
	}
	return publisher
}
