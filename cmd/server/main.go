package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/finvault/ledger/infra"
	accountinfra "github.com/finvault/ledger/infra/accountstore"
	eventbusinfra "github.com/finvault/ledger/infra/eventbus"
	ledgerinfra "github.com/finvault/ledger/infra/ledger"
	"github.com/finvault/ledger/pkg/authz"
	"github.com/finvault/ledger/pkg/config"
	"github.com/finvault/ledger/pkg/engine"
	"github.com/finvault/ledger/pkg/eventbus"
	accountsvc "github.com/finvault/ledger/pkg/service/account"
	"github.com/finvault/ledger/webapi"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := infra.Migrate(db); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	accounts := accountinfra.NewGormStore(db)
	records := ledgerinfra.NewGormStore(db)
	authorizer := authz.NewOwnerAuthorizer(accounts)

	var bus eventbus.Publisher
	if cfg.Kafka.Brokers != "" {
		kafkaBus, err := eventbusinfra.NewKafkaPublisher(eventbusinfra.KafkaPublisherConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, logger)
		if err != nil {
			return fmt.Errorf("kafka publisher: %w", err)
		}
		defer kafkaBus.Close() //nolint: errcheck
		bus = kafkaBus
		logger.Info("using kafka publisher", "topic", cfg.Kafka.Topic)
	} else {
		bus = eventbusinfra.NewMemoryPublisher(logger)
		logger.Info("no kafka brokers configured, using in-memory publisher")
	}

	eng := engine.New(accounts, records, authorizer, bus, engine.Config{
		MaxRetries:   cfg.Engine.MaxRetries,
		RetryBackoff: cfg.Engine.RetryBackoff,
	}, logger)
	svc := accountsvc.NewService(accounts, records, authorizer, logger)

	app := webapi.NewApp(eng, svc, cfg)

	logger.Info("starting server", "env", cfg.Env, "addr", cfg.Server.Addr)
	return app.Listen(cfg.Server.Addr)
}
