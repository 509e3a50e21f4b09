// Package app wires the ledger's storage, events, metrics and services
// together for the API server and the operator CLI.
package app

import (
	"fmt"

	"tripbudget/internal/config"
	"tripbudget/internal/database"
	"tripbudget/internal/events"
	"tripbudget/internal/logger"
	"tripbudget/internal/metrics"
	"tripbudget/internal/services"
	"tripbudget/internal/store"

	"gorm.io/gorm"
)

// App holds the long-lived dependencies of one process.
type App struct {
	Store     store.UnitOfWork
	Metrics   *metrics.Metrics
	Publisher events.Publisher
	Ledger    services.LedgerServicer
	Analytics services.AnalyticsServicer
	Audit     services.AuditServicer

	manager *database.Manager
	amqp    *events.AMQPPublisher
}

// New opens the configured store and event publisher and builds the services.
// A broker that cannot be reached is logged and replaced by a no-op
// publisher; the ledger never depends on it.
func New(cfg *config.Config, dbCfg *database.Config) (*App, error) {
	uow, mgr, err := database.OpenStore(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	a := &App{Store: uow, Metrics: metrics.New(), Publisher: events.Noop{}, manager: mgr}

	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Get().Warnw("Failed to connect to AMQP broker, continuing without events", "error", err)
		} else {
			logger.Get().Infow("Publishing ledger events", "exchange", cfg.AMQPExchange)
			a.amqp = pub
			a.Publisher = pub
		}
	}

	var db *gorm.DB
	if mgr != nil {
		db = mgr.DB()
	}
	a.Ledger = services.NewLedgerService(uow, a.Publisher, a.Metrics)
	a.Analytics = services.NewAnalyticsService(uow, a.Metrics)
	a.Audit = services.NewAuditService(db)
	return a, nil
}

// Manager returns the database manager, nil for the memory store.
func (a *App) Manager() *database.Manager {
	return a.manager
}

// Close releases the broker connection and the database pool.
func (a *App) Close() {
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			logger.Get().Warnw("failed to close AMQP publisher", "error", err)
		}
	}
	if a.manager != nil {
		if err := a.manager.Close(); err != nil {
			logger.Get().Warnw("failed to close database", "error", err)
		}
	}
}
