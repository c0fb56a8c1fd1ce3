package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
	"github.com/vladislavdragonenkov/marketplace/internal/storage/memory"
	"github.com/vladislavdragonenkov/marketplace/internal/storage/postgres"
)

// Dependencies содержит хранилища приложения. В зависимости от конфигурации
// это либо Postgres, либо in-memory реализации.
type Dependencies struct {
	Orders      domain.OrderRepository
	Catalog     domain.Catalog
	Shops       domain.ShopDirectory
	Cart        domain.CartSource
	Outbox      domain.OutboxRepository
	Timeline    domain.TimelineRepository
	Idempotency domain.IdempotencyRepository

	// Store не nil только при работе поверх Postgres.
	Store  *postgres.Store
	Logger *log.Entry
}

// NewDependencies подключает хранилища. Непустой dsn означает Postgres:
// соединение открывается, миграции применяются, все репозитории работают
// поверх него. Пустой dsn собирает in-memory стек для разработки и демо.
func NewDependencies(ctx context.Context, dsn string, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	if dsn == "" {
		logger.Info("postgres dsn is empty, using in-memory storage")
		return &Dependencies{
			Orders:      memory.NewOrderRepository(),
			Catalog:     memory.NewCatalog(),
			Shops:       memory.NewShopDirectory(),
			Cart:        memory.NewCartStore(),
			Outbox:      memory.NewOutboxRepository(),
			Timeline:    memory.NewTimelineRepository(),
			Idempotency: memory.NewIdempotencyRepository(),
			Logger:      logger,
		}, nil
	}

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("postgres storage initialized")

	return &Dependencies{
		Orders:      postgres.NewOrderRepository(store),
		Catalog:     postgres.NewCatalog(store),
		Shops:       postgres.NewShopDirectory(store),
		Cart:        postgres.NewCartSource(store),
		Outbox:      postgres.NewOutboxRepository(store),
		Timeline:    postgres.NewTimelineRepository(store),
		Idempotency: postgres.NewIdempotencyRepository(store),
		Store:       store,
		Logger:      logger,
	}, nil
}

// Close освобождает ресурсы хранилищ.
func (d *Dependencies) Close() {
	if d.Store == nil {
		return
	}
	if err := d.Store.Close(); err != nil {
		d.Logger.WithError(err).Warn("failed to close postgres store")
	}
}
