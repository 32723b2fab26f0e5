package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	billingApp "github.com/hirelane/hirelane/internal/billing/application"
	billingDomain "github.com/hirelane/hirelane/internal/billing/domain"
	billingEvents "github.com/hirelane/hirelane/internal/billing/infrastructure/events"
	"github.com/hirelane/hirelane/internal/billing/infrastructure/paymentapi"
	"github.com/hirelane/hirelane/internal/gateway"
	jobsApp "github.com/hirelane/hirelane/internal/jobs/application"
	jobsAPI "github.com/hirelane/hirelane/internal/jobs/infrastructure/api"
	"github.com/hirelane/hirelane/internal/shared/infrastructure/eventbus"
	"github.com/hirelane/hirelane/internal/shared/infrastructure/kvstore"
	"github.com/hirelane/hirelane/pkg/config"
	"github.com/hirelane/hirelane/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	Store   kvstore.Store
	Gateway *gateway.Client
	Metrics *observability.Metrics
	Health  *observability.HealthRegistry
	Events  eventbus.Publisher

	// Repositories
	Records billingDomain.RecordRepository
	Tokens  gateway.TokenStore

	// Application services
	Ledger    *billingApp.Ledger
	Checkout  *billingApp.Checkout
	Downloads *jobsApp.Downloads

	// API clients
	Payments *paymentapi.Client
	Jobs     *jobsAPI.Client
}

// NewContainer opens the configured store and wires every service on top of it.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	storeCfg, err := StoreConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := kvstore.Open(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", storeCfg.Driver, err)
	}
	logger.Debug("store opened", zap.String("driver", string(storeCfg.Driver)))

	c, err := newContainer(cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return c, nil
}

// NewContainerWithStore wires the services on top of an existing store.
func NewContainerWithStore(cfg *config.Config, store kvstore.Store, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return newContainer(cfg, store, logger)
}

func newContainer(cfg *config.Config, store kvstore.Store, logger *zap.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Metrics: observability.NewMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	factory, err := NewRepositoryFactory(store).WithTokenKey(cfg.Store.TokenKey)
	if err != nil {
		return nil, err
	}
	c.Records = factory.RecordRepository()
	c.Tokens = factory.TokenStore()

	gw, err := gateway.NewClient(gateway.Config{
		BaseURL:                 cfg.APIBaseURL,
		Timeout:                 cfg.RequestTimeout,
		UserAgent:               "hirelane-cli",
		BreakerEnabled:          cfg.Breaker.Enabled,
		BreakerFailureThreshold: cfg.Breaker.FailureThreshold,
		BreakerTimeout:          cfg.Breaker.Timeout,
		RatePerSecond:           cfg.RateLimit.PerSecond,
		RateBurst:               cfg.RateLimit.Burst,
	}, c.Tokens, logger.Named("gateway"), c.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}
	c.Gateway = gw

	c.Events = newEventPublisher(cfg.Events, logger)
	if rmq, ok := c.Events.(*eventbus.RabbitMQPublisher); ok {
		c.Health.Register("events", observability.PingHealthChecker("events", observability.HealthStatusDegraded, rmq.Ping))
	}

	c.Ledger = billingApp.NewLedger(c.Records, logger.Named("ledger"), c.Metrics).WithPublisher(c.Events)
	c.Downloads = jobsApp.NewDownloads(c.Ledger, logger.Named("downloads"))
	c.Payments = paymentapi.NewClient(gw)
	c.Checkout = billingApp.NewCheckout(c.Payments, c.Ledger, logger.Named("checkout"))
	c.Jobs = jobsAPI.NewClient(gw, logger.Named("jobs"))

	c.Health.Register("store", observability.PingHealthChecker("store", observability.HealthStatusUnhealthy, store.Ping))
	c.Health.Register("backend", observability.PingHealthChecker("backend", observability.HealthStatusDegraded, gw.Ping))

	return c, nil
}

// newEventPublisher connects to RabbitMQ when configured. Without a broker,
// or when it cannot be reached, events go to the in-process audit log.
func newEventPublisher(cfg config.EventsConfig, logger *zap.Logger) eventbus.Publisher {
	if cfg.RabbitMQURL != "" {
		pub, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger.Named("events"))
		if err == nil {
			return pub
		}
		logger.Warn("ledger events fall back to in-process delivery", zap.Error(err))
	}

	bus := eventbus.NewInProcessBus(logger.Named("events"))
	bus.Subscribe(eventbus.AllEvents, billingEvents.NewAuditHandler(logger.Named("audit")))
	return bus
}

// Close cleans up all resources.
func (c *Container) Close() error {
	if c.Events != nil {
		if err := c.Events.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", zap.Error(err))
		}
	}
	if c.Store == nil {
		return nil
	}
	if err := c.Store.Close(); err != nil {
		c.Logger.Warn("error closing store", zap.Error(err))
		return err
	}
	c.Logger.Debug("store closed")
	return nil
}
