package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	domain "github.com/fluxcart/api/internal/domain"
	"github.com/fluxcart/api/internal/domain/order"
	"github.com/fluxcart/api/internal/events"
	"github.com/fluxcart/api/internal/gateway"
	"github.com/fluxcart/api/internal/handlers"
	"github.com/fluxcart/api/internal/integration"
	"github.com/fluxcart/api/internal/platform/config"
	"github.com/fluxcart/api/internal/platform/idempotency"
	pmongo "github.com/fluxcart/api/internal/platform/mongo"
	"github.com/fluxcart/api/internal/platform/observability"
	mongoRepo "github.com/fluxcart/api/internal/repositories/mongo"
	"github.com/fluxcart/api/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	mongoProvider := pmongo.NewProvider(cfg.Mongo)
	db, err := mongoProvider.Database(ctx)
	if err != nil {
		logger.Fatal("failed to initialise mongo client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoProvider.Close(closeCtx); err != nil {
			logger.Warn("mongo close error", zap.Error(err))
		}
	}()

	if err := mongoRepo.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal("failed to ensure indexes", zap.Error(err))
	}

	orderRepo, err := mongoRepo.NewOrderRepository(db)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}
	paymentRepo, err := mongoRepo.NewPaymentRepository(db)
	if err != nil {
		logger.Fatal("failed to initialise payment repository", zap.Error(err))
	}

	bus := events.NewBus(events.WithBusLogger(observability.EventLogger(logger.Named("events"))))

	uow, err := services.NewUnitOfWork(services.UnitOfWorkDeps{
		Publisher: bus,
		Logger:    observability.EventLogger(logger.Named("uow")),
	})
	if err != nil {
		logger.Fatal("failed to initialise unit of work", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:     orderRepo,
		UnitOfWork: uow,
		Policy: order.Policy{
			MinimumTotal: cfg.Orders.MinimumTotal,
			MaxItems:     cfg.Orders.MaxItems,
		},
		OverdueAfter: cfg.Orders.OverdueAfter,
		Logger:       observability.EventLogger(logger.Named("orders")),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	provider, err := buildGateway(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise payment gateway", zap.Error(err))
	}

	highValue, err := domain.NewMoney(cfg.Payments.HighValueThreshold, "USD")
	if err != nil {
		logger.Fatal("invalid high-value threshold", zap.Error(err))
	}

	paymentService, err := services.NewPaymentService(services.PaymentServiceDeps{
		Payments:           paymentRepo,
		UnitOfWork:         uow,
		Gateway:            provider,
		HighValueThreshold: highValue,
		Logger:             observability.EventLogger(logger.Named("payments")),
	})
	if err != nil {
		logger.Fatal("failed to initialise payment service", zap.Error(err))
	}

	relay, err := integration.NewRelay(integration.RelayDeps{
		Publisher: bus,
		Logger:    observability.EventLogger(logger.Named("integration")),
	})
	if err != nil {
		logger.Fatal("failed to initialise integration relay", zap.Error(err))
	}
	relay.Register(bus)

	saga, err := integration.NewPaymentSaga(integration.PaymentSagaDeps{
		Orders:      orderService,
		Payments:    paymentService,
		Idempotency: idempotency.NewMemoryStore(),
		Instrument: integration.InstrumentConfig{
			Method:        cfg.Saga.PaymentMethod,
			CardLast4:     cfg.Saga.CardLast4,
			CardType:      cfg.Saga.CardType,
			CardHolder:    cfg.Saga.CardHolder,
			CardLifeYears: cfg.Saga.CardLifeYears,
		},
		ChargeOnSubmit: cfg.Saga.ChargeOnSubmit,
		IdempotencyTTL: cfg.Saga.IdempotencyTTL,
		Logger:         observability.EventLogger(logger.Named("saga")),
	})
	if err != nil {
		logger.Fatal("failed to initialise payment saga", zap.Error(err))
	}
	saga.Register(bus)

	router := handlers.NewRouter(
		handlers.WithHealth(handlers.NewHealthHandlers(mongoProvider.Ping)),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(orderService).Routes),
		handlers.WithPaymentRoutes(handlers.NewPaymentHandlers(paymentService).Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("fluxcart api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildGateway(cfg config.Config, logger *zap.Logger) (gateway.Provider, error) {
	gatewayLogger := observability.EventLogger(logger.Named("gateway"))
	switch cfg.Gateway.Kind {
	case "stripe":
		return gateway.NewStripeProvider(gateway.StripeProviderConfig{
			APIKey: cfg.Gateway.StripeAPIKey,
			Logger: gatewayLogger,
		})
	default:
		return gateway.NewSimulatedProvider(gateway.WithSimulatedLogger(gatewayLogger)), nil
	}
}
