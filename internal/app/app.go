package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/marketplace/internal/health"
	"github.com/vladislavdragonenkov/marketplace/internal/messaging/kafka"
	idempotencysvc "github.com/vladislavdragonenkov/marketplace/internal/service/idempotency"
	"github.com/vladislavdragonenkov/marketplace/internal/service/orders"
	outboxsvc "github.com/vladislavdragonenkov/marketplace/internal/service/outbox"
	httptransport "github.com/vladislavdragonenkov/marketplace/internal/transport/http"
	"github.com/vladislavdragonenkov/marketplace/internal/version"
)

// Run собирает приложение и блокируется до отмены контекста или фатальной
// ошибки HTTP-сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Kafka опционален: без брокеров события копятся в outbox,
	// воркер публикации не запускается.
	producer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(producer, logger)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	if producer != nil {
		publisher := kafka.NewOutboxPublisher(producer, kafka.TopicOrderEvents)
		dlq := kafka.NewDLQPublisher(producer, kafka.TopicDeadLetterQueue, kafka.TopicOrderEvents)
		worker := outboxsvc.NewWorker(deps.Outbox, publisher,
			outboxsvc.WithLogger(logger.WithField("component", "outbox-worker")),
			outboxsvc.WithDLQPublisher(dlq),
			outboxsvc.WithPollInterval(cfg.OutboxPollInterval),
		)
		go worker.Run(workerCtx)
	}

	cleanup := idempotencysvc.NewCleanupWorker(deps.Idempotency,
		idempotencysvc.WithLogger(logger.WithField("component", "idempotency-cleanup")),
		idempotencysvc.WithInterval(cfg.IdempotencyCleanupInterval),
	)
	go cleanup.Run(workerCtx)

	orderService := orders.NewService(deps.Orders, deps.Catalog, deps.Shops, deps.Cart,
		deps.Outbox, deps.Timeline, logger.WithField("layer", "orders"))
	handler := httptransport.NewHandler(orderService, deps.Idempotency, logger.WithField("layer", "http"))
	router := httptransport.NewRouter(handler, logger.WithField("layer", "http"))

	v, _, _ := version.Info()
	healthHandler := healthcheck.NewHandler(v)
	if producer != nil {
		healthHandler.RegisterChecker("kafka", healthcheck.NewSimpleChecker("kafka", func() error {
			return producer.Healthy()
		}))
	}
	if deps.Store != nil {
		store := deps.Store
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(pingCtx)
		}))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		stopWorkers()
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		stopWorkers()
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает служебный HTTP-сервер: /metrics для
// Prometheus и health-пробы.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
