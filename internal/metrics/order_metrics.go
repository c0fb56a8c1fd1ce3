package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики движка заказов.
type OrderMetrics struct {
	// Счётчики операций
	ordersPlaced     prometheus.Counter
	ordersCancelled  prometheus.Counter
	placementsFailed *prometheus.CounterVec
	transitions      *prometheus.CounterVec

	// Отказы восстановления стока при отмене (пропущенные позиции)
	stockRestoreFailures prometheus.Counter

	// Гистограмма времени оформления заказа
	placementDuration prometheus.Histogram

	// Счётчики событий timeline/outbox
	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter

	// Gauge для оформлений в полёте
	activePlacements prometheus.Gauge
}

// NewOrderMetrics создаёт новый экземпляр метрик движка заказов.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "marketplace_orders_placed_total",
			Help: "Total number of orders successfully placed",
		}),
		ordersCancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "marketplace_orders_cancelled_total",
			Help: "Total number of orders cancelled",
		}),
		placementsFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "marketplace_order_placements_failed_total",
			Help: "Total number of rejected order placements grouped by reason",
		}, []string{"reason"}),
		transitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "marketplace_order_status_transitions_total",
			Help: "Total number of successful order status transitions grouped by target status",
		}, []string{"target"}),
		stockRestoreFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "marketplace_stock_restore_failures_total",
			Help: "Total number of order items whose stock restoration was skipped during cancellation",
		}),
		placementDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "marketplace_order_placement_duration_seconds",
			Help:    "Duration of order placement in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "marketplace_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "marketplace_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
		activePlacements: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "marketplace_active_placements",
			Help: "Number of order placements currently in flight",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderPlaced увеличивает счётчик успешно оформленных заказов.
func (m *OrderMetrics) RecordOrderPlaced() {
	m.ordersPlaced.Inc()
}

// RecordOrderCancelled увеличивает счётчик отменённых заказов.
func (m *OrderMetrics) RecordOrderCancelled() {
	m.ordersCancelled.Inc()
}

// RecordPlacementFailed увеличивает счётчик отклонённых оформлений по причине.
func (m *OrderMetrics) RecordPlacementFailed(reason string) {
	m.placementsFailed.WithLabelValues(reason).Inc()
}

// RecordTransition увеличивает счётчик переходов статуса.
func (m *OrderMetrics) RecordTransition(target string) {
	m.transitions.WithLabelValues(target).Inc()
}

// RecordStockRestoreFailure увеличивает счётчик пропущенных восстановлений стока.
func (m *OrderMetrics) RecordStockRestoreFailure() {
	m.stockRestoreFailures.Inc()
}

// RecordPlacementDuration записывает время оформления заказа.
func (m *OrderMetrics) RecordPlacementDuration(duration time.Duration) {
	m.placementDuration.Observe(duration.Seconds())
}

// RecordPlacementStarted увеличивает количество оформлений в полёте.
func (m *OrderMetrics) RecordPlacementStarted() {
	m.activePlacements.Inc()
}

// RecordPlacementFinished уменьшает количество оформлений в полёте.
func (m *OrderMetrics) RecordPlacementFinished() {
	m.activePlacements.Dec()
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *OrderMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *OrderMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
