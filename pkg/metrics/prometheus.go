// Package metrics provides Prometheus metrics for the synaptic simulation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default histogram buckets.
var (
	// DefaultTickBuckets covers tick latencies in milliseconds, well below
	// one 60Hz frame.
	DefaultTickBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 25} //nolint:gochecknoglobals // read-only defaults
	// DefaultLatencyBuckets covers HTTP and recorder latencies in milliseconds.
	DefaultLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500} //nolint:gochecknoglobals // read-only defaults
)

// Manager manages all Prometheus metrics for the simulation service.
type Manager struct {
	namespace      string
	subsystem      string
	metricPrefix   string
	tickBuckets    []float64
	latencyBuckets []float64
	constLabels    prometheus.Labels
	registry       prometheus.Registerer

	// Loop metrics
	ticksTotal  prometheus.Counter
	tickLatency prometheus.Histogram
	tickDelta   prometheus.Histogram

	// Model gauges
	focusLevel         prometheus.Gauge
	growthFactor       prometheus.Gauge
	connectionStrength prometheus.Gauge
	neurogenesisRate   prometheus.Gauge
	stressFactor       prometheus.Gauge
	feedState          *prometheus.GaugeVec
	feedSamples        prometheus.Counter
	feedConnects       *prometheus.CounterVec

	// Combat metrics
	population         prometheus.Gauge
	spawnsTotal        prometheus.Counter
	killsTotal         prometheus.Counter
	damageOutcomes     *prometheus.CounterVec
	abilityActivations *prometheus.CounterVec
	abilityHits        *prometheus.HistogramVec
	achievementsTotal  *prometheus.CounterVec
	sessionScore       prometheus.Gauge

	// Queue metrics
	queueSize          *prometheus.GaugeVec
	queueCapacity      *prometheus.GaugeVec
	queueEnqueued      *prometheus.CounterVec
	queueDequeued      *prometheus.CounterVec
	queueEnqueueErrors *prometheus.CounterVec

	// Recorder metrics
	recorderWrites  prometheus.Counter
	recorderErrors  prometheus.Counter
	recorderLatency prometheus.Histogram
	storedReports   prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "synaptic",
		subsystem:      "sim",
		tickBuckets:    DefaultTickBuckets,
		latencyBuckets: DefaultLatencyBuckets,
		constLabels:    prometheus.Labels{},
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := m.constLabels

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	counterVec := func(name, help string, l ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, l)
	}
	gaugeVec := func(name, help string, l ...string) *prometheus.GaugeVec {
		return auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, l)
	}

	// Loop
	m.ticksTotal = counter("ticks_total", "Total number of simulation ticks executed")
	m.tickLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("tick_latency_milliseconds"),
		Help:        "Wall-clock time spent inside one simulation tick",
		Buckets:     m.tickBuckets,
		ConstLabels: labels,
	})
	m.tickDelta = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("tick_delta_seconds"),
		Help:        "Simulated delta time passed to each tick",
		Buckets:     []float64{0.005, 0.01, 0.016, 0.033, 0.05, 0.1, 0.25, 0.5, 1},
		ConstLabels: labels,
	})

	// Model
	m.focusLevel = gauge("focus_level", "Current focus level reported by the biosignal feed")
	m.growthFactor = gauge("growth_factor", "Current plasticity growth factor")
	m.connectionStrength = gauge("connection_strength", "Current plasticity connection strength")
	m.neurogenesisRate = gauge("neurogenesis_rate", "Neurogenesis rate currently in effect")
	m.stressFactor = gauge("stress_factor", "Last stress factor applied to the plasticity model")
	m.feedState = gaugeVec("feed_state", "Biosignal feed state (1 for the current state)", "state")
	m.feedSamples = counter("feed_samples_total", "Total biosignal samples generated")
	m.feedConnects = counterVec("feed_connects_total", "Biosignal connect attempts by result", "result")

	// Combat
	m.population = gauge("adversary_population", "Live adversary count")
	m.spawnsTotal = counter("adversary_spawns_total", "Total adversaries spawned")
	m.killsTotal = counter("adversary_kills_total", "Total adversaries destroyed")
	m.damageOutcomes = counterVec("damage_outcomes_total", "Damage applications by outcome", "outcome")
	m.abilityActivations = counterVec("ability_activations_total", "Ability activation attempts by ability and result", "ability", "result")
	m.abilityHits = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("ability_targets_affected"),
		Help:        "Number of targets affected per activation",
		Buckets:     []float64{0, 1, 2, 3, 4, 6, 8},
		ConstLabels: labels,
	}, []string{"ability"})
	m.achievementsTotal = counterVec("achievements_total", "Achievements unlocked", "achievement")
	m.sessionScore = gauge("session_score", "Cumulative session score")

	// Queues
	m.queueSize = gaugeVec("queue_size", "Current queue length", "queue")
	m.queueCapacity = gaugeVec("queue_capacity", "Configured queue capacity", "queue")
	m.queueEnqueued = counterVec("queue_enqueued_total", "Items enqueued", "queue")
	m.queueDequeued = counterVec("queue_dequeued_total", "Items dequeued", "queue")
	m.queueEnqueueErrors = counterVec("queue_enqueue_errors_total", "Rejected enqueue attempts by reason", "queue", "reason")

	// Recorder
	m.recorderWrites = counter("recorder_writes_total", "Reports persisted by the recorder worker")
	m.recorderErrors = counter("recorder_errors_total", "Failed report writes")
	m.storedReports = gauge("stored_reports", "Reports held by the session store")
	m.recorderLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("recorder_latency_milliseconds"),
		Help:        "Report persistence latency",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	})

	// HTTP
	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	// Errors
	m.errorRateByComponent = counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")

	// System
	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// Loop Metrics Functions.

// RecordTick records one executed tick with its simulated delta and wall latency.
func RecordTick(dtSeconds, latencyMs float64) {
	globalManager.ticksTotal.Inc()
	globalManager.tickDelta.Observe(dtSeconds)
	globalManager.tickLatency.Observe(latencyMs)
}

// Model Metrics Functions.

// UpdatePlasticity sets the plasticity gauges.
func UpdatePlasticity(growth, strength, neurogenesisRate float64) {
	globalManager.growthFactor.Set(growth)
	globalManager.connectionStrength.Set(strength)
	globalManager.neurogenesisRate.Set(neurogenesisRate)
}

// UpdateFocusLevel sets the focus gauge.
func UpdateFocusLevel(focus float64) {
	globalManager.focusLevel.Set(focus)
}

// UpdateStressFactor sets the last applied stress factor.
func UpdateStressFactor(stress float64) {
	globalManager.stressFactor.Set(stress)
}

// UpdateFeedState marks state as the current feed state and clears the others.
func UpdateFeedState(state string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		globalManager.feedState.WithLabelValues(s).Set(v)
	}
}

// RecordFeedSample increments the generated sample counter.
func RecordFeedSample() {
	globalManager.feedSamples.Inc()
}

// RecordFeedConnect records the result of a connect attempt (ok, failed, abandoned).
func RecordFeedConnect(result string) {
	globalManager.feedConnects.WithLabelValues(result).Inc()
}

// Combat Metrics Functions.

// UpdatePopulation sets the live adversary gauge.
func UpdatePopulation(count int) {
	globalManager.population.Set(float64(count))
}

// RecordSpawn increments the spawn counter.
func RecordSpawn() {
	globalManager.spawnsTotal.Inc()
}

// RecordKill increments the kill counter.
func RecordKill() {
	globalManager.killsTotal.Inc()
}

// RecordDamageOutcome counts a damage application by outcome.
func RecordDamageOutcome(outcome string) {
	globalManager.damageOutcomes.WithLabelValues(outcome).Inc()
}

// RecordAbilityActivation counts an activation attempt by result (activated, not_ready, unknown).
func RecordAbilityActivation(ability, result string) {
	globalManager.abilityActivations.WithLabelValues(ability, result).Inc()
}

// RecordAbilityHits observes how many targets one activation affected.
func RecordAbilityHits(ability string, affected int) {
	globalManager.abilityHits.WithLabelValues(ability).Observe(float64(affected))
}

// RecordAchievement counts an unlocked achievement.
func RecordAchievement(title string) {
	globalManager.achievementsTotal.WithLabelValues(title).Inc()
}

// UpdateSessionScore sets the cumulative score gauge.
func UpdateSessionScore(score int) {
	globalManager.sessionScore.Set(float64(score))
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current size of the named queue.
func UpdateQueueSize(queue string, size int) {
	globalManager.queueSize.WithLabelValues(queue).Set(float64(size))
}

// UpdateQueueCapacity sets the capacity of the named queue.
func UpdateQueueCapacity(queue string, capacity int) {
	globalManager.queueCapacity.WithLabelValues(queue).Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue(queue string) {
	globalManager.queueEnqueued.WithLabelValues(queue).Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue(queue string) {
	globalManager.queueDequeued.WithLabelValues(queue).Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(queue, reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(queue, reason).Inc()
}

// Recorder Metrics Functions.

// RecordRecorderWrite records a persisted report and its latency.
func RecordRecorderWrite(latencyMs float64) {
	globalManager.recorderWrites.Inc()
	globalManager.recorderLatency.Observe(latencyMs)
}

// RecordRecorderError counts a failed report write.
func RecordRecorderError() {
	globalManager.recorderErrors.Inc()
}

// UpdateStoredReports sets the number of persisted reports.
func UpdateStoredReports(n int) {
	globalManager.storedReports.Set(float64(n))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
