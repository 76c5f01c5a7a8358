package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the tone engine.
type Metrics struct {
	// Waveform cache metrics
	WaveformCacheHits   prometheus.Counter
	WaveformCacheMisses prometheus.Counter
	WaveformCacheSize   prometheus.Gauge

	// Cadence registry metrics
	CadenceLookupHits   prometheus.Counter
	CadenceLookupMisses prometheus.Counter
	CadenceReloads      prometheus.Counter

	// Tone source metrics
	ActiveSources     prometheus.Gauge
	SourcesStarted    prometheus.Counter
	SourcesStopped    prometheus.Counter
	SourcePacingDrift prometheus.Histogram

	// Tone consumer / detector metrics
	ActiveConsumers       prometheus.Gauge
	DTMFDigitsDetected    *prometheus.CounterVec
	FaxEventsDetected     prometheus.Counter
	ContinuityDetected    prometheus.Counter
	DNISCompletions       prometheus.Counter
	FilterOvershootResets prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		WaveformCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toneengine_waveform_cache_hits_total",
			Help: "Total number of waveform cache lookups served from the interned cache",
		}),
		WaveformCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toneengine_waveform_cache_misses_total",
			Help: "Total number of waveform cache lookups that required synthesis",
		}),
		WaveformCacheSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "toneengine_waveform_cache_size",
			Help: "Current number of distinct waveforms interned in the cache",
		}),

		CadenceLookupHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toneengine_cadence_lookup_hits_total",
			Help: "Total number of cadence registry lookups that resolved",
		}),
		CadenceLookupMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toneengine_cadence_lookup_misses_total",
			Help: "Total number of cadence registry lookups that did not resolve",
		}),
		CadenceReloads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toneengine_cadence_reloads_total",
			Help: "Total number of cadence registrations that replaced an existing entry",
		}),

		ActiveSources: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "toneengine_active_sources",
			Help: "Current number of running tone sources",
		}),
		SourcesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toneengine_sources_started_total",
			Help: "Total number of tone sources started",
		}),
		SourcesStopped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toneengine_sources_stopped_total",
			Help: "Total number of tone sources stopped or exhausted",
		}),
		SourcePacingDrift: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "toneengine_source_pacing_drift_seconds",
			Help:    "Observed drift between a source's wall-clock deadline and actual frame emission time",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 10), // 0.1ms to 51.2ms
		}),

		ActiveConsumers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "toneengine_active_consumers",
			Help: "Current number of tone consumers analyzing a stream",
		}),
		DTMFDigitsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "toneengine_dtmf_digits_detected_total",
			Help: "Total number of DTMF digit detection events, by digit",
		}, []string{"digit"}),
		FaxEventsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toneengine_fax_events_detected_total",
			Help: "Total number of fax CNG/CED detection events",
		}),
		ContinuityDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toneengine_continuity_detected_total",
			Help: "Total number of continuity-test tone detection events",
		}),
		DNISCompletions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toneengine_dnis_completions_total",
			Help: "Total number of completed DNIS (*caller*called*) sequences",
		}),
		FilterOvershootResets: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toneengine_filter_overshoot_resets_total",
			Help: "Total number of filter-bank resets triggered by power overshoot",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "toneengine_http_requests_total",
			Help: "Total number of admin HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "toneengine_http_request_duration_seconds",
			Help:    "Duration of admin HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "toneengine_http_errors_total",
			Help: "Total number of admin HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordWaveformCacheHit increments the waveform cache hit counter.
func (m *Metrics) RecordWaveformCacheHit() { m.WaveformCacheHits.Inc() }

// RecordWaveformCacheMiss increments the waveform cache miss counter
// and sets the current cache size.
func (m *Metrics) RecordWaveformCacheMiss(size int) {
	m.WaveformCacheMisses.Inc()
	m.WaveformCacheSize.Set(float64(size))
}

// RecordCadenceLookup records a registry lookup outcome.
func (m *Metrics) RecordCadenceLookup(hit bool) {
	if hit {
		m.CadenceLookupHits.Inc()
	} else {
		m.CadenceLookupMisses.Inc()
	}
}

// RecordCadenceReload increments the counter of registrations that
// replaced an existing cadence entry.
func (m *Metrics) RecordCadenceReload() { m.CadenceReloads.Inc() }

// RecordSourceStarted increments the started counter and active gauge.
func (m *Metrics) RecordSourceStarted() {
	m.SourcesStarted.Inc()
	m.ActiveSources.Inc()
}

// RecordSourceStopped increments the stopped counter and decrements
// the active gauge.
func (m *Metrics) RecordSourceStopped() {
	m.SourcesStopped.Inc()
	m.ActiveSources.Dec()
}

// RecordPacingDrift observes a source's pacing drift in seconds.
func (m *Metrics) RecordPacingDrift(seconds float64) {
	m.SourcePacingDrift.Observe(seconds)
}

// SetActiveConsumers sets the current number of active consumers.
func (m *Metrics) SetActiveConsumers(count int) {
	m.ActiveConsumers.Set(float64(count))
}

// RecordDTMFDigit increments the per-digit DTMF counter.
func (m *Metrics) RecordDTMFDigit(digit string) {
	m.DTMFDigitsDetected.WithLabelValues(digit).Inc()
}

// RecordFaxEvent increments the fax detection counter.
func (m *Metrics) RecordFaxEvent() { m.FaxEventsDetected.Inc() }

// RecordContinuityEvent increments the continuity detection counter.
func (m *Metrics) RecordContinuityEvent() { m.ContinuityDetected.Inc() }

// RecordDNISCompletion increments the DNIS completion counter.
func (m *Metrics) RecordDNISCompletion() { m.DNISCompletions.Inc() }

// RecordFilterOvershootReset increments the overshoot reset counter.
func (m *Metrics) RecordFilterOvershootReset() { m.FilterOvershootResets.Inc() }

// RecordHTTPRequest records an admin HTTP request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an admin HTTP error.
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
