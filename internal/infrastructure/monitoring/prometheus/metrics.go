package prometheus

import (
	"strconv"
	"time"
)

// Operation label values.
const (
	OpCommission   = "commission"
	OpPipelineFees = "pipeline_fees"
	OpConvert      = "convert"
	OpScore        = "score"
	OpClassify     = "classify"
	OpRequired     = "required"
	OpHealth       = "health"
	OpCalibrate    = "calibrate"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Default buckets.
var (
	DefaultHTTPDurationBuckets   = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	DefaultEngineDurationBuckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1}
)

// EngineMetrics holds every metric family the engine records.
type EngineMetrics struct {
	CalculationsTotal         CounterVec
	CalculationDuration       HistogramVec
	VerificationMismatches    CounterVec
	PipelineGrossFees         GaugeVec
	PipelineWeightedFees      GaugeVec
	PipelineFailures          GaugeVec
	CalibrationsTotal         CounterVec
	ReferenceDataReloadsTotal CounterVec
	HTTPRequestsTotal         CounterVec
	HTTPRequestDuration       HistogramVec
}

// NewEngineMetrics registers all metric families on collector.
func NewEngineMetrics(collector MetricsCollector) *EngineMetrics {
	return &EngineMetrics{
		CalculationsTotal:         collector.RegisterCounter("calculations_total", "Engine calculations by operation and status", "operation", "status"),
		CalculationDuration:       collector.RegisterHistogram("calculation_duration_seconds", "Engine calculation duration", DefaultEngineDurationBuckets, "operation"),
		VerificationMismatches:    collector.RegisterCounter("verification_mismatches_total", "Commission results whose tier sum disagreed with the gross fee", "structure_id"),
		PipelineGrossFees:         collector.RegisterGauge("pipeline_gross_fees_musd", "Unweighted forecast gross fees of the last pipeline run, USD millions"),
		PipelineWeightedFees:      collector.RegisterGauge("pipeline_weighted_fees_musd", "Probability-weighted forecast fees of the last pipeline run, USD millions"),
		PipelineFailures:          collector.RegisterGauge("pipeline_failed_opportunities", "Opportunities skipped in the last pipeline run"),
		CalibrationsTotal:         collector.RegisterCounter("calibrations_total", "Calibration attempts by result", "result"),
		ReferenceDataReloadsTotal: collector.RegisterCounter("reference_data_reloads_total", "Reference data reloads by status", "status"),
		HTTPRequestsTotal:         collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code"),
		HTTPRequestDuration:       collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path"),
	}
}

// RecordCalculation counts one engine operation and observes its duration.
func (m *EngineMetrics) RecordCalculation(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.CalculationsTotal.WithLabelValues(op, status).Inc()
	m.CalculationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordVerificationMismatch counts a commission whose re-sum disagreed.
func (m *EngineMetrics) RecordVerificationMismatch(structureID string) {
	if m == nil {
		return
	}
	m.VerificationMismatches.WithLabelValues(structureID).Inc()
}

// RecordPipelineTotals sets the gauges describing the last pipeline run.
func (m *EngineMetrics) RecordPipelineTotals(gross, weighted float64, failures int) {
	if m == nil {
		return
	}
	m.PipelineGrossFees.WithLabelValues().Set(gross)
	m.PipelineWeightedFees.WithLabelValues().Set(weighted)
	m.PipelineFailures.WithLabelValues().Set(float64(failures))
}

// RecordCalibration counts a calibration attempt; result is "applied" or
// "skipped".
func (m *EngineMetrics) RecordCalibration(result string) {
	if m == nil {
		return
	}
	m.CalibrationsTotal.WithLabelValues(result).Inc()
}

// RecordReload counts a reference data reload.
func (m *EngineMetrics) RecordReload(err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.ReferenceDataReloadsTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records one served request.
func (m *EngineMetrics) RecordHTTPRequest(method, path string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

//Personal.AI order the ending
