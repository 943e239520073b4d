package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "regula"

// Metrics holds all engine metric instruments.
type Metrics struct {
	EvaluationsRun     metric.Int64Counter
	EvaluationsBlocked metric.Int64Counter
	RulesEvaluated     metric.Int64Counter
	ExtractionsRun     metric.Int64Counter
	ExtractionsFailed  metric.Int64Counter
	EvaluationDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.EvaluationsRun, err = meter.Int64Counter("regula.evaluations.run",
		metric.WithDescription("Number of evaluation passes run"))
	if err != nil {
		return nil, err
	}

	m.EvaluationsBlocked, err = meter.Int64Counter("regula.evaluations.blocked",
		metric.WithDescription("Number of evaluation passes that blocked generation"))
	if err != nil {
		return nil, err
	}

	m.RulesEvaluated, err = meter.Int64Counter("regula.rules.evaluated",
		metric.WithDescription("Number of rules evaluated"))
	if err != nil {
		return nil, err
	}

	m.ExtractionsRun, err = meter.Int64Counter("regula.extractions.run",
		metric.WithDescription("Number of extraction jobs run"))
	if err != nil {
		return nil, err
	}

	m.ExtractionsFailed, err = meter.Int64Counter("regula.extractions.failed",
		metric.WithDescription("Number of extraction jobs failed"))
	if err != nil {
		return nil, err
	}

	m.EvaluationDuration, err = meter.Float64Histogram("regula.evaluation.duration_seconds",
		metric.WithDescription("Evaluation pass duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
