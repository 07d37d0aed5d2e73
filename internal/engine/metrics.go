package engine

import (
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/inkforge/redraft/internal/telemetry"
)

// engineMetrics holds lazily-initialized OTel instruments for the
// convergence loop. No-op unless telemetry is enabled.
var engineMetrics struct {
	cycles             metric.Int64Counter
	corrections        metric.Int64Counter
	correctionsFailed  metric.Int64Counter
	issuesFiltered     metric.Int64Counter
	issuesEscalated    metric.Int64Counter
	structuralResolved metric.Int64Counter
	rollbacks          metric.Int64Counter
}

var engineMetricsOnce sync.Once

func initEngineMetrics() {
	m := telemetry.Meter("github.com/inkforge/redraft/engine")
	engineMetrics.cycles, _ = m.Int64Counter("rd.engine.cycles",
		metric.WithDescription("Review cycles run"))
	engineMetrics.corrections, _ = m.Int64Counter("rd.engine.corrections",
		metric.WithDescription("Unit correction attempts"))
	engineMetrics.correctionsFailed, _ = m.Int64Counter("rd.engine.corrections_failed",
		metric.WithDescription("Unit correction attempts that changed nothing"))
	engineMetrics.issuesFiltered, _ = m.Int64Counter("rd.engine.issues_filtered",
		metric.WithDescription("Reviewer issues dropped as already resolved"))
	engineMetrics.issuesEscalated, _ = m.Int64Counter("rd.engine.issues_escalated",
		metric.WithDescription("Issues escalated after persistent recurrence"))
	engineMetrics.structuralResolved, _ = m.Int64Counter("rd.engine.structural_auto_resolved",
		metric.WithDescription("Structural issues force-resolved after exhausted attempts"))
	engineMetrics.rollbacks, _ = m.Int64Counter("rd.engine.rollbacks",
		metric.WithDescription("Regression rollbacks performed"))
}
