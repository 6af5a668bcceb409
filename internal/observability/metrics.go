package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	assessmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plan_reasoning",
		Subsystem: "engine",
		Name:      "assessments_total",
		Help:      "Assessments evaluated, labelled by resulting risk level.",
	}, []string{"risk_level"})
	tierConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "plan_reasoning",
		Subsystem: "engine",
		Name:      "tier_conflicts_total",
		Help:      "Same-tier rule contradictions settled by table order (table-authoring defects).",
	})
	ruleTableLoadedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "plan_reasoning",
		Subsystem: "engine",
		Name:      "rule_table_loaded_timestamp_seconds",
		Help:      "Unix timestamp of the most recent rule-table load.",
	})
	cacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plan_reasoning",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Result cache lookups, labelled by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(assessmentsTotal, tierConflictsTotal, ruleTableLoadedGauge, cacheHitsTotal)
}

// RecordAssessment counts one completed evaluation.
func RecordAssessment(riskLevel string) {
	assessmentsTotal.WithLabelValues(riskLevel).Inc()
}

// RecordTierConflicts counts same-tier contradiction warnings from a run.
func RecordTierConflicts(count int) {
	if count <= 0 {
		return
	}
	tierConflictsTotal.Add(float64(count))
}

// RecordRuleTableLoaded updates the rule-table load watermark.
func RecordRuleTableLoaded(ts time.Time) {
	if ts.IsZero() {
		return
	}
	ruleTableLoadedGauge.Set(float64(ts.Unix()))
}

// RecordCacheLookup counts a result-cache lookup outcome ("hit", "miss", "error").
func RecordCacheLookup(outcome string) {
	cacheHitsTotal.WithLabelValues(outcome).Inc()
}
