// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ClockEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleet",
		Name:      "clock_events_total",
		Help:      "Accepted clock actions by action.",
	}, []string{"action"})

	RejectedTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleet",
		Name:      "rejected_transitions_total",
		Help:      "Clock actions rejected by the session state machine, by action.",
	}, []string{"action"})

	ComplianceViolations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fleet",
		Name:      "compliance_violations_total",
		Help:      "Critical violations found when drivers clock out.",
	})

	WeeklyRestRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleet",
		Name:      "weekly_rest_records_total",
		Help:      "Weekly rest records written, by rest type.",
	}, []string{"rest_type"})

	NoticeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fleet",
		Name:      "notice_clients",
		Help:      "Connected notice websocket clients.",
	})
)

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
