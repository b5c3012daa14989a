// Package notify delivers compliance notices produced by the timesheet service.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"fleet_tracker/internal/wtd"
)

// LogSink writes notices to the log.
type LogSink struct{}

func (LogSink) Notify(_ context.Context, n wtd.Notice) {
	entry := logrus.WithFields(logrus.Fields{
		"driver_id":  n.DriverID,
		"kind":       n.Kind,
		"warnings":   n.Warnings,
		"violations": n.CriticalViolations,
	})
	if len(n.CriticalViolations) > 0 {
		entry.Warn("Compliance violations recorded")
		return
	}
	entry.Info("Compliance warnings recorded")
}

// Fanout delivers every notice to each sink in turn.
type Fanout []wtd.NotificationSink

func (f Fanout) Notify(ctx context.Context, n wtd.Notice) {
	for _, s := range f {
		s.Notify(ctx, n)
	}
}
