package family

import (
	"context"
	"time"
)

// Notifier is the fire-and-forget, user-visible message sink.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notice) {}

type Metrics interface {
	MatchDetected(rule MatchRule)
	TransferCompleted(sourceDeactivated bool)
	MemberReactivated(pulledFromOther bool)
	ResponsibilityReassigned()
	ObserveStoreWrite(start time.Time)
}

type noopMetrics struct{}

func (noopMetrics) MatchDetected(MatchRule) {}

func (noopMetrics) TransferCompleted(bool) {}

func (noopMetrics) MemberReactivated(bool) {}

func (noopMetrics) ResponsibilityReassigned() {}

func (noopMetrics) ObserveStoreWrite(time.Time) {}
