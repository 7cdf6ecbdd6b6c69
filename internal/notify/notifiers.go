package notify

import (
	"context"

	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/pkg/logger"
)

// LogNotifier writes every notice to the application log.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, notice familydomain.Notice) {
	args := []any{"notice_level", string(notice.Level), "notice", notice.Message}
	if tech, ok := familydomain.TechnicianFromContext(ctx); ok {
		args = append(args, "technician_id", tech.ID, "cras", tech.CrasID)
	}
	if notice.Level == familydomain.NoticeError {
		n.log.Warn("notify: notice", args...)
		return
	}
	n.log.Info("notify: notice", args...)
}

type multi []familydomain.Notifier

// Multi delivers each notice to every non-nil notifier in order.
func Multi(notifiers ...familydomain.Notifier) familydomain.Notifier {
	result := make(multi, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			result = append(result, n)
		}
	}
	return result
}

func (m multi) Notify(ctx context.Context, notice familydomain.Notice) {
	for _, n := range m {
		n.Notify(ctx, notice)
	}
}
