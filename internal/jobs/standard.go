package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/dto"
	"github.com/cpg716/SuitSync-sub003/internal/logging"
	"github.com/cpg716/SuitSync-sub003/internal/usecase/notification"
)

const (
	ProcessNotifications     = "process-notifications"
	CleanupNotifications     = "cleanup-notifications"
	CheckOverdueAppointments = "check-overdue-appointments"
)

type NotificationWork interface {
	ProcessPendingNotifications(ctx context.Context) (notification.SweepReport, error)
	CleanupSentNotifications(ctx context.Context, retention time.Duration) (int64, error)
}

type OverdueCheck interface {
	Execute(ctx context.Context) ([]dto.AppointmentListDTO, error)
}

// StandardJobs is the fixed set the API process runs.
func StandardJobs(n NotificationWork, overdue OverdueCheck, retention time.Duration) []Job {
	return []Job{
		{
			Name:        ProcessNotifications,
			Description: "Deliver due appointment reminders and pickup notices",
			Interval:    5 * time.Minute,
			RunOnStart:  true,
			Handler: func(ctx context.Context) error {
				_, err := n.ProcessPendingNotifications(ctx)
				if errors.Is(err, notification.ErrSweepInProgress) {
					logging.Service(ctx, nil, "jobs", ProcessNotifications).
						Info("previous sweep still delivering, skipping this tick")
					return nil
				}
				return err
			},
		},
		{
			Name:        CleanupNotifications,
			Description: "Purge sent notifications past the retention window",
			Interval:    24 * time.Hour,
			Handler: func(ctx context.Context) error {
				_, err := n.CleanupSentNotifications(ctx, retention)
				return err
			},
		},
		{
			Name:        CheckOverdueAppointments,
			Description: "Flag open appointments that ended more than a day ago",
			Interval:    24 * time.Hour,
			Handler: func(ctx context.Context) error {
				found, err := overdue.Execute(ctx)
				if err != nil {
					return err
				}
				if len(found) > 0 {
					logging.Service(ctx, nil, "jobs", CheckOverdueAppointments).
						Info("overdue appointments need attention", "count", len(found))
				}
				return nil
			},
		},
	}
}
