// Package notification computes, stores and delivers appointment reminders.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	domain "github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
	notif "github.com/cpg716/SuitSync-sub003/internal/domain/notification"
	"github.com/cpg716/SuitSync-sub003/internal/logging"
	"github.com/cpg716/SuitSync-sub003/internal/models"
	"github.com/cpg716/SuitSync-sub003/internal/notify"
	"github.com/cpg716/SuitSync-sub003/internal/timezone"
)

const (
	DefaultBatchSize   = 50
	DefaultSendTimeout = 30 * time.Second
)

// ErrSweepInProgress is returned when another delivery sweep is still
// running in this process.
var ErrSweepInProgress = errors.New("notification sweep already in progress")

// Archiver receives sent notifications before they are purged.
type Archiver interface {
	Archive(ctx context.Context, rows []models.NotificationSchedule) error
}

type Options struct {
	ShopName    string
	BaseURL     string
	Location    *time.Location
	BatchSize   int
	SendTimeout time.Duration
	Tokens      *ActionTokens
	Archiver    Archiver
	Now         func() time.Time
	Logger      *slog.Logger
}

type Scheduler struct {
	repo      domain.Repository
	store     notif.Repository
	transport notify.Transport

	shopName    string
	baseURL     string
	loc         *time.Location
	batchSize   int
	sendTimeout time.Duration
	tokens      *ActionTokens
	archiver    Archiver
	now         func() time.Time
	logger      *slog.Logger

	// held for the whole of one delivery sweep
	sweeping sync.Mutex
}

func NewScheduler(
	repo domain.Repository,
	store notif.Repository,
	transport notify.Transport,
	opts Options,
) *Scheduler {
	s := &Scheduler{
		repo:        repo,
		store:       store,
		transport:   transport,
		shopName:    opts.ShopName,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		loc:         opts.Location,
		batchSize:   opts.BatchSize,
		sendTimeout: opts.SendTimeout,
		tokens:      opts.Tokens,
		archiver:    opts.Archiver,
		now:         opts.Now,
		logger:      logging.Default(opts.Logger),
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	if s.sendTimeout <= 0 {
		s.sendTimeout = DefaultSendTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.shopName == "" {
		s.shopName = "SuitSync"
	}
	return s
}

// ======================================================
// RECIPIENT
// ======================================================

type recipient struct {
	Name  string
	Email string
	Phone string
}

func (r recipient) empty() bool {
	return r.Email == "" && r.Phone == ""
}

// resolveRecipient prefers the individual customer, then the party contact
// (labelled with the member role), then the member's own customer record.
func resolveRecipient(ap *models.Appointment) recipient {
	if c := ap.IndividualCustomer; c != nil {
		return recipient{Name: c.Name, Email: strings.TrimSpace(c.Email), Phone: strings.TrimSpace(c.Phone)}
	}

	role := ""
	if ap.Member != nil {
		role = ap.Member.Role
	}
	label := func(name string) string {
		if role == "" {
			return name
		}
		return fmt.Sprintf("%s (%s)", name, role)
	}

	if ap.Party != nil && ap.Party.Customer != nil {
		c := ap.Party.Customer
		r := recipient{Name: label(c.Name), Email: strings.TrimSpace(c.Email), Phone: strings.TrimSpace(c.Phone)}
		if !r.empty() {
			return r
		}
	}
	if ap.Member != nil && ap.Member.Customer != nil {
		c := ap.Member.Customer
		return recipient{Name: label(c.Name), Email: strings.TrimSpace(c.Email), Phone: strings.TrimSpace(c.Phone)}
	}
	return recipient{}
}

// ======================================================
// SETTINGS
// ======================================================

func (s *Scheduler) loadSettings(ctx context.Context) (*models.Settings, error) {
	st, err := s.repo.GetSettings(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		st = &models.Settings{}
	} else if err != nil {
		return nil, err
	}
	if strings.TrimSpace(st.ReminderIntervals) == "" {
		st.ReminderIntervals = notif.DefaultReminderIntervals
	}
	if strings.TrimSpace(st.EarlyMorningCutoff) == "" {
		st.EarlyMorningCutoff = notif.DefaultEarlyMorningCutoff
	}
	return st, nil
}

// ParseIntervals reads "24,3" style hour offsets. Blank, invalid, non-finite
// and non-positive entries are skipped; duplicates collapse.
func ParseIntervals(raw string) []float64 {
	seen := make(map[float64]bool)
	out := make([]float64, 0, 3)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.ParseFloat(part, 64)
		if err != nil || math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return out
}

// ======================================================
// SCHEDULE REMINDERS
// ======================================================

// ScheduleAppointmentReminders replaces the appointment's unsent reminders
// with freshly computed ones. Calling it twice yields the same rows.
func (s *Scheduler) ScheduleAppointmentReminders(ctx context.Context, appointmentID uint) error {
	lg := logging.Service(ctx, s.logger, "notification", "schedule_reminders", "appointment_id", appointmentID)

	ap, err := s.repo.GetAppointmentWithOwners(ctx, appointmentID)
	if err != nil {
		return err
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return err
	}

	to := resolveRecipient(ap)
	if to.empty() {
		lg.Warn("no email or phone for appointment, skipping reminders")
		return nil
	}

	rows, err := s.buildReminders(ap, settings, to)
	if err != nil {
		return err
	}

	if err := s.store.ReplaceReminders(ctx, ap.ID, notif.ReminderTypes, rows); err != nil {
		return err
	}

	lg.Info("reminders scheduled", "count", len(rows))
	return nil
}

func (s *Scheduler) buildReminders(ap *models.Appointment, settings *models.Settings, to recipient) ([]models.NotificationSchedule, error) {
	// cancelled, completed and no-show appointments only get their stale reminders removed
	if !domain.IsOpen(domain.Status(ap.Status)) {
		return nil, nil
	}

	cutoff, err := timezone.ParseClock(settings.EarlyMorningCutoff)
	if err != nil {
		cutoff, _ = timezone.ParseClock(notif.DefaultEarlyMorningCutoff)
	}
	earlyMorning := timezone.MinutesOfDay(ap.DateTime, s.loc) <= cutoff

	now := s.now()
	tpl := reminderTemplates(settings)
	vars, err := s.templateVars(ap, to)
	if err != nil {
		return nil, err
	}

	type slot struct {
		family notif.Type
		at     time.Time
	}
	seen := make(map[slot]bool)

	var rows []models.NotificationSchedule
	for _, hours := range ParseIntervals(settings.ReminderIntervals) {
		family := notif.Classify(hours)
		offset := time.Duration(hours * float64(time.Hour))

		if earlyMorning && hours == 3 {
			family = notif.TypeReminder1h
			offset = time.Hour
		}

		at := ap.DateTime.Add(-offset)
		if at.Before(now) {
			continue
		}
		if seen[slot{family, at}] {
			continue
		}
		seen[slot{family, at}] = true

		rows = append(rows, s.perChannel(ap.ID, family, at, to, tpl, vars)...)
	}
	return rows, nil
}

func (s *Scheduler) perChannel(
	appointmentID uint,
	typ notif.Type,
	at time.Time,
	to recipient,
	tpl templateSet,
	vars TemplateVars,
) []models.NotificationSchedule {
	var rows []models.NotificationSchedule
	if to.Email != "" {
		rows = append(rows, models.NotificationSchedule{
			AppointmentID: appointmentID,
			Type:          string(typ),
			ScheduledFor:  at,
			Method:        string(notif.MethodEmail),
			Recipient:     to.Email,
			Subject:       Render(tpl.Subject, vars),
			Message:       Render(tpl.Email, vars),
		})
	}
	if to.Phone != "" {
		rows = append(rows, models.NotificationSchedule{
			AppointmentID: appointmentID,
			Type:          string(typ),
			ScheduledFor:  at,
			Method:        string(notif.MethodSMS),
			Recipient:     to.Phone,
			Message:       Render(tpl.SMS, vars),
		})
	}
	return rows
}

func (s *Scheduler) templateVars(ap *models.Appointment, to recipient) (TemplateVars, error) {
	vars := TemplateVars{
		CustomerName:    to.Name,
		DateTime:        ap.DateTime,
		Location:        s.loc,
		ShopName:        s.shopName,
		AppointmentType: ap.Type,
	}
	if ap.Party != nil {
		vars.PartyName = ap.Party.Name
	}
	if ap.Tailor != nil {
		vars.StaffName = ap.Tailor.Name
	}

	if s.tokens != nil {
		reschedule, err := s.tokens.Issue(ap.ID, ActionReschedule)
		if err != nil {
			return vars, err
		}
		cancel, err := s.tokens.Issue(ap.ID, ActionCancel)
		if err != nil {
			return vars, err
		}
		vars.RescheduleURL = s.baseURL + "/api/public/appointments/reschedule?token=" + reschedule
		vars.CancelURL = s.baseURL + "/api/public/appointments/cancel?token=" + cancel
	}
	return vars, nil
}

// ======================================================
// PICKUP READY
// ======================================================

// SchedulePickupReadyNotification queues a pickup_ready message per channel
// at scheduleFor, or now when nil.
func (s *Scheduler) SchedulePickupReadyNotification(ctx context.Context, appointmentID uint, scheduleFor *time.Time) error {
	lg := logging.Service(ctx, s.logger, "notification", "schedule_pickup_ready", "appointment_id", appointmentID)

	ap, err := s.repo.GetAppointmentWithOwners(ctx, appointmentID)
	if err != nil {
		return err
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return err
	}

	to := resolveRecipient(ap)
	if to.empty() {
		lg.Warn("no email or phone for appointment, skipping pickup notice")
		return nil
	}

	at := s.now()
	if scheduleFor != nil {
		at = *scheduleFor
	}

	vars, err := s.templateVars(ap, to)
	if err != nil {
		return err
	}
	rows := s.perChannel(ap.ID, notif.TypePickupReady, at, to, pickupTemplates(settings), vars)

	if err := s.store.CreateSchedules(ctx, rows); err != nil {
		return err
	}

	lg.Info("pickup notice scheduled", "count", len(rows), "at", at)
	return nil
}

// ======================================================
// DELIVERY SWEEP
// ======================================================

// SweepReport summarises one ProcessPendingNotifications run.
type SweepReport struct {
	Processed  int `json:"processed"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
	Superseded int `json:"superseded"`
}

// ProcessPendingNotifications delivers up to one batch of due entries.
// A failed send leaves its row pending for the next sweep and does not stop
// the rest of the batch. Sweeps never overlap: a call made while another is
// delivering returns ErrSweepInProgress without sending anything.
func (s *Scheduler) ProcessPendingNotifications(ctx context.Context) (SweepReport, error) {
	lg := logging.Service(ctx, s.logger, "notification", "process_pending")

	var report SweepReport

	if !s.sweeping.TryLock() {
		return report, ErrSweepInProgress
	}
	defer s.sweeping.Unlock()

	due, err := s.store.ListDue(ctx, s.now(), s.batchSize)
	if err != nil {
		return report, err
	}

	for _, n := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++

		if sendErr := s.send(ctx, n); sendErr != nil {
			report.Failed++
			lg.Warn("notification send failed",
				"notification_id", n.ID,
				"appointment_id", n.AppointmentID,
				"method", n.Method,
				"error", sendErr,
			)
			if err := s.store.MarkFailed(ctx, n.ID, truncate(sendErr.Error(), 255)); err != nil {
				lg.Error("failed to record send failure", "notification_id", n.ID, "error", err)
			}
			continue
		}

		ok, err := s.store.MarkSent(ctx, n.ID, s.now())
		if err != nil {
			// delivered but not recorded; it will be sent again next sweep
			report.Failed++
			lg.Error("failed to mark notification sent", "notification_id", n.ID, "error", err)
			continue
		}
		if !ok {
			report.Superseded++
			lg.Info("notification removed or already sent during delivery", "notification_id", n.ID)
			continue
		}
		report.Sent++
	}

	if report.Processed > 0 {
		lg.Info("sweep finished",
			"processed", report.Processed,
			"sent", report.Sent,
			"failed", report.Failed,
			"superseded", report.Superseded,
		)
	}
	return report, nil
}

// send bounds the transport call with sendTimeout even when the transport
// ignores its context.
func (s *Scheduler) send(ctx context.Context, n models.NotificationSchedule) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.deliver(sendCtx, n) }()

	select {
	case err := <-done:
		return err
	case <-sendCtx.Done():
		return &notify.SendError{Method: n.Method, Recipient: n.Recipient, Err: sendCtx.Err()}
	}
}

func (s *Scheduler) deliver(ctx context.Context, n models.NotificationSchedule) error {
	var err error
	switch notif.Method(n.Method) {
	case notif.MethodEmail:
		_, err = s.transport.SendEmail(ctx, n.Recipient, n.Subject, n.Message, "")
	case notif.MethodSMS:
		_, err = s.transport.SendSMS(ctx, n.Recipient, n.Message)
	default:
		err = fmt.Errorf("unknown method %q", n.Method)
	}
	if err == nil {
		return nil
	}

	var sendErr *notify.SendError
	if errors.As(err, &sendErr) {
		return err
	}
	return &notify.SendError{Method: n.Method, Recipient: n.Recipient, Err: err}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ======================================================
// HOUSEKEEPING
// ======================================================

// CleanupSentNotifications purges sent rows older than retention. With an
// archiver configured the rows are archived first; an archive failure
// aborts the purge.
func (s *Scheduler) CleanupSentNotifications(ctx context.Context, retention time.Duration) (int64, error) {
	lg := logging.Service(ctx, s.logger, "notification", "cleanup")
	cutoff := s.now().Add(-retention)

	if s.archiver != nil {
		rows, err := s.store.ListSentBefore(ctx, cutoff)
		if err != nil {
			return 0, err
		}
		if len(rows) > 0 {
			if err := s.archiver.Archive(ctx, rows); err != nil {
				return 0, fmt.Errorf("archive sent notifications: %w", err)
			}
		}
	}

	deleted, err := s.store.DeleteSentBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	lg.Info("sent notifications purged", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}

// CancelPending drops every unsent notification for the appointment.
func (s *Scheduler) CancelPending(ctx context.Context, appointmentID uint) (int64, error) {
	return s.store.DeleteUnsent(ctx, appointmentID)
}
