package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	domain "github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
	notif "github.com/cpg716/SuitSync-sub003/internal/domain/notification"
	"github.com/cpg716/SuitSync-sub003/internal/models"
	"github.com/cpg716/SuitSync-sub003/internal/notify"
	"github.com/cpg716/SuitSync-sub003/internal/testfixtures"
)

type sentMessage struct {
	Method  string
	To      string
	Subject string
	Body    string
}

type transportStub struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]error
	block   bool
	onSend  func(to string)
}

func (t *transportStub) record(method, to, subject, body string) error {
	if t.onSend != nil {
		t.onSend(to)
	}
	if t.block {
		select {} // never returns; the scheduler must time out
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.failFor[to]; err != nil {
		return err
	}
	t.sent = append(t.sent, sentMessage{Method: method, To: to, Subject: subject, Body: body})
	return nil
}

func (t *transportStub) SendEmail(ctx context.Context, to, subject, text, html string) (notify.Result, error) {
	return notify.Result{MessageID: "m"}, t.record("email", to, subject, text)
}

func (t *transportStub) SendSMS(ctx context.Context, to, body string) (notify.Result, error) {
	return notify.Result{MessageID: "s"}, t.record("sms", to, "", body)
}

func (t *transportStub) messages() []sentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]sentMessage, len(t.sent))
	copy(out, t.sent)
	return out
}

type archiverStub struct {
	rows []models.NotificationSchedule
	err  error
}

func (a *archiverStub) Archive(ctx context.Context, rows []models.NotificationSchedule) error {
	if a.err != nil {
		return a.err
	}
	a.rows = append(a.rows, rows...)
	return nil
}

type fixture struct {
	store     *testfixtures.Store
	clock     *testfixtures.Clock
	transport *transportStub
	scheduler *Scheduler
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		store:     testfixtures.NewStore(),
		clock:     testfixtures.NewClock(time.Time{}),
		transport: &transportStub{failFor: map[string]error{}},
	}
	opts.Now = f.clock.NowFunc()
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ShopName == "" {
		opts.ShopName = "Tailor & Co"
	}
	f.scheduler = NewScheduler(f.store, f.store, f.transport, opts)
	return f
}

func (f *fixture) individualAppointment(at time.Time, email, phone string) uint {
	customerID := f.store.AddCustomer(models.Customer{Name: "Ana Silva", Email: email, Phone: phone})
	return f.store.AddAppointment(models.Appointment{
		IndividualCustomerID: &customerID,
		Type:                 string(domain.TypeFirstFitting),
		Status:               string(domain.StatusScheduled),
		DateTime:             at,
		DurationMinutes:      60,
	})
}

func countByType(rows []models.NotificationSchedule) map[string]int {
	out := map[string]int{}
	for _, r := range rows {
		out[r.Type]++
	}
	return out
}

func TestScheduleAppointmentReminders_DefaultIntervals(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	at := time.Date(2024, 10, 3, 14, 0, 0, 0, time.UTC)
	id := f.individualAppointment(at, "ana@example.com", "+15550001111")

	if err := f.scheduler.ScheduleAppointmentReminders(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := f.store.Schedules()
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows (2 intervals x 2 channels), got %d", len(rows))
	}
	counts := countByType(rows)
	if counts[string(notif.TypeReminder24h)] != 2 || counts[string(notif.TypeReminder3h)] != 2 {
		t.Fatalf("unexpected families: %v", counts)
	}
	for _, r := range rows {
		want := at.Add(-24 * time.Hour)
		if r.Type == string(notif.TypeReminder3h) {
			want = at.Add(-3 * time.Hour)
		}
		if !r.ScheduledFor.Equal(want) {
			t.Fatalf("%s: expected %s, got %s", r.Type, want, r.ScheduledFor)
		}
		if r.Method == string(notif.MethodEmail) && r.Subject == "" {
			t.Fatal("email rows need a subject")
		}
		if r.Method == string(notif.MethodSMS) && r.Subject != "" {
			t.Fatal("sms rows carry no subject")
		}
	}
	if !f.store.Appointment(id).RemindersScheduled {
		t.Fatal("expected reminders_scheduled flag")
	}
}

func TestScheduleAppointmentReminders_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	id := f.individualAppointment(time.Date(2024, 10, 3, 14, 0, 0, 0, time.UTC), "ana@example.com", "+15550001111")

	ctx := context.Background()
	if err := f.scheduler.ScheduleAppointmentReminders(ctx, id); err != nil {
		t.Fatalf("first call: %v", err)
	}
	first := f.store.Schedules()
	if err := f.scheduler.ScheduleAppointmentReminders(ctx, id); err != nil {
		t.Fatalf("second call: %v", err)
	}
	second := f.store.Schedules()

	if len(first) != len(second) {
		t.Fatalf("expected %d rows after second call, got %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].ScheduledFor.Equal(second[i].ScheduledFor) || first[i].Type != second[i].Type || first[i].Method != second[i].Method {
			t.Fatalf("row %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestScheduleAppointmentReminders_EarlyMorningRule(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	f.store.SetSettings(&models.Settings{ReminderIntervals: "24,3", EarlyMorningCutoff: "09:30"})
	at := time.Date(2024, 10, 3, 9, 0, 0, 0, time.UTC)
	id := f.individualAppointment(at, "ana@example.com", "+15550001111")

	if err := f.scheduler.ScheduleAppointmentReminders(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts := countByType(f.store.Schedules())
	if counts[string(notif.TypeReminder3h)] != 0 {
		t.Fatalf("expected no 3h reminders, got %v", counts)
	}
	if counts[string(notif.TypeReminder1h)] != 2 {
		t.Fatalf("expected one 1h reminder per channel, got %v", counts)
	}
	for _, r := range f.store.Schedules() {
		if r.Type == string(notif.TypeReminder1h) && !r.ScheduledFor.Equal(at.Add(-time.Hour)) {
			t.Fatalf("expected 1h reminder at %s, got %s", at.Add(-time.Hour), r.ScheduledFor)
		}
	}
}

func TestScheduleAppointmentReminders_AfterCutoffKeeps3h(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	id := f.individualAppointment(time.Date(2024, 10, 3, 9, 31, 0, 0, time.UTC), "ana@example.com", "")

	if err := f.scheduler.ScheduleAppointmentReminders(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts := countByType(f.store.Schedules()); counts[string(notif.TypeReminder3h)] != 1 {
		t.Fatalf("expected a 3h reminder after the cutoff, got %v", counts)
	}
}

func TestScheduleAppointmentReminders_PastAppointment(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	id := f.individualAppointment(f.clock.Now().Add(-2*time.Hour), "ana@example.com", "+15550001111")

	if err := f.scheduler.ScheduleAppointmentReminders(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows := f.store.Schedules(); len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestScheduleAppointmentReminders_ShortLeadTimeSkipsPastSlots(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	// 5 hours out: the 24h slot is already past, the 3h slot is not
	id := f.individualAppointment(f.clock.Now().Add(5*time.Hour), "ana@example.com", "")

	if err := f.scheduler.ScheduleAppointmentReminders(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := f.store.Schedules()
	if len(rows) != 1 || rows[0].Type != string(notif.TypeReminder3h) {
		t.Fatalf("expected only the 3h reminder, got %+v", rows)
	}
}

func TestScheduleAppointmentReminders_NoRecipient(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	id := f.individualAppointment(time.Date(2024, 10, 3, 14, 0, 0, 0, time.UTC), "", "")

	if err := f.scheduler.ScheduleAppointmentReminders(context.Background(), id); err != nil {
		t.Fatalf("missing contact must not be an error, got %v", err)
	}
	if f.store.Calls("ReplaceReminders") != 0 {
		t.Fatal("expected no writes without a recipient")
	}
}

func TestScheduleAppointmentReminders_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	if err := f.scheduler.ScheduleAppointmentReminders(context.Background(), 404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduleAppointmentReminders_RescheduleReplacesOnlyUnsent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	at := time.Date(2024, 10, 3, 14, 0, 0, 0, time.UTC)
	id := f.individualAppointment(at, "ana@example.com", "")

	sentAt := f.clock.Now().Add(-time.Hour)
	f.store.AddSchedule(models.NotificationSchedule{
		AppointmentID: id, Type: string(notif.TypeReminder24h), Method: "email",
		Recipient: "ana@example.com", ScheduledFor: sentAt, Sent: true, SentAt: &sentAt,
	})
	f.store.AddSchedule(models.NotificationSchedule{
		AppointmentID: id, Type: string(notif.TypePickupReady), Method: "email",
		Recipient: "ana@example.com", ScheduledFor: at.Add(48 * time.Hour),
	})

	ctx := context.Background()
	if err := f.scheduler.ScheduleAppointmentReminders(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	moved := f.store.Appointment(id)
	moved.DateTime = at.Add(24 * time.Hour)
	if err := f.store.UpdateAppointment(ctx, &moved); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := f.scheduler.ScheduleAppointmentReminders(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var unsentReminders, sent, pickup int
	for _, r := range f.store.Schedules() {
		switch {
		case r.Sent:
			sent++
		case r.Type == string(notif.TypePickupReady):
			pickup++
		default:
			unsentReminders++
			if r.ScheduledFor.Before(at) {
				t.Fatalf("stale reminder left behind: %+v", r)
			}
		}
	}
	if unsentReminders != 2 || sent != 1 || pickup != 1 {
		t.Fatalf("expected 2 fresh reminders, 1 sent, 1 pickup; got %d/%d/%d", unsentReminders, sent, pickup)
	}
}

func TestScheduleAppointmentReminders_CancelledAppointmentClearsReminders(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	id := f.individualAppointment(time.Date(2024, 10, 3, 14, 0, 0, 0, time.UTC), "ana@example.com", "")
	ctx := context.Background()
	if err := f.scheduler.ScheduleAppointmentReminders(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ap := f.store.Appointment(id)
	ap.Status = string(domain.StatusCancelled)
	_ = f.store.UpdateAppointment(ctx, &ap)

	if err := f.scheduler.ScheduleAppointmentReminders(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows := f.store.Schedules(); len(rows) != 0 {
		t.Fatalf("expected reminders removed, got %d", len(rows))
	}
}

// staleReads hands out the appointment as it was, then cancels it before the
// reminders are written, like a cancel committing between read and replace.
type staleReads struct {
	*testfixtures.Store
}

func (s staleReads) GetAppointmentWithOwners(ctx context.Context, id uint) (*models.Appointment, error) {
	ap, err := s.Store.GetAppointmentWithOwners(ctx, id)
	if err != nil {
		return nil, err
	}
	cancelled := s.Store.Appointment(id)
	cancelled.Status = string(domain.StatusCancelled)
	if err := s.Store.UpdateAppointment(ctx, &cancelled); err != nil {
		return nil, err
	}
	return ap, nil
}

func TestScheduleAppointmentReminders_CancelAfterReadInsertsNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	id := f.individualAppointment(f.clock.Now().Add(72*time.Hour), "ana@example.com", "+15550001111")
	scheduler := NewScheduler(staleReads{f.store}, f.store, f.transport, Options{Now: f.clock.NowFunc()})

	if err := scheduler.ScheduleAppointmentReminders(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows := f.store.Schedules(); len(rows) != 0 {
		t.Fatalf("cancelled appointment must not get reminders, got %d", len(rows))
	}
}

func TestScheduleAppointmentReminders_PartyRecipientAndTemplate(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{
		BaseURL: "https://shop.example.com/",
		Tokens:  NewActionTokens("secret", time.Hour, nil),
	})
	contact := f.store.AddCustomer(models.Customer{Name: "Maria Smith", Email: "maria@example.com"})
	partyID := f.store.AddParty(models.Party{Name: "Smith Wedding", CustomerID: &contact})
	memberID := f.store.AddMember(models.PartyMember{PartyID: partyID, Role: "groom"})
	tailor := f.store.AddUser(models.User{Name: "Luigi Rossi", Email: "luigi@example.com"})
	id := f.store.AddAppointment(models.Appointment{
		PartyID:  &partyID,
		MemberID: &memberID,
		TailorID: &tailor,
		Type:     string(domain.TypeAlterationsFitting),
		Status:   string(domain.StatusConfirmed),
		DateTime: time.Date(2024, 10, 3, 14, 0, 0, 0, time.UTC),
	})

	if err := f.scheduler.ScheduleAppointmentReminders(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := f.store.Schedules()
	if len(rows) != 2 {
		t.Fatalf("expected email-only reminders, got %d", len(rows))
	}
	msg := rows[0].Message
	for _, want := range []string{"Maria Smith (groom)", "alterations fitting", "Luigi", "Thursday, October 3, 2024 at 2:00 PM", "https://shop.example.com/api/public/appointments/cancel?token="} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in message:\n%s", want, msg)
		}
	}
	if rows[0].Recipient != "maria@example.com" {
		t.Fatalf("expected party contact, got %s", rows[0].Recipient)
	}
}

func TestSchedulePickupReadyNotification(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	id := f.individualAppointment(time.Date(2024, 10, 3, 9, 0, 0, 0, time.UTC), "ana@example.com", "+15550001111")

	if err := f.scheduler.SchedulePickupReadyNotification(context.Background(), id, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := f.store.Schedules()
	if len(rows) != 2 {
		t.Fatalf("expected one row per channel, got %d", len(rows))
	}
	for _, r := range rows {
		if r.Type != string(notif.TypePickupReady) {
			t.Fatalf("expected pickup_ready, got %s", r.Type)
		}
		if !r.ScheduledFor.Equal(f.clock.Now()) {
			t.Fatalf("expected now, got %s", r.ScheduledFor)
		}
	}

	later := f.clock.Now().Add(6 * time.Hour)
	if err := f.scheduler.SchedulePickupReadyNotification(context.Background(), id, &later); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(f.store.Schedules()); got != 4 {
		t.Fatalf("pickup notices accumulate, expected 4 rows, got %d", got)
	}
}

func TestProcessPendingNotifications_DeliversOnlyDue(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	now := f.clock.Now()
	due := f.store.AddSchedule(models.NotificationSchedule{AppointmentID: 1, Type: "appointment_reminder_24h", Method: "email", Recipient: "a@example.com", Subject: "s", Message: "m", ScheduledFor: now.Add(-time.Minute)})
	exact := f.store.AddSchedule(models.NotificationSchedule{AppointmentID: 1, Type: "appointment_reminder_3h", Method: "sms", Recipient: "+1555", Message: "m", ScheduledFor: now})
	future := f.store.AddSchedule(models.NotificationSchedule{AppointmentID: 1, Type: "appointment_reminder_1h", Method: "email", Recipient: "a@example.com", Message: "m", ScheduledFor: now.Add(time.Minute)})

	report, err := f.scheduler.ProcessPendingNotifications(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Sent != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	byID := map[uint]models.NotificationSchedule{}
	for _, r := range f.store.Schedules() {
		byID[r.ID] = r
	}
	if !byID[due].Sent || !byID[exact].Sent {
		t.Fatal("expected due rows sent")
	}
	if byID[due].SentAt == nil || !byID[due].SentAt.Equal(now) {
		t.Fatalf("expected sent_at %s, got %v", now, byID[due].SentAt)
	}
	if byID[future].Sent {
		t.Fatal("future row must not be sent")
	}
	if got := len(f.transport.messages()); got != 2 {
		t.Fatalf("expected 2 transport calls, got %d", got)
	}
}

func TestProcessPendingNotifications_FailureIsolated(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	f.transport.failFor["broken@example.com"] = errors.New("smtp 550")
	now := f.clock.Now()
	bad := f.store.AddSchedule(models.NotificationSchedule{AppointmentID: 1, Type: "appointment_reminder_24h", Method: "email", Recipient: "broken@example.com", ScheduledFor: now.Add(-2 * time.Minute)})
	good := f.store.AddSchedule(models.NotificationSchedule{AppointmentID: 2, Type: "appointment_reminder_24h", Method: "email", Recipient: "ok@example.com", ScheduledFor: now.Add(-time.Minute)})

	report, err := f.scheduler.ProcessPendingNotifications(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Sent != 1 || report.Failed != 1 || report.Processed != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}

	byID := map[uint]models.NotificationSchedule{}
	for _, r := range f.store.Schedules() {
		byID[r.ID] = r
	}
	if byID[bad].Sent {
		t.Fatal("failed row must stay unsent")
	}
	if byID[bad].Attempts != 1 || !strings.Contains(byID[bad].LastError, "smtp 550") {
		t.Fatalf("expected failure bookkeeping, got %+v", byID[bad])
	}
	if !byID[good].Sent {
		t.Fatal("a failure must not stop the rest of the batch")
	}

	// retried on the next sweep
	delete(f.transport.failFor, "broken@example.com")
	report, err = f.scheduler.ProcessPendingNotifications(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Sent != 1 {
		t.Fatalf("expected retry to succeed, got %+v", report)
	}
}

func TestProcessPendingNotifications_TimeoutCountsAsFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{SendTimeout: 20 * time.Millisecond})
	f.transport.block = true
	id := f.store.AddSchedule(models.NotificationSchedule{AppointmentID: 1, Type: "appointment_reminder_24h", Method: "sms", Recipient: "+1555", ScheduledFor: f.clock.Now()})

	report, err := f.scheduler.ProcessPendingNotifications(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("expected timeout failure, got %+v", report)
	}
	for _, r := range f.store.Schedules() {
		if r.ID == id && (r.Sent || !strings.Contains(r.LastError, "deadline")) {
			t.Fatalf("expected unsent row with deadline error, got %+v", r)
		}
	}
}

func TestProcessPendingNotifications_BatchSize(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{BatchSize: 2})
	for i := 0; i < 5; i++ {
		f.store.AddSchedule(models.NotificationSchedule{AppointmentID: 1, Type: "appointment_reminder_24h", Method: "email", Recipient: "a@example.com", ScheduledFor: f.clock.Now().Add(-time.Duration(i) * time.Minute)})
	}

	report, err := f.scheduler.ProcessPendingNotifications(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Processed != 2 {
		t.Fatalf("expected one batch of 2, got %+v", report)
	}

	// earliest first
	rows := f.store.Schedules()
	if !rows[0].Sent || !rows[1].Sent || rows[2].Sent {
		t.Fatal("expected the two earliest rows to be delivered first")
	}
}

func TestProcessPendingNotifications_RowRemovedDuringSend(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	f.store.AddSchedule(models.NotificationSchedule{AppointmentID: 7, Type: "appointment_reminder_24h", Method: "email", Recipient: "a@example.com", ScheduledFor: f.clock.Now()})
	f.transport.onSend = func(string) {
		// a concurrent reschedule drops the row while it is in flight
		_, _ = f.store.DeleteUnsent(context.Background(), 7)
	}

	report, err := f.scheduler.ProcessPendingNotifications(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Superseded != 1 || report.Sent != 0 {
		t.Fatalf("expected superseded delivery, got %+v", report)
	}
	if rows := f.store.Schedules(); len(rows) != 0 {
		t.Fatalf("deleted row must not be resurrected, got %+v", rows)
	}
}

func TestProcessPendingNotifications_OverlappingSweepsDeliverOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	f.store.AddSchedule(models.NotificationSchedule{AppointmentID: 3, Type: "appointment_reminder_24h", Method: "email", Recipient: "a@example.com", Message: "m", ScheduledFor: f.clock.Now()})

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.transport.onSend = func(string) {
		once.Do(func() { close(entered) })
		<-release
	}

	var (
		wg       sync.WaitGroup
		first    SweepReport
		firstErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, firstErr = f.scheduler.ProcessPendingNotifications(context.Background())
	}()
	<-entered

	second, err := f.scheduler.ProcessPendingNotifications(context.Background())
	if !errors.Is(err, ErrSweepInProgress) {
		t.Fatalf("expected ErrSweepInProgress, got %v", err)
	}
	if second.Processed != 0 {
		t.Fatalf("overlapping sweep must not process rows, got %+v", second)
	}

	close(release)
	wg.Wait()
	if firstErr != nil || first.Sent != 1 {
		t.Fatalf("unexpected first sweep: %+v %v", first, firstErr)
	}
	if got := len(f.transport.messages()); got != 1 {
		t.Fatalf("expected exactly one delivery, got %d", got)
	}

	third, err := f.scheduler.ProcessPendingNotifications(context.Background())
	if err != nil || third.Processed != 0 {
		t.Fatalf("expected an empty follow-up sweep, got %+v %v", third, err)
	}
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	t.Parallel()

	s := strings.Repeat("a", 254) + "é" + "tail"
	got := truncate(s, 255)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated text is not valid UTF-8: %q", got[len(got)-4:])
	}
	if got != strings.Repeat("a", 254) {
		t.Fatalf("expected cut before the multi-byte rune, got %d bytes", len(got))
	}
	if truncate("short", 255) != "short" {
		t.Fatal("short text must be unchanged")
	}
}

func TestCleanupSentNotifications(t *testing.T) {
	t.Parallel()

	archive := &archiverStub{}
	f := newFixture(t, Options{Archiver: archive})
	now := f.clock.Now()
	old := now.Add(-40 * 24 * time.Hour)
	recent := now.Add(-2 * 24 * time.Hour)
	f.store.AddSchedule(models.NotificationSchedule{AppointmentID: 1, Type: "appointment_reminder_24h", Method: "email", Recipient: "a", Sent: true, SentAt: &old, ScheduledFor: old})
	f.store.AddSchedule(models.NotificationSchedule{AppointmentID: 1, Type: "appointment_reminder_3h", Method: "email", Recipient: "a", Sent: true, SentAt: &recent, ScheduledFor: recent})
	f.store.AddSchedule(models.NotificationSchedule{AppointmentID: 2, Type: "appointment_reminder_24h", Method: "email", Recipient: "b", ScheduledFor: old})

	deleted, err := f.scheduler.CleanupSentNotifications(context.Background(), 30*24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 1 || len(archive.rows) != 1 {
		t.Fatalf("expected 1 archived and deleted, got deleted=%d archived=%d", deleted, len(archive.rows))
	}
	if got := len(f.store.Schedules()); got != 2 {
		t.Fatalf("expected recent and unsent rows kept, got %d", got)
	}
}

func TestCleanupSentNotifications_ArchiveFailureKeepsRows(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{Archiver: &archiverStub{err: errors.New("s3 down")}})
	old := f.clock.Now().Add(-40 * 24 * time.Hour)
	f.store.AddSchedule(models.NotificationSchedule{AppointmentID: 1, Type: "appointment_reminder_24h", Method: "email", Recipient: "a", Sent: true, SentAt: &old, ScheduledFor: old})

	if _, err := f.scheduler.CleanupSentNotifications(context.Background(), 30*24*time.Hour); err == nil {
		t.Fatal("expected archive error")
	}
	if got := len(f.store.Schedules()); got != 1 {
		t.Fatalf("expected row kept, got %d", got)
	}
}

func TestParseIntervals(t *testing.T) {
	t.Parallel()

	got := ParseIntervals(" 3, 24,,abc,-1,24,1.5,NaN,Inf,-Inf,+Inf")
	want := []float64{24, 3, 1.5}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if got := ParseIntervals("NaN,Inf"); len(got) != 0 {
		t.Fatalf("non-finite intervals must be rejected, got %v", got)
	}
}
