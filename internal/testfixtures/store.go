package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
	"github.com/cpg716/SuitSync-sub003/internal/domain/notification"
	"github.com/cpg716/SuitSync-sub003/internal/models"
)

// Store is an in-memory implementation of the appointment and notification
// repositories. Failures can be injected per method name.
type Store struct {
	mu     sync.Mutex
	nextID uint

	customers    map[uint]models.Customer
	users        map[uint]models.User
	parties      map[uint]models.Party
	members      map[uint]models.PartyMember
	appointments map[uint]models.Appointment
	jobs         map[uint]models.AlterationJob
	schedules    map[uint]models.NotificationSchedule
	settings     *models.Settings

	failures map[string]error
	calls    map[string]int
}

func NewStore() *Store {
	return &Store{
		customers:    make(map[uint]models.Customer),
		users:        make(map[uint]models.User),
		parties:      make(map[uint]models.Party),
		members:      make(map[uint]models.PartyMember),
		appointments: make(map[uint]models.Appointment),
		jobs:         make(map[uint]models.AlterationJob),
		schedules:    make(map[uint]models.NotificationSchedule),
		failures:     make(map[string]error),
		calls:        make(map[string]int),
	}
}

// FailOn makes every later call to method return err. A nil err clears it.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// Calls reports how many times method was invoked.
func (s *Store) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// enter records the call and returns an injected failure. Caller holds mu.
func (s *Store) enter(method string) error {
	s.calls[method]++
	return s.failures[method]
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// ======================================================
// Seeding
// ======================================================

func (s *Store) AddCustomer(c models.Customer) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.customers[c.ID] = c
	return c.ID
}

func (s *Store) AddUser(u models.User) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.id()
	s.users[u.ID] = u
	return u.ID
}

func (s *Store) AddParty(p models.Party) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	p.Members = nil
	s.parties[p.ID] = p
	return p.ID
}

func (s *Store) AddMember(m models.PartyMember) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	if m.Status == "" {
		m.Status = "Selected"
	}
	s.members[m.ID] = m
	return m.ID
}

func (s *Store) AddAppointment(ap models.Appointment) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	ap.ID = s.id()
	if ap.Status == "" {
		ap.Status = string(domain.StatusScheduled)
	}
	s.appointments[ap.ID] = ap
	return ap.ID
}

func (s *Store) AddSchedule(n models.NotificationSchedule) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.id()
	s.schedules[n.ID] = n
	return n.ID
}

func (s *Store) SetSettings(st *models.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st == nil {
		s.settings = nil
		return
	}
	cp := *st
	cp.ID = 1
	s.settings = &cp
}

// ======================================================
// Inspection
// ======================================================

func (s *Store) Appointment(id uint) models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appointments[id]
}

func (s *Store) Member(id uint) models.PartyMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[id]
}

func (s *Store) AlterationJobs() []models.AlterationJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AlterationJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

// Schedules returns every notification row ordered by scheduled time then id.
func (s *Store) Schedules() []models.NotificationSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedSchedules(func(models.NotificationSchedule) bool { return true })
}

func (s *Store) sortedSchedules(keep func(models.NotificationSchedule) bool) []models.NotificationSchedule {
	out := make([]models.NotificationSchedule, 0, len(s.schedules))
	for _, n := range s.schedules {
		if keep(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if !out[i].ScheduledFor.Equal(out[k].ScheduledFor) {
			return out[i].ScheduledFor.Before(out[k].ScheduledFor)
		}
		return out[i].ID < out[k].ID
	})
	return out
}

// ======================================================
// appointment.Repository
// ======================================================

func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Repository) error) error {
	s.mu.Lock()
	err := s.enter("WithinTx")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return fn(s)
}

func (s *Store) GetAppointment(ctx context.Context, id uint) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetAppointment"); err != nil {
		return nil, err
	}
	ap, ok := s.appointments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &ap, nil
}

func (s *Store) GetAppointmentWithOwners(ctx context.Context, id uint) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetAppointmentWithOwners"); err != nil {
		return nil, err
	}
	ap, ok := s.appointments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	if ap.PartyID != nil {
		if p, ok := s.parties[*ap.PartyID]; ok {
			if p.CustomerID != nil {
				if c, ok := s.customers[*p.CustomerID]; ok {
					p.Customer = &c
				}
			}
			ap.Party = &p
		}
	}
	if ap.MemberID != nil {
		if m, ok := s.members[*ap.MemberID]; ok {
			if m.CustomerID != nil {
				if c, ok := s.customers[*m.CustomerID]; ok {
					m.Customer = &c
				}
			}
			ap.Member = &m
		}
	}
	if ap.IndividualCustomerID != nil {
		if c, ok := s.customers[*ap.IndividualCustomerID]; ok {
			ap.IndividualCustomer = &c
		}
	}
	if ap.TailorID != nil {
		if u, ok := s.users[*ap.TailorID]; ok {
			ap.Tailor = &u
		}
	}
	return &ap, nil
}

func (s *Store) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateAppointment"); err != nil {
		return err
	}
	ap.ID = s.id()
	stored := *ap
	stored.Party, stored.Member, stored.IndividualCustomer, stored.Tailor = nil, nil, nil, nil
	s.appointments[ap.ID] = stored
	return nil
}

func (s *Store) UpdateAppointment(ctx context.Context, ap *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateAppointment"); err != nil {
		return err
	}
	if _, ok := s.appointments[ap.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *ap
	stored.Party, stored.Member, stored.IndividualCustomer, stored.Tailor = nil, nil, nil, nil
	s.appointments[ap.ID] = stored
	return nil
}

func (s *Store) MarkRemindersScheduled(ctx context.Context, appointmentID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("MarkRemindersScheduled"); err != nil {
		return err
	}
	return s.markRemindersScheduled(appointmentID)
}

func (s *Store) markRemindersScheduled(appointmentID uint) error {
	ap, ok := s.appointments[appointmentID]
	if !ok {
		return domain.ErrNotFound
	}
	ap.RemindersScheduled = true
	s.appointments[appointmentID] = ap
	return nil
}

func (s *Store) listAppointments(keep func(models.Appointment) bool) []models.Appointment {
	out := make([]models.Appointment, 0)
	for _, ap := range s.appointments {
		if keep(ap) {
			out = append(out, ap)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if !out[i].DateTime.Equal(out[k].DateTime) {
			return out[i].DateTime.Before(out[k].DateTime)
		}
		return out[i].ID < out[k].ID
	})
	return out
}

func (s *Store) ListAppointmentsForCustomer(ctx context.Context, customerID uint) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListAppointmentsForCustomer"); err != nil {
		return nil, err
	}
	return s.listAppointments(func(ap models.Appointment) bool {
		return ap.IndividualCustomerID != nil && *ap.IndividualCustomerID == customerID
	}), nil
}

func (s *Store) ListAppointmentsForMember(ctx context.Context, memberID uint) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListAppointmentsForMember"); err != nil {
		return nil, err
	}
	return s.listAppointments(func(ap models.Appointment) bool {
		return ap.MemberID != nil && *ap.MemberID == memberID
	}), nil
}

func (s *Store) ListOverdue(ctx context.Context, endedBefore time.Time) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListOverdue"); err != nil {
		return nil, err
	}
	return s.listAppointments(func(ap models.Appointment) bool {
		return domain.IsOpen(domain.Status(ap.Status)) && ap.EndTime().Before(endedBefore)
	}), nil
}

func (s *Store) GetPartyWithMembers(ctx context.Context, partyID uint) (*models.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetPartyWithMembers"); err != nil {
		return nil, err
	}
	p, ok := s.parties[partyID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Members = nil
	for _, m := range s.members {
		if m.PartyID == partyID {
			p.Members = append(p.Members, m)
		}
	}
	sort.Slice(p.Members, func(i, k int) bool { return p.Members[i].ID < p.Members[k].ID })
	return &p, nil
}

func (s *Store) GetMember(ctx context.Context, partyID, memberID uint) (*models.PartyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetMember"); err != nil {
		return nil, err
	}
	m, ok := s.members[memberID]
	if !ok || m.PartyID != partyID {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

func (s *Store) UpdateMemberStatus(ctx context.Context, memberID uint, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateMemberStatus"); err != nil {
		return err
	}
	m, ok := s.members[memberID]
	if !ok {
		return domain.ErrNotFound
	}
	m.Status = status
	s.members[memberID] = m
	return nil
}

func (s *Store) FindAlterationJobByMember(ctx context.Context, memberID uint) (*models.AlterationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FindAlterationJobByMember"); err != nil {
		return nil, err
	}
	for _, j := range s.jobs {
		if j.PartyMemberID != nil && *j.PartyMemberID == memberID {
			return &j, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) CreateAlterationJob(ctx context.Context, job *models.AlterationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateAlterationJob"); err != nil {
		return err
	}
	for _, j := range s.jobs {
		if job.PartyMemberID != nil && j.PartyMemberID != nil && *j.PartyMemberID == *job.PartyMemberID {
			return domain.ErrAlreadyExists
		}
		if j.JobNumber == job.JobNumber {
			return domain.ErrAlreadyExists
		}
	}
	job.ID = s.id()
	s.jobs[job.ID] = *job
	return nil
}

func (s *Store) GetSettings(ctx context.Context) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetSettings"); err != nil {
		return nil, err
	}
	if s.settings == nil {
		return nil, domain.ErrNotFound
	}
	cp := *s.settings
	return &cp, nil
}

func (s *Store) SaveSettings(ctx context.Context, st *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SaveSettings"); err != nil {
		return err
	}
	cp := *st
	cp.ID = 1
	s.settings = &cp
	st.ID = 1
	return nil
}

// ======================================================
// notification.Repository
// ======================================================

func isReminderType(t string, types []notification.Type) bool {
	for _, candidate := range types {
		if string(candidate) == t {
			return true
		}
	}
	return false
}

func (s *Store) ReplaceReminders(ctx context.Context, appointmentID uint, types []notification.Type, rows []models.NotificationSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ReplaceReminders"); err != nil {
		return err
	}
	ap, ok := s.appointments[appointmentID]
	if !ok {
		return domain.ErrNotFound
	}
	if !domain.IsOpen(domain.Status(ap.Status)) {
		rows = nil
	}
	for id, n := range s.schedules {
		if n.AppointmentID == appointmentID && !n.Sent && isReminderType(n.Type, types) {
			delete(s.schedules, id)
		}
	}
	for i := range rows {
		rows[i].ID = s.id()
		s.schedules[rows[i].ID] = rows[i]
	}
	return s.markRemindersScheduled(appointmentID)
}

func (s *Store) CreateSchedules(ctx context.Context, rows []models.NotificationSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateSchedules"); err != nil {
		return err
	}
	for i := range rows {
		rows[i].ID = s.id()
		s.schedules[rows[i].ID] = rows[i]
	}
	return nil
}

func (s *Store) DeleteUnsent(ctx context.Context, appointmentID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteUnsent"); err != nil {
		return 0, err
	}
	var n int64
	for id, row := range s.schedules {
		if row.AppointmentID == appointmentID && !row.Sent {
			delete(s.schedules, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) ListForAppointment(ctx context.Context, appointmentID uint) ([]models.NotificationSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListForAppointment"); err != nil {
		return nil, err
	}
	return s.sortedSchedules(func(n models.NotificationSchedule) bool {
		return n.AppointmentID == appointmentID
	}), nil
}

func (s *Store) ListDue(ctx context.Context, now time.Time, limit int) ([]models.NotificationSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListDue"); err != nil {
		return nil, err
	}
	due := s.sortedSchedules(func(n models.NotificationSchedule) bool {
		return !n.Sent && !n.ScheduledFor.After(now)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *Store) MarkSent(ctx context.Context, id uint, sentAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("MarkSent"); err != nil {
		return false, err
	}
	n, ok := s.schedules[id]
	if !ok || n.Sent {
		return false, nil
	}
	n.Sent = true
	n.SentAt = &sentAt
	n.Attempts++
	n.LastError = ""
	s.schedules[id] = n
	return true, nil
}

func (s *Store) MarkFailed(ctx context.Context, id uint, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("MarkFailed"); err != nil {
		return err
	}
	n, ok := s.schedules[id]
	if !ok || n.Sent {
		return nil
	}
	n.Attempts++
	n.LastError = reason
	s.schedules[id] = n
	return nil
}

func (s *Store) ListSentBefore(ctx context.Context, cutoff time.Time) ([]models.NotificationSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListSentBefore"); err != nil {
		return nil, err
	}
	return s.sortedSchedules(func(n models.NotificationSchedule) bool {
		return n.Sent && n.SentAt != nil && n.SentAt.Before(cutoff)
	}), nil
}

func (s *Store) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteSentBefore"); err != nil {
		return 0, err
	}
	var n int64
	for id, row := range s.schedules {
		if row.Sent && row.SentAt != nil && row.SentAt.Before(cutoff) {
			delete(s.schedules, id)
			n++
		}
	}
	return n, nil
}

var (
	_ domain.Repository       = (*Store)(nil)
	_ notification.Repository = (*Store)(nil)
)
