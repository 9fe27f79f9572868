package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookline/booking-platform/internal/appointments"
	"github.com/bookline/booking-platform/internal/availability"
	"github.com/bookline/booking-platform/internal/catalog"
	"github.com/bookline/booking-platform/internal/clients"
	"github.com/bookline/booking-platform/internal/localization"
	"github.com/bookline/booking-platform/internal/messaging"
	"github.com/bookline/booking-platform/internal/observability/metrics"
	"github.com/bookline/booking-platform/internal/schedule"
	"github.com/bookline/booking-platform/internal/tenancy"
)

const (
	clientChat = int64(100)
	ownerChat  = int64(900)
)

// Sunday March 1st 2026, 08:00 UTC. The first Monday of the month is the 2nd.
var testNow = time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)

type fakeDirectory struct {
	tenant   tenancy.Tenant
	employee tenancy.Employee
}

func (f *fakeDirectory) List(context.Context) ([]tenancy.Tenant, error) {
	return []tenancy.Tenant{f.tenant}, nil
}

func (f *fakeDirectory) Get(_ context.Context, id uuid.UUID) (*tenancy.Tenant, error) {
	if id != f.tenant.ID {
		return nil, tenancy.ErrNotFound
	}
	t := f.tenant
	return &t, nil
}

func (f *fakeDirectory) ByOwnerChat(_ context.Context, chatID int64) (*tenancy.Tenant, error) {
	if chatID != f.tenant.OwnerChatID {
		return nil, tenancy.ErrNotFound
	}
	t := f.tenant
	return &t, nil
}

func (f *fakeDirectory) EmployeeForTenant(_ context.Context, tenantID uuid.UUID) (*tenancy.Employee, error) {
	if tenantID != f.tenant.ID {
		return nil, tenancy.ErrNotFound
	}
	e := f.employee
	return &e, nil
}

func (f *fakeDirectory) Employee(_ context.Context, id uuid.UUID) (*tenancy.Employee, error) {
	if id != f.employee.ID {
		return nil, tenancy.ErrNotFound
	}
	e := f.employee
	return &e, nil
}

type fakeCatalog struct {
	services []catalog.Service
}

func (f *fakeCatalog) ForEmployee(_ context.Context, employeeID uuid.UUID) ([]catalog.Service, error) {
	var out []catalog.Service
	for _, s := range f.services {
		if s.EmployeeID == employeeID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Get(_ context.Context, id uuid.UUID) (*catalog.Service, error) {
	for _, s := range f.services {
		if s.ID == id {
			svc := s
			return &svc, nil
		}
	}
	return nil, catalog.ErrNotFound
}

type fakeSchedules struct {
	work   map[time.Weekday]*schedule.WorkInterval
	breaks map[uuid.UUID][]schedule.BreakInterval
}

func newFakeSchedules() *fakeSchedules {
	return &fakeSchedules{
		work:   make(map[time.Weekday]*schedule.WorkInterval),
		breaks: make(map[uuid.UUID][]schedule.BreakInterval),
	}
}

func (f *fakeSchedules) WorkIntervalForDay(_ context.Context, _ uuid.UUID, weekday time.Weekday) (*schedule.WorkInterval, error) {
	w, ok := f.work[weekday]
	if !ok {
		return nil, schedule.ErrNotFound
	}
	return w, nil
}

func (f *fakeSchedules) Weekly(context.Context, uuid.UUID) (schedule.WeeklySchedule, error) {
	out := make(schedule.WeeklySchedule, len(f.work))
	for d, w := range f.work {
		out[d] = w
	}
	return out, nil
}

func (f *fakeSchedules) UpsertWorkInterval(_ context.Context, w *schedule.WorkInterval) error {
	f.work[w.Weekday] = w
	return nil
}

func (f *fakeSchedules) BreaksFor(_ context.Context, workIntervalID uuid.UUID) ([]schedule.BreakInterval, error) {
	return f.breaks[workIntervalID], nil
}

func (f *fakeSchedules) AddBreak(_ context.Context, b *schedule.BreakInterval) error {
	f.breaks[b.WorkIntervalID] = append(f.breaks[b.WorkIntervalID], *b)
	return nil
}

func (f *fakeSchedules) RemoveBreak(_ context.Context, breakID uuid.UUID) (bool, error) {
	for workID, bs := range f.breaks {
		for i, b := range bs {
			if b.ID == breakID {
				f.breaks[workID] = append(bs[:i], bs[i+1:]...)
				return true, nil
			}
		}
	}
	return false, nil
}

type fakeBook struct {
	taken   map[time.Time]bool
	booked  []appointments.BookedSlot
	created []appointments.Appointment
}

func newFakeBook() *fakeBook {
	return &fakeBook{taken: make(map[time.Time]bool)}
}

func (f *fakeBook) occupy(startUTC time.Time, durationMinutes int) {
	f.taken[startUTC] = true
	f.booked = append(f.booked, appointments.BookedSlot{StartUTC: startUTC, DurationMinutes: durationMinutes})
}

func (f *fakeBook) Create(_ context.Context, serviceID, employeeID, clientID uuid.UUID, bookingAt time.Time) (*appointments.Appointment, error) {
	if f.taken[bookingAt] {
		return nil, appointments.ErrSlotTaken
	}
	appt := appointments.Appointment{
		ID:         uuid.New(),
		ServiceID:  serviceID,
		EmployeeID: employeeID,
		ClientID:   clientID,
		BookingAt:  bookingAt,
		Status:     appointments.StatusPending,
	}
	f.created = append(f.created, appt)
	f.occupy(bookingAt, 60)
	return &appt, nil
}

func (f *fakeBook) ForEmployeeBetween(_ context.Context, _ uuid.UUID, fromUTC, toUTC time.Time) ([]appointments.BookedSlot, error) {
	var out []appointments.BookedSlot
	for _, b := range f.booked {
		if !b.StartUTC.Before(fromUTC) && b.StartUTC.Before(toUTC) {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeClients struct {
	known map[int64]*clients.Client
}

func (f *fakeClients) Ensure(_ context.Context, chatID int64, language, timezone string) (*clients.Client, error) {
	if f.known == nil {
		f.known = make(map[int64]*clients.Client)
	}
	if c, ok := f.known[chatID]; ok {
		return c, nil
	}
	c := &clients.Client{ID: uuid.New(), ChatID: chatID, Language: language, Timezone: timezone}
	f.known[chatID] = c
	return c, nil
}

type fakeDecider struct {
	confirmed []uuid.UUID
	rejected  []uuid.UUID
	err       error
}

func (f *fakeDecider) Confirm(_ context.Context, id uuid.UUID, _ int64) error {
	if f.err != nil {
		return f.err
	}
	f.confirmed = append(f.confirmed, id)
	return nil
}

func (f *fakeDecider) Reject(_ context.Context, id uuid.UUID, _ int64) error {
	if f.err != nil {
		return f.err
	}
	f.rejected = append(f.rejected, id)
	return nil
}

type fixture struct {
	ctrl      *Controller
	gateway   *messaging.Recorder
	states    *MemoryStateStore
	locale    *localization.Table
	registry  *prometheus.Registry
	tenant    tenancy.Tenant
	employee  tenancy.Employee
	service   catalog.Service
	schedules *fakeSchedules
	book      *fakeBook
	decider   *fakeDecider
}

// newFixture builds one tenant with one employee working Mondays
// 09:00-17:00 UTC with a 12:00-13:00 break, offering a 60 minute service.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	locale, err := localization.Load("en", nil)
	require.NoError(t, err)

	tenant := tenancy.Tenant{ID: uuid.New(), Name: "Harbor Cuts", OwnerChatID: ownerChat}
	employee := tenancy.Employee{ID: uuid.New(), TenantID: tenant.ID, DisplayName: "Sam"}
	service := catalog.Service{ID: uuid.New(), EmployeeID: employee.ID, Name: "Haircut", DurationMinutes: 60}

	schedules := newFakeSchedules()
	work, err := schedule.NewWorkInterval(employee.ID, time.Monday, 9*60, 17*60, "UTC")
	require.NoError(t, err)
	require.NoError(t, schedules.UpsertWorkInterval(context.Background(), work))
	brk, err := schedule.NewBreakInterval(work, nil, 12*60, 13*60)
	require.NoError(t, err)
	require.NoError(t, schedules.AddBreak(context.Background(), brk))

	f := &fixture{
		gateway:   messaging.NewRecorder(),
		states:    NewMemoryStateStore(),
		locale:    locale,
		registry:  prometheus.NewRegistry(),
		tenant:    tenant,
		employee:  employee,
		service:   service,
		schedules: schedules,
		book:      newFakeBook(),
		decider:   &fakeDecider{},
	}
	f.ctrl = NewController(ControllerConfig{
		States:       f.states,
		Gateway:      f.gateway,
		Locale:       locale,
		Tenants:      &fakeDirectory{tenant: tenant, employee: employee},
		Catalog:      &fakeCatalog{services: []catalog.Service{service}},
		Schedules:    schedules,
		Appointments: f.book,
		Clients:      &fakeClients{},
		Decider:      f.decider,
		Clock:        availability.FixedClock{Instant: testNow},
		Metrics:      metrics.NewBookingMetrics(f.registry),
		Granularity:  30 * time.Minute,
		WindowMonths: 1,
	})
	return f
}

func (f *fixture) msg(key string, args ...any) string {
	return f.locale.Get("en", key, args...)
}

func buttonLabels(buttons [][]messaging.Button) []string {
	var out []string
	for _, row := range buttons {
		for _, b := range row {
			out = append(out, b.Label)
		}
	}
	return out
}

func buttonCallbacks(buttons [][]messaging.Button) []string {
	var out []string
	for _, row := range buttons {
		for _, b := range row {
			out = append(out, b.Callback)
		}
	}
	return out
}

func TestBookingHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.OnMessage(ctx, clientChat, "book"))
	last := f.gateway.Last()
	require.NotNil(t, last)
	assert.Equal(t, f.msg("choose_tenant"), last.Text)
	assert.Contains(t, buttonCallbacks(last.Buttons), "tenant:"+f.tenant.ID.String())

	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "tenant:"+f.tenant.ID.String()))
	last = f.gateway.Last()
	assert.Equal(t, f.msg("choose_service"), last.Text)
	assert.Contains(t, buttonCallbacks(last.Buttons), "service:"+f.service.ID.String())

	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "service:"+f.service.ID.String()))
	last = f.gateway.Last()
	assert.Equal(t, f.msg("choose_date"), last.Text)
	assert.Contains(t, buttonCallbacks(last.Buttons), "day:2026-03-02")

	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "day:2026-03-02"))
	last = f.gateway.Last()
	labels := buttonLabels(last.Buttons)
	assert.Contains(t, labels, "09:00")
	assert.Contains(t, labels, "13:00")
	assert.Contains(t, labels, "16:00")
	assert.NotContains(t, labels, "12:30", "slots overlapping the break are not offered")
	assert.NotContains(t, labels, "16:30", "service must end inside working hours")

	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "time:540"))

	require.Len(t, f.book.created, 1)
	assert.Equal(t, time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC), f.book.created[0].BookingAt)
	assert.Equal(t, appointments.StatusPending, f.book.created[0].Status)

	toClient := f.gateway.SentTo(clientChat)
	assert.Equal(t, f.msg("booking_created", "Haircut", "2026-03-02", "09:00"), toClient[len(toClient)-1].Text)

	toOwner := f.gateway.SentTo(ownerChat)
	require.Len(t, toOwner, 1)
	assert.Equal(t, f.msg("booking_pending_owner", "Haircut", "2026-03-02", "09:00"), toOwner[0].Text)
	apptID := f.book.created[0].ID.String()
	assert.Contains(t, buttonCallbacks(toOwner[0].Buttons), "confirm:"+apptID)
	assert.Contains(t, buttonCallbacks(toOwner[0].Buttons), "reject:"+apptID)

	step, err := f.states.Load(ctx, clientChat)
	require.NoError(t, err)
	assert.Equal(t, Idle{}, step, "the session ends once the booking exists")
}

func TestBookingConflictReoffersRemainingSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state := SelectingTime{ServiceID: f.service.ID, Year: 2026, Month: time.March, Day: 2}
	require.NoError(t, f.states.Save(ctx, clientChat, state))
	f.book.occupy(time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC), 60)

	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "time:540"))

	assert.Empty(t, f.book.created)
	last := f.gateway.Last()
	assert.Equal(t, f.msg("slot_taken"), last.Text)
	labels := buttonLabels(last.Buttons)
	assert.NotContains(t, labels, "09:00", "the contested slot is gone from the re-offer")
	assert.NotContains(t, labels, "09:30", "slots overlapping the new booking are gone too")
	assert.Contains(t, labels, "10:00")

	step, err := f.states.Load(ctx, clientChat)
	require.NoError(t, err)
	assert.Equal(t, state, step, "the session stays in time selection")
}

func TestStaleServiceExpiresSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gone := SelectingDate{ServiceID: uuid.New(), Year: 2026, Month: time.March}
	require.NoError(t, f.states.Save(ctx, clientChat, gone))

	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "day:2026-03-02"))

	assert.Equal(t, f.msg("session_expired"), f.gateway.Last().Text)
	step, err := f.states.Load(ctx, clientChat)
	require.NoError(t, err)
	assert.Equal(t, Idle{}, step)
}

func TestCallbackWithoutSessionExpires(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.OnCallback(context.Background(), clientChat, "time:540"))
	assert.Equal(t, f.msg("session_expired"), f.gateway.Last().Text)
}

func TestMonthNavigationOutsideWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state := SelectingDate{ServiceID: f.service.ID, Year: 2026, Month: time.March}
	require.NoError(t, f.states.Save(ctx, clientChat, state))

	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "calnav:2026-05"))

	assert.Equal(t, f.msg("out_of_range"), f.gateway.Last().Text)
	step, err := f.states.Load(ctx, clientChat)
	require.NoError(t, err)
	assert.Equal(t, state, step, "a rejected navigation leaves the month unchanged")
}

func TestMonthNavigationForward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state := SelectingDate{ServiceID: f.service.ID, Year: 2026, Month: time.March}
	require.NoError(t, f.states.Save(ctx, clientChat, state))

	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "calnav:2026-04"))

	assert.Equal(t, f.msg("choose_date"), f.gateway.Last().Text)
	step, err := f.states.Load(ctx, clientChat)
	require.NoError(t, err)
	assert.Equal(t, SelectingDate{ServiceID: f.service.ID, Year: 2026, Month: time.April}, step)
}

func TestDayWithoutSlotsStaysOnCalendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state := SelectingDate{ServiceID: f.service.ID, Year: 2026, Month: time.March}
	require.NoError(t, f.states.Save(ctx, clientChat, state))

	// Tuesday has no working hours at all.
	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "day:2026-03-03"))

	assert.Equal(t, f.msg("no_slots"), f.gateway.Last().Text)
	step, err := f.states.Load(ctx, clientChat)
	require.NoError(t, err)
	assert.Equal(t, state, step)
}

func TestFreeTextOutsideFlowIsRejectedGently(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.OnMessage(context.Background(), clientChat, "hello there"))
	assert.Equal(t, f.msg("invalid_input"), f.gateway.Last().Text)
}

func TestOwnerSetupFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.OnMessage(ctx, ownerChat, "setup"))
	last := f.gateway.Last()
	assert.Equal(t, f.msg("setup_choose_day"), last.Text)
	assert.Contains(t, buttonCallbacks(last.Buttons), "workday:3")

	require.NoError(t, f.ctrl.OnCallback(ctx, ownerChat, "workday:3"))
	assert.Equal(t, f.msg("setup_enter_hours", "Wednesday"), f.gateway.Last().Text)

	require.NoError(t, f.ctrl.OnMessage(ctx, ownerChat, "10:00-18:00 Europe/Berlin"))
	assert.Equal(t, f.msg("hours_saved", "Wednesday", "10:00", "18:00", "Europe/Berlin"), f.gateway.Last().Text)

	work, err := f.schedules.WorkIntervalForDay(ctx, f.employee.ID, time.Wednesday)
	require.NoError(t, err)
	assert.Equal(t, 10*60, work.StartMinute)
	assert.Equal(t, 18*60, work.EndMinute)
	assert.Equal(t, "Europe/Berlin", work.Timezone)

	step, err := f.states.Load(ctx, ownerChat)
	require.NoError(t, err)
	assert.Equal(t, Idle{}, step)
}

func TestOwnerSetupRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.OnCallback(ctx, ownerChat, "workday:1"))

	require.NoError(t, f.ctrl.OnMessage(ctx, ownerChat, "nonsense"))
	assert.Equal(t, f.msg("invalid_time_range"), f.gateway.Last().Text)

	require.NoError(t, f.ctrl.OnMessage(ctx, ownerChat, "17:00-09:00 UTC"))
	assert.Equal(t, f.msg("invalid_time_range"), f.gateway.Last().Text)

	require.NoError(t, f.ctrl.OnMessage(ctx, ownerChat, "09:00-17:00 Mars/Olympus"))
	assert.Equal(t, f.msg("unknown_timezone"), f.gateway.Last().Text)

	// The session survives bad input so the owner can try again.
	require.NoError(t, f.ctrl.OnMessage(ctx, ownerChat, "09:00-17:00 UTC"))
	assert.Equal(t, f.msg("hours_saved", "Monday", "09:00", "17:00", "UTC"), f.gateway.Last().Text)
}

func TestNonOwnerCannotSetup(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.OnMessage(context.Background(), clientChat, "setup"))
	assert.Equal(t, f.msg("invalid_input"), f.gateway.Last().Text)
}

func TestOwnerBreakFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.OnCallback(ctx, ownerChat, "breaks:1"))
	last := f.gateway.Last()
	assert.Equal(t, f.msg("breaks_intro", "Monday"), last.Text)
	assert.Contains(t, buttonLabels(last.Buttons), "12:00-13:00 ✖")

	require.NoError(t, f.ctrl.OnMessage(ctx, ownerChat, "15:00-15:30"))
	assert.Equal(t, f.msg("break_saved", "15:00", "15:30"), f.gateway.Last().Text)

	require.NoError(t, f.ctrl.OnMessage(ctx, ownerChat, "12:30-13:30"))
	assert.Equal(t, f.msg("break_overlap"), f.gateway.Last().Text)

	require.NoError(t, f.ctrl.OnMessage(ctx, ownerChat, "08:00-09:30"))
	assert.Equal(t, f.msg("break_outside"), f.gateway.Last().Text)

	work, err := f.schedules.WorkIntervalForDay(ctx, f.employee.ID, time.Monday)
	require.NoError(t, err)
	breaks, err := f.schedules.BreaksFor(ctx, work.ID)
	require.NoError(t, err)
	require.Len(t, breaks, 2)
}

func TestOwnerBreakRemoval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	work, err := f.schedules.WorkIntervalForDay(ctx, f.employee.ID, time.Monday)
	require.NoError(t, err)
	breaks, err := f.schedules.BreaksFor(ctx, work.ID)
	require.NoError(t, err)
	require.Len(t, breaks, 1)

	require.NoError(t, f.ctrl.OnCallback(ctx, ownerChat, "breakdel:"+breaks[0].ID.String()))
	assert.Equal(t, f.msg("break_removed"), f.gateway.Last().Text)

	require.NoError(t, f.ctrl.OnCallback(ctx, ownerChat, "breakdel:"+breaks[0].ID.String()))
	assert.Equal(t, f.msg("break_missing"), f.gateway.Last().Text)
}

func TestBreaksMenuRequiresWorkday(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.OnCallback(context.Background(), ownerChat, "breaks:5"))
	assert.Equal(t, f.msg("workday_missing"), f.gateway.Last().Text)
}

func TestDecisionCallbacksRouteToDecider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	apptID := uuid.New()

	require.NoError(t, f.ctrl.OnCallback(ctx, ownerChat, "confirm:"+apptID.String()))
	assert.Equal(t, []uuid.UUID{apptID}, f.decider.confirmed)

	require.NoError(t, f.ctrl.OnCallback(ctx, ownerChat, "reject:"+apptID.String()))
	assert.Equal(t, []uuid.UUID{apptID}, f.decider.rejected)
}

func TestDecisionOnDecidedAppointment(t *testing.T) {
	f := newFixture(t)
	f.decider.err = appointments.ErrInvalidTransition

	require.NoError(t, f.ctrl.OnCallback(context.Background(), ownerChat, "confirm:"+uuid.NewString()))
	assert.Equal(t, f.msg("already_decided"), f.gateway.Last().Text)
}

func TestDecisionOnMissingAppointment(t *testing.T) {
	f := newFixture(t)
	f.decider.err = appointments.ErrNotFound

	require.NoError(t, f.ctrl.OnCallback(context.Background(), ownerChat, "reject:"+uuid.NewString()))
	assert.Equal(t, f.msg("appointment_missing"), f.gateway.Last().Text)
}

func TestBackFromTimeSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state := SelectingTime{ServiceID: f.service.ID, Year: 2026, Month: time.March, Day: 2}
	require.NoError(t, f.states.Save(ctx, clientChat, state))

	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "back:calendar"))

	assert.Equal(t, f.msg("choose_date"), f.gateway.Last().Text)
	step, err := f.states.Load(ctx, clientChat)
	require.NoError(t, err)
	assert.Equal(t, SelectingDate{ServiceID: f.service.ID, Year: 2026, Month: time.March}, step)
}

func TestBackFromCalendarToServices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state := SelectingDate{ServiceID: f.service.ID, Year: 2026, Month: time.March}
	require.NoError(t, f.states.Save(ctx, clientChat, state))

	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "back:services"))

	assert.Equal(t, f.msg("choose_service"), f.gateway.Last().Text)
	step, err := f.states.Load(ctx, clientChat)
	require.NoError(t, err)
	assert.Equal(t, SelectingService{TenantID: f.tenant.ID}, step)
}

func TestTimeInsideBreakIsNotBooked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state := SelectingTime{ServiceID: f.service.ID, Year: 2026, Month: time.March, Day: 2}
	require.NoError(t, f.states.Save(ctx, clientChat, state))

	// 12:00 sits inside the 12:00-13:00 break; the button was never
	// offered, but the callback string is client-controlled input.
	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "time:720"))

	assert.Empty(t, f.book.created, "a time inside a break must never book")
	last := f.gateway.Last()
	assert.Equal(t, f.msg("slot_taken"), last.Text)
	assert.NotContains(t, buttonLabels(last.Buttons), "12:00")

	step, err := f.states.Load(ctx, clientChat)
	require.NoError(t, err)
	assert.Equal(t, state, step)
}

func TestTimeOutsideWorkingHoursIsNotBooked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state := SelectingTime{ServiceID: f.service.ID, Year: 2026, Month: time.March, Day: 2}
	require.NoError(t, f.states.Save(ctx, clientChat, state))

	// 23:30 lies outside the 09:00-17:00 working hours.
	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "time:1410"))

	assert.Empty(t, f.book.created, "a time outside working hours must never book")
	assert.Equal(t, f.msg("slot_taken"), f.gateway.Last().Text)
}

func TestTimeOverlappingBookingAtDifferentStartIsNotBooked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state := SelectingTime{ServiceID: f.service.ID, Year: 2026, Month: time.March, Day: 2}
	require.NoError(t, f.states.Save(ctx, clientChat, state))

	// An existing 09:30 booking overlaps a 09:00-10:00 slot without
	// sharing its start, so the database uniqueness guard alone would
	// let it through.
	f.book.occupy(time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC), 60)

	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "time:540"))

	assert.Empty(t, f.book.created, "overlapping times must never book")
	last := f.gateway.Last()
	assert.Equal(t, f.msg("slot_taken"), last.Text)
	assert.NotContains(t, buttonLabels(last.Buttons), "09:00")
	assert.NotContains(t, buttonLabels(last.Buttons), "10:00")
	assert.Contains(t, buttonLabels(last.Buttons), "10:30")
}

func TestStepsCountedOncePerUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.OnMessage(ctx, clientChat, "book"))
	require.NoError(t, f.ctrl.OnCallback(ctx, clientChat, "back:tenants"))

	expected := `
# HELP bookline_conversation_steps_total Conversation steps handled, by command and outcome
# TYPE bookline_conversation_steps_total counter
bookline_conversation_steps_total{command="back",outcome="ok"} 1
bookline_conversation_steps_total{command="book",outcome="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(f.registry, strings.NewReader(expected),
		"bookline_conversation_steps_total"))
}
