package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookline/booking-platform/internal/appointments"
	"github.com/bookline/booking-platform/internal/availability"
	"github.com/bookline/booking-platform/internal/calendar"
	"github.com/bookline/booking-platform/internal/catalog"
	"github.com/bookline/booking-platform/internal/clients"
	"github.com/bookline/booking-platform/internal/localization"
	"github.com/bookline/booking-platform/internal/messaging"
	"github.com/bookline/booking-platform/internal/observability/metrics"
	"github.com/bookline/booking-platform/internal/schedule"
	"github.com/bookline/booking-platform/internal/tenancy"
	"github.com/bookline/booking-platform/pkg/logging"
)

// TenantDirectory is the tenancy subset the controller needs.
type TenantDirectory interface {
	List(ctx context.Context) ([]tenancy.Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (*tenancy.Tenant, error)
	ByOwnerChat(ctx context.Context, ownerChatID int64) (*tenancy.Tenant, error)
	EmployeeForTenant(ctx context.Context, tenantID uuid.UUID) (*tenancy.Employee, error)
	Employee(ctx context.Context, id uuid.UUID) (*tenancy.Employee, error)
}

// ServiceCatalog lists and resolves bookable services.
type ServiceCatalog interface {
	ForEmployee(ctx context.Context, employeeID uuid.UUID) ([]catalog.Service, error)
	Get(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
}

// ScheduleStore reads and writes working hours and breaks.
type ScheduleStore interface {
	WorkIntervalForDay(ctx context.Context, employeeID uuid.UUID, weekday time.Weekday) (*schedule.WorkInterval, error)
	Weekly(ctx context.Context, employeeID uuid.UUID) (schedule.WeeklySchedule, error)
	UpsertWorkInterval(ctx context.Context, w *schedule.WorkInterval) error
	BreaksFor(ctx context.Context, workIntervalID uuid.UUID) ([]schedule.BreakInterval, error)
	AddBreak(ctx context.Context, b *schedule.BreakInterval) error
	RemoveBreak(ctx context.Context, breakID uuid.UUID) (bool, error)
}

// AppointmentBook creates appointments and reads occupied slots.
type AppointmentBook interface {
	Create(ctx context.Context, serviceID, employeeID, clientID uuid.UUID, bookingAt time.Time) (*appointments.Appointment, error)
	ForEmployeeBetween(ctx context.Context, employeeID uuid.UUID, fromUTC, toUTC time.Time) ([]appointments.BookedSlot, error)
}

// ClientDirectory registers chat users on first contact.
type ClientDirectory interface {
	Ensure(ctx context.Context, chatID int64, language, timezone string) (*clients.Client, error)
}

// Decider applies owner confirm/reject decisions.
type Decider interface {
	Confirm(ctx context.Context, id uuid.UUID, actorChatID int64) error
	Reject(ctx context.Context, id uuid.UUID, actorChatID int64) error
}

// ControllerConfig bundles the controller's collaborators.
type ControllerConfig struct {
	States       StateStore
	Gateway      messaging.Gateway
	Locale       *localization.Table
	Tenants      TenantDirectory
	Catalog      ServiceCatalog
	Schedules    ScheduleStore
	Appointments AppointmentBook
	Clients      ClientDirectory
	Decider      Decider
	Clock        availability.Clock
	Metrics      *metrics.BookingMetrics

	// Granularity is the slot stepping interval; WindowMonths is how many
	// months past the current one remain bookable.
	Granularity     time.Duration
	WindowMonths    int
	DefaultLanguage string
	Logger          *logging.Logger
}

// Controller drives the multi-step booking and setup flows. Every webhook
// update enters through OnMessage or OnCallback; updates for the same chat
// are serialized so state reads and writes cannot interleave.
type Controller struct {
	states       StateStore
	gateway      messaging.Gateway
	locale       *localization.Table
	tenants      TenantDirectory
	catalog      ServiceCatalog
	schedules    ScheduleStore
	appointments AppointmentBook
	clients      ClientDirectory
	decider      Decider
	clock        availability.Clock
	metrics      *metrics.BookingMetrics
	granularity  time.Duration
	windowMonths int
	defaultLang  string
	locks        *sessionLocks
	logger       *logging.Logger
}

// NewController wires the conversation controller.
func NewController(cfg ControllerConfig) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = availability.SystemClock{}
	}
	if cfg.Granularity <= 0 {
		cfg.Granularity = 30 * time.Minute
	}
	if cfg.WindowMonths < 0 {
		cfg.WindowMonths = 0
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Controller{
		states:       cfg.States,
		gateway:      cfg.Gateway,
		locale:       cfg.Locale,
		tenants:      cfg.Tenants,
		catalog:      cfg.Catalog,
		schedules:    cfg.Schedules,
		appointments: cfg.Appointments,
		clients:      cfg.Clients,
		decider:      cfg.Decider,
		clock:        cfg.Clock,
		metrics:      cfg.Metrics,
		granularity:  cfg.Granularity,
		windowMonths: cfg.WindowMonths,
		defaultLang:  cfg.DefaultLanguage,
		locks:        newSessionLocks(),
		logger:       cfg.Logger,
	}
}

// OnMessage handles a free-text message from a chat.
func (c *Controller) OnMessage(ctx context.Context, chatID int64, text string) error {
	unlock := c.locks.lock(chatID)
	defer unlock()

	client, err := c.clients.Ensure(ctx, chatID, c.defaultLang, "UTC")
	if err != nil {
		c.logger.Error("failed to register chat client", "chat_id", chatID, "error", err)
		return fmt.Errorf("conversation: failed to register client: %w", err)
	}
	lang := client.Language

	switch strings.ToLower(strings.TrimSpace(text)) {
	case "book", "/book", "/start":
		return c.observeStep("book", c.startBooking(ctx, chatID, lang))
	case "setup", "/setup":
		return c.observeStep("setup", c.startSetup(ctx, chatID, lang))
	}

	step, err := c.states.Load(ctx, chatID)
	if err != nil {
		return c.fail(ctx, chatID, lang, "load state", err)
	}

	switch s := step.(type) {
	case SettingWorkTime:
		return c.onWorkHoursText(ctx, chatID, lang, s, text)
	case AddingBreak:
		return c.onBreakText(ctx, chatID, lang, s, text)
	default:
		c.send(ctx, chatID, lang, "invalid_input")
		return nil
	}
}

// OnCallback handles a button press. The callback string is
// "command:payload"; the command routes, the payload parameterizes.
func (c *Controller) OnCallback(ctx context.Context, chatID int64, callback string) error {
	unlock := c.locks.lock(chatID)
	defer unlock()

	client, err := c.clients.Ensure(ctx, chatID, c.defaultLang, "UTC")
	if err != nil {
		c.logger.Error("failed to register chat client", "chat_id", chatID, "error", err)
		return fmt.Errorf("conversation: failed to register client: %w", err)
	}
	lang := client.Language

	command, data := messaging.ParseCallback(callback)
	return c.observeStep(command, c.dispatchCallback(ctx, chatID, lang, client, command, data))
}

// observeStep records the outcome of one handled step. Each update counts
// exactly once, at the entry point, regardless of which handlers it reaches.
func (c *Controller) observeStep(command string, err error) error {
	if err != nil {
		c.metrics.ObserveStep(command, "error")
		return err
	}
	c.metrics.ObserveStep(command, "ok")
	return nil
}

func (c *Controller) dispatchCallback(ctx context.Context, chatID int64, lang string, client *clients.Client, command, data string) error {
	switch command {
	case "noop":
		return nil
	case "tenant":
		return c.onTenantPick(ctx, chatID, lang, data)
	case "service":
		return c.onServicePick(ctx, chatID, lang, data)
	case "calnav":
		return c.onMonthNav(ctx, chatID, lang, data)
	case "day":
		return c.onDayPick(ctx, chatID, lang, data)
	case "time":
		return c.onTimePick(ctx, chatID, lang, client, data)
	case "back":
		return c.onBack(ctx, chatID, lang, data)
	case "workday":
		return c.onWorkdayPick(ctx, chatID, lang, data)
	case "breaks":
		return c.onBreaksMenu(ctx, chatID, lang, data)
	case "breakdel":
		return c.onBreakDelete(ctx, chatID, lang, data)
	case "confirm":
		return c.onDecision(ctx, chatID, lang, data, c.decider.Confirm)
	case "reject":
		return c.onDecision(ctx, chatID, lang, data, c.decider.Reject)
	default:
		c.send(ctx, chatID, lang, "invalid_input")
		return nil
	}
}

// startBooking opens the client flow with the tenant list.
func (c *Controller) startBooking(ctx context.Context, chatID int64, lang string) error {
	tenants, err := c.tenants.List(ctx)
	if err != nil {
		return c.fail(ctx, chatID, lang, "list tenants", err)
	}
	if len(tenants) == 0 {
		c.send(ctx, chatID, lang, "no_tenants")
		return nil
	}
	if err := c.states.Save(ctx, chatID, SelectingTenant{}); err != nil {
		return c.fail(ctx, chatID, lang, "save state", err)
	}
	c.sendButtons(ctx, chatID, lang, "choose_tenant", tenantKeyboard(tenants))
	return nil
}

func (c *Controller) onTenantPick(ctx context.Context, chatID int64, lang, data string) error {
	tenantID, err := uuid.Parse(data)
	if err != nil {
		c.send(ctx, chatID, lang, "invalid_input")
		return nil
	}
	tenant, err := c.tenants.Get(ctx, tenantID)
	if errors.Is(err, tenancy.ErrNotFound) {
		return c.expireSession(ctx, chatID, lang)
	}
	if err != nil {
		return c.fail(ctx, chatID, lang, "load tenant", err)
	}
	return c.showServices(ctx, chatID, lang, tenant.ID)
}

// showServices lists a tenant's services and moves to SelectingService.
func (c *Controller) showServices(ctx context.Context, chatID int64, lang string, tenantID uuid.UUID) error {
	employee, err := c.tenants.EmployeeForTenant(ctx, tenantID)
	if errors.Is(err, tenancy.ErrNotFound) {
		return c.expireSession(ctx, chatID, lang)
	}
	if err != nil {
		return c.fail(ctx, chatID, lang, "load employee", err)
	}
	services, err := c.catalog.ForEmployee(ctx, employee.ID)
	if err != nil {
		return c.fail(ctx, chatID, lang, "list services", err)
	}
	if len(services) == 0 {
		c.send(ctx, chatID, lang, "no_services")
		return nil
	}
	if err := c.states.Save(ctx, chatID, SelectingService{TenantID: tenantID}); err != nil {
		return c.fail(ctx, chatID, lang, "save state", err)
	}
	c.sendButtons(ctx, chatID, lang, "choose_service", serviceKeyboard(services, c.backButton(lang, "tenants")))
	return nil
}

func (c *Controller) onServicePick(ctx context.Context, chatID int64, lang, data string) error {
	serviceID, err := uuid.Parse(data)
	if err != nil {
		c.send(ctx, chatID, lang, "invalid_input")
		return nil
	}
	svc, err := c.catalog.Get(ctx, serviceID)
	if errors.Is(err, catalog.ErrNotFound) {
		return c.expireSession(ctx, chatID, lang)
	}
	if err != nil {
		return c.fail(ctx, chatID, lang, "load service", err)
	}
	now := c.clock.Now()
	return c.showCalendar(ctx, chatID, lang, svc, now.Year(), now.Month())
}

// showCalendar renders one month for a service and moves to SelectingDate.
func (c *Controller) showCalendar(ctx context.Context, chatID int64, lang string, svc *catalog.Service, year int, month time.Month) error {
	view, err := c.buildMonth(ctx, svc, year, month)
	if errors.Is(err, calendar.ErrOutOfRange) {
		c.send(ctx, chatID, lang, "out_of_range")
		return nil
	}
	if err != nil {
		return c.fail(ctx, chatID, lang, "build calendar", err)
	}
	if err := c.states.Save(ctx, chatID, SelectingDate{ServiceID: svc.ID, Year: year, Month: month}); err != nil {
		return c.fail(ctx, chatID, lang, "save state", err)
	}
	c.sendButtons(ctx, chatID, lang, "choose_date", c.calendarKeyboard(lang, view))
	return nil
}

func (c *Controller) buildMonth(ctx context.Context, svc *catalog.Service, year int, month time.Month) (*calendar.MonthView, error) {
	weekly, err := c.schedules.Weekly(ctx, svc.EmployeeID)
	if err != nil {
		return nil, err
	}
	breaks := make(map[time.Weekday][]schedule.BreakInterval, len(weekly))
	for weekday, work := range weekly {
		bs, err := c.schedules.BreaksFor(ctx, work.ID)
		if err != nil {
			return nil, err
		}
		breaks[weekday] = bs
	}

	// Pad the month bounds by a day on each side so timezone skew cannot
	// hide a booking whose UTC instant falls outside the local month.
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	to := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 1)
	booked, err := c.appointments.ForEmployeeBetween(ctx, svc.EmployeeID, from, to)
	if err != nil {
		return nil, err
	}

	return calendar.BuildMonth(calendar.Input{
		Schedule:        weekly,
		Breaks:          breaks,
		Bookings:        toBookings(booked),
		Year:            year,
		Month:           month,
		ServiceDuration: svc.Duration(),
		Granularity:     c.granularity,
		NowUTC:          c.clock.Now(),
		WindowMonths:    c.windowMonths,
	})
}

func (c *Controller) onMonthNav(ctx context.Context, chatID int64, lang, data string) error {
	step, err := c.states.Load(ctx, chatID)
	if err != nil {
		return c.fail(ctx, chatID, lang, "load state", err)
	}
	current, ok := step.(SelectingDate)
	if !ok {
		return c.expireSession(ctx, chatID, lang)
	}
	year, month, err := parseMonth(data)
	if err != nil {
		c.send(ctx, chatID, lang, "invalid_input")
		return nil
	}
	svc, err := c.catalog.Get(ctx, current.ServiceID)
	if errors.Is(err, catalog.ErrNotFound) {
		return c.expireSession(ctx, chatID, lang)
	}
	if err != nil {
		return c.fail(ctx, chatID, lang, "load service", err)
	}
	return c.showCalendar(ctx, chatID, lang, svc, year, month)
}

func (c *Controller) onDayPick(ctx context.Context, chatID int64, lang, data string) error {
	step, err := c.states.Load(ctx, chatID)
	if err != nil {
		return c.fail(ctx, chatID, lang, "load state", err)
	}
	current, ok := step.(SelectingDate)
	if !ok {
		return c.expireSession(ctx, chatID, lang)
	}
	date, err := time.Parse("2006-01-02", data)
	if err != nil {
		c.send(ctx, chatID, lang, "invalid_input")
		return nil
	}
	svc, err := c.catalog.Get(ctx, current.ServiceID)
	if errors.Is(err, catalog.ErrNotFound) {
		return c.expireSession(ctx, chatID, lang)
	}
	if err != nil {
		return c.fail(ctx, chatID, lang, "load service", err)
	}

	slots, err := c.slotsForDay(ctx, svc, date.Year(), date.Month(), date.Day())
	if err != nil {
		return c.fail(ctx, chatID, lang, "compute slots", err)
	}
	if len(slots) == 0 {
		c.send(ctx, chatID, lang, "no_slots")
		return nil
	}
	next := SelectingTime{ServiceID: svc.ID, Year: date.Year(), Month: date.Month(), Day: date.Day()}
	if err := c.states.Save(ctx, chatID, next); err != nil {
		return c.fail(ctx, chatID, lang, "save state", err)
	}
	c.metrics.ObserveSlotsOffered(len(slots))
	text := c.locale.Get(lang, "choose_time", svc.Name, formatDate(next.Year, next.Month, next.Day))
	c.sendRaw(ctx, chatID, text, c.slotKeyboard(lang, slots))
	return nil
}

// slotsForDay computes the offerable start times of one day. A weekday
// without working hours yields no slots rather than an error.
func (c *Controller) slotsForDay(ctx context.Context, svc *catalog.Service, year int, month time.Month, day int) ([]availability.Slot, error) {
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	work, err := c.schedules.WorkIntervalForDay(ctx, svc.EmployeeID, date.Weekday())
	if errors.Is(err, schedule.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	breaks, err := c.schedules.BreaksFor(ctx, work.ID)
	if err != nil {
		return nil, err
	}
	booked, err := c.appointments.ForEmployeeBetween(ctx, svc.EmployeeID,
		date.AddDate(0, 0, -1), date.AddDate(0, 0, 2))
	if err != nil {
		return nil, err
	}
	return availability.ComputeSlots(work, breaks, toBookings(booked),
		year, month, day, svc.Duration(), c.granularity, c.clock.Now())
}

func (c *Controller) onTimePick(ctx context.Context, chatID int64, lang string, client *clients.Client, data string) error {
	step, err := c.states.Load(ctx, chatID)
	if err != nil {
		return c.fail(ctx, chatID, lang, "load state", err)
	}
	current, ok := step.(SelectingTime)
	if !ok {
		return c.expireSession(ctx, chatID, lang)
	}
	minute, err := strconv.Atoi(data)
	if err != nil || minute < 0 || minute >= 24*60 {
		c.send(ctx, chatID, lang, "invalid_input")
		return nil
	}
	svc, err := c.catalog.Get(ctx, current.ServiceID)
	if errors.Is(err, catalog.ErrNotFound) {
		return c.expireSession(ctx, chatID, lang)
	}
	if err != nil {
		return c.fail(ctx, chatID, lang, "load service", err)
	}

	// The offer is recomputed at booking time. The callback is
	// client-controlled input, and the schedule, breaks, or bookings may
	// all have changed since the buttons were rendered; only a minute that
	// is offerable right now may book.
	slots, err := c.slotsForDay(ctx, svc, current.Year, current.Month, current.Day)
	if err != nil {
		return c.fail(ctx, chatID, lang, "compute slots", err)
	}
	offered := findSlot(slots, minute)
	if offered == nil {
		c.metrics.ObserveConflict()
		return c.presentReoffer(ctx, chatID, lang, svc, current, slots)
	}

	appt, err := c.appointments.Create(ctx, svc.ID, svc.EmployeeID, client.ID, offered.StartUTC)
	if errors.Is(err, appointments.ErrSlotTaken) {
		c.metrics.ObserveConflict()
		return c.reofferSlots(ctx, chatID, lang, svc, current)
	}
	if err != nil {
		return c.fail(ctx, chatID, lang, "create appointment", err)
	}
	if err := c.states.Clear(ctx, chatID); err != nil {
		c.logger.Warn("failed to clear state after booking", "chat_id", chatID, "error", err)
	}
	c.metrics.ObserveAppointment("created")

	dateStr := formatDate(current.Year, current.Month, current.Day)
	timeStr := schedule.FormatClock(minute)
	c.send(ctx, chatID, lang, "booking_created", svc.Name, dateStr, timeStr)
	c.notifyOwner(ctx, svc, appt.ID, dateStr, timeStr)
	return nil
}

// findSlot locates the offered slot starting at the given local minute.
func findSlot(slots []availability.Slot, minute int) *availability.Slot {
	for i := range slots {
		if slots[i].StartMinute == minute {
			return &slots[i]
		}
	}
	return nil
}

// reofferSlots recomputes a day's free times after a lost write race and
// keeps the session in time selection so the client can pick again.
func (c *Controller) reofferSlots(ctx context.Context, chatID int64, lang string, svc *catalog.Service, current SelectingTime) error {
	slots, err := c.slotsForDay(ctx, svc, current.Year, current.Month, current.Day)
	if err != nil {
		return c.fail(ctx, chatID, lang, "compute slots", err)
	}
	return c.presentReoffer(ctx, chatID, lang, svc, current, slots)
}

// presentReoffer shows the still-free times after a pick could not book.
// A day with nothing left falls back to the calendar.
func (c *Controller) presentReoffer(ctx context.Context, chatID int64, lang string, svc *catalog.Service, current SelectingTime, slots []availability.Slot) error {
	if len(slots) == 0 {
		if err := c.states.Save(ctx, chatID, SelectingDate{ServiceID: svc.ID, Year: current.Year, Month: current.Month}); err != nil {
			return c.fail(ctx, chatID, lang, "save state", err)
		}
		c.send(ctx, chatID, lang, "no_slots")
		return nil
	}
	c.sendButtons(ctx, chatID, lang, "slot_taken", c.slotKeyboard(lang, slots))
	return nil
}

// notifyOwner asks the tenant owner to decide a freshly created booking.
// Delivery failure does not undo the booking.
func (c *Controller) notifyOwner(ctx context.Context, svc *catalog.Service, apptID uuid.UUID, dateStr, timeStr string) {
	employee, err := c.tenants.Employee(ctx, svc.EmployeeID)
	if err != nil {
		c.logger.Error("failed to resolve employee for owner notification", "appointment_id", apptID, "error", err)
		return
	}
	tenant, err := c.tenants.Get(ctx, employee.TenantID)
	if err != nil {
		c.logger.Error("failed to resolve tenant for owner notification", "appointment_id", apptID, "error", err)
		return
	}
	lang := c.defaultLang
	text := c.locale.Get(lang, "booking_pending_owner", svc.Name, dateStr, timeStr)
	buttons := [][]messaging.Button{{
		{Label: c.locale.Get(lang, "button_confirm"), Callback: messaging.FormatCallback("confirm", apptID.String())},
		{Label: c.locale.Get(lang, "button_reject"), Callback: messaging.FormatCallback("reject", apptID.String())},
	}}
	if _, err := c.gateway.SendMessage(ctx, tenant.OwnerChatID, text, buttons); err != nil {
		c.logger.Error("failed to notify owner", "appointment_id", apptID, "error", err)
	}
}

func (c *Controller) onBack(ctx context.Context, chatID int64, lang, data string) error {
	switch data {
	case "tenants":
		return c.startBooking(ctx, chatID, lang)
	case "services":
		step, err := c.states.Load(ctx, chatID)
		if err != nil {
			return c.fail(ctx, chatID, lang, "load state", err)
		}
		serviceID, ok := serviceOf(step)
		if !ok {
			return c.expireSession(ctx, chatID, lang)
		}
		svc, err := c.catalog.Get(ctx, serviceID)
		if errors.Is(err, catalog.ErrNotFound) {
			return c.expireSession(ctx, chatID, lang)
		}
		if err != nil {
			return c.fail(ctx, chatID, lang, "load service", err)
		}
		employee, err := c.tenants.Employee(ctx, svc.EmployeeID)
		if err != nil {
			return c.fail(ctx, chatID, lang, "load employee", err)
		}
		return c.showServices(ctx, chatID, lang, employee.TenantID)
	case "calendar":
		step, err := c.states.Load(ctx, chatID)
		if err != nil {
			return c.fail(ctx, chatID, lang, "load state", err)
		}
		current, ok := step.(SelectingTime)
		if !ok {
			return c.expireSession(ctx, chatID, lang)
		}
		svc, err := c.catalog.Get(ctx, current.ServiceID)
		if errors.Is(err, catalog.ErrNotFound) {
			return c.expireSession(ctx, chatID, lang)
		}
		if err != nil {
			return c.fail(ctx, chatID, lang, "load service", err)
		}
		return c.showCalendar(ctx, chatID, lang, svc, current.Year, current.Month)
	default:
		c.send(ctx, chatID, lang, "invalid_input")
		return nil
	}
}

func (c *Controller) onDecision(ctx context.Context, chatID int64, lang, data string, apply func(context.Context, uuid.UUID, int64) error) error {
	apptID, err := uuid.Parse(data)
	if err != nil {
		c.send(ctx, chatID, lang, "invalid_input")
		return nil
	}
	err = apply(ctx, apptID, chatID)
	switch {
	case errors.Is(err, appointments.ErrNotFound):
		c.send(ctx, chatID, lang, "appointment_missing")
		return nil
	case errors.Is(err, appointments.ErrInvalidTransition):
		c.send(ctx, chatID, lang, "already_decided")
		return nil
	case err != nil:
		return c.fail(ctx, chatID, lang, "apply decision", err)
	}
	return nil
}

// serviceOf extracts the service a calendar-era step refers to.
func serviceOf(step Step) (uuid.UUID, bool) {
	switch s := step.(type) {
	case SelectingDate:
		return s.ServiceID, true
	case SelectingTime:
		return s.ServiceID, true
	}
	return uuid.Nil, false
}

func toBookings(slots []appointments.BookedSlot) []availability.Booking {
	bookings := make([]availability.Booking, 0, len(slots))
	for _, s := range slots {
		bookings = append(bookings, availability.Booking{
			StartUTC: s.StartUTC,
			Duration: time.Duration(s.DurationMinutes) * time.Minute,
		})
	}
	return bookings
}

// expireSession clears a session whose referenced data no longer resolves
// and tells the user to start over.
func (c *Controller) expireSession(ctx context.Context, chatID int64, lang string) error {
	if err := c.states.Clear(ctx, chatID); err != nil {
		c.logger.Warn("failed to clear expired session", "chat_id", chatID, "error", err)
	}
	c.send(ctx, chatID, lang, "session_expired")
	return nil
}

// fail reports an infrastructure error to the user generically and returns
// it for the caller's logs.
func (c *Controller) fail(ctx context.Context, chatID int64, lang, op string, err error) error {
	c.logger.Error("conversation step failed", "chat_id", chatID, "op", op, "error", err)
	c.send(ctx, chatID, lang, "generic_error")
	return fmt.Errorf("conversation: failed to %s: %w", op, err)
}

func (c *Controller) send(ctx context.Context, chatID int64, lang, key string, args ...any) {
	c.sendRaw(ctx, chatID, c.locale.Get(lang, key, args...), nil)
}

func (c *Controller) sendButtons(ctx context.Context, chatID int64, lang, key string, buttons [][]messaging.Button) {
	c.sendRaw(ctx, chatID, c.locale.Get(lang, key), buttons)
}

func (c *Controller) sendRaw(ctx context.Context, chatID int64, text string, buttons [][]messaging.Button) {
	if _, err := c.gateway.SendMessage(ctx, chatID, text, buttons); err != nil {
		c.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

func formatDate(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}
