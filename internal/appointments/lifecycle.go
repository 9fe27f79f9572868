package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bookline/booking-platform/internal/catalog"
	"github.com/bookline/booking-platform/internal/clients"
	"github.com/bookline/booking-platform/internal/localization"
	"github.com/bookline/booking-platform/internal/messaging"
	"github.com/bookline/booking-platform/internal/observability/metrics"
	"github.com/bookline/booking-platform/internal/tenancy"
	"github.com/bookline/booking-platform/pkg/logging"
)

// Store is the repository subset the lifecycle needs.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatusIfPending(ctx context.Context, id uuid.UUID, next Status) (bool, error)
}

// ServiceCatalog resolves services for notification rendering.
type ServiceCatalog interface {
	Get(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
}

// ClientDirectory resolves clients for notification rendering.
type ClientDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*clients.Client, error)
}

// TenantDirectory resolves tenants and employees.
type TenantDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*tenancy.Tenant, error)
	Employee(ctx context.Context, id uuid.UUID) (*tenancy.Employee, error)
}

// Lifecycle applies confirm/reject transitions and triggers the
// timezone-localized notifications that follow them.
type Lifecycle struct {
	store   Store
	catalog ServiceCatalog
	clients ClientDirectory
	tenants TenantDirectory
	gateway messaging.Gateway
	locale  *localization.Table
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewLifecycle wires the lifecycle manager.
func NewLifecycle(
	store Store,
	serviceCatalog ServiceCatalog,
	clientDirectory ClientDirectory,
	tenantDirectory TenantDirectory,
	gateway messaging.Gateway,
	locale *localization.Table,
	bookingMetrics *metrics.BookingMetrics,
	logger *logging.Logger,
) *Lifecycle {
	if logger == nil {
		logger = logging.Default()
	}
	return &Lifecycle{
		store:   store,
		catalog: serviceCatalog,
		clients: clientDirectory,
		tenants: tenantDirectory,
		gateway: gateway,
		locale:  locale,
		metrics: bookingMetrics,
		logger:  logger,
	}
}

// Confirm moves a pending appointment to confirmed, then notifies the client
// (localized to the client's timezone), pushes the tenant's location when one
// is set, and acknowledges the confirming actor. The status write is
// authoritative; every notification is best-effort.
func (l *Lifecycle) Confirm(ctx context.Context, id uuid.UUID, actorChatID int64) error {
	return l.transition(ctx, id, actorChatID, StatusConfirmed)
}

// Reject is the symmetric transition, without the location push.
func (l *Lifecycle) Reject(ctx context.Context, id uuid.UUID, actorChatID int64) error {
	return l.transition(ctx, id, actorChatID, StatusRejected)
}

func (l *Lifecycle) transition(ctx context.Context, id uuid.UUID, actorChatID int64, next Status) error {
	appt, err := l.store.Get(ctx, id)
	if err != nil {
		return err
	}

	moved, err := l.store.UpdateStatusIfPending(ctx, id, next)
	if err != nil {
		return err
	}
	if !moved {
		return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, appt.Status)
	}

	l.metrics.ObserveAppointment(string(next))
	l.notify(ctx, appt, next, actorChatID)
	return nil
}

// notify fans out the post-transition messages. Failures are logged and
// swallowed: the transition already happened and must not be rolled back.
func (l *Lifecycle) notify(ctx context.Context, appt *Appointment, next Status, actorChatID int64) {
	client, err := l.clients.Get(ctx, appt.ClientID)
	if err != nil {
		l.logger.Error("lifecycle: load client for notification", "error", err, "appointment_id", appt.ID)
		client = nil
	}

	var serviceName string
	if service, err := l.catalog.Get(ctx, appt.ServiceID); err != nil {
		l.logger.Error("lifecycle: load service for notification", "error", err, "appointment_id", appt.ID)
		serviceName = "?"
	} else {
		serviceName = service.Name
	}

	if client != nil {
		dateStr, timeStr := l.renderInstant(appt.BookingAt, client.Timezone)
		key := "appointment_confirmed"
		if next == StatusRejected {
			key = "appointment_rejected"
		}
		text := l.locale.Get(client.Language, key, serviceName, dateStr, timeStr)
		if _, err := l.gateway.SendMessage(ctx, client.ChatID, text, nil); err != nil {
			l.logger.Error("lifecycle: notify client", "error", err, "appointment_id", appt.ID)
		}

		if next == StatusConfirmed {
			l.pushLocation(ctx, appt, client)
		}
	}

	ackKey := "confirm_ack"
	if next == StatusRejected {
		ackKey = "reject_ack"
	}
	if _, err := l.gateway.SendMessage(ctx, actorChatID, l.locale.Get("", ackKey), nil); err != nil {
		l.logger.Error("lifecycle: acknowledge actor", "error", err, "appointment_id", appt.ID)
	}
}

func (l *Lifecycle) pushLocation(ctx context.Context, appt *Appointment, client *clients.Client) {
	employee, err := l.tenants.Employee(ctx, appt.EmployeeID)
	if err != nil {
		l.logger.Error("lifecycle: load employee for location push", "error", err, "appointment_id", appt.ID)
		return
	}
	tenant, err := l.tenants.Get(ctx, employee.TenantID)
	if err != nil {
		l.logger.Error("lifecycle: load tenant for location push", "error", err, "appointment_id", appt.ID)
		return
	}
	if !tenant.HasLocation() {
		return
	}
	coords := fmt.Sprintf("%f,%f", *tenant.Latitude, *tenant.Longitude)
	text := l.locale.Get(client.Language, "location_follows", coords)
	if _, err := l.gateway.SendMessage(ctx, client.ChatID, text, nil); err != nil {
		l.logger.Error("lifecycle: push location", "error", err, "appointment_id", appt.ID)
	}
}

// renderInstant formats the UTC booking instant in the client's timezone,
// degrading to UTC when the stored zone cannot be loaded.
func (l *Lifecycle) renderInstant(bookingAt time.Time, timezone string) (dateStr, timeStr string) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		l.logger.Warn("lifecycle: unknown client timezone", "timezone", timezone)
		loc = time.UTC
	}
	local := bookingAt.In(loc)
	return local.Format("Mon, 02 Jan 2006"), local.Format("15:04")
}
