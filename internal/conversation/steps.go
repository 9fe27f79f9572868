package conversation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Step is one position in a multi-step chat flow. Steps are plain values;
// they serialize to the store as "<StepName>_<param>_<param>..." and only
// at that boundary, so illegal states are unrepresentable in code.
type Step interface {
	stepName() string
	params() []string
}

// Idle is the absence of a flow. It encodes to the empty string, which the
// store expresses by clearing the session key.
type Idle struct{}

func (Idle) stepName() string { return "" }
func (Idle) params() []string { return nil }

// SelectingTenant waits for the client to pick a business.
type SelectingTenant struct{}

func (SelectingTenant) stepName() string { return "SelectingTenant" }
func (SelectingTenant) params() []string { return nil }

// SelectingService waits for a service pick within a tenant.
type SelectingService struct {
	TenantID uuid.UUID
}

func (SelectingService) stepName() string { return "SelectingService" }
func (s SelectingService) params() []string {
	return []string{s.TenantID.String()}
}

// SelectingDate shows the calendar of one month for a service.
type SelectingDate struct {
	ServiceID uuid.UUID
	Year      int
	Month     time.Month
}

func (SelectingDate) stepName() string { return "SelectingDate" }
func (s SelectingDate) params() []string {
	return []string{s.ServiceID.String(), fmt.Sprintf("%04d-%02d", s.Year, int(s.Month))}
}

// SelectingTime shows the offerable start times of one day. The date stays
// encoded here because the time buttons carry only minutes since midnight.
type SelectingTime struct {
	ServiceID uuid.UUID
	Year      int
	Month     time.Month
	Day       int
}

func (SelectingTime) stepName() string { return "SelectingTime" }
func (s SelectingTime) params() []string {
	return []string{s.ServiceID.String(), fmt.Sprintf("%04d-%02d-%02d", s.Year, int(s.Month), s.Day)}
}

// SettingWorkTime waits for the owner to send working hours for a weekday.
type SettingWorkTime struct {
	EmployeeID uuid.UUID
	Weekday    time.Weekday
}

func (SettingWorkTime) stepName() string { return "SettingWorkTime" }
func (s SettingWorkTime) params() []string {
	return []string{s.EmployeeID.String(), strconv.Itoa(int(s.Weekday))}
}

// AddingBreak waits for the owner to send a break range for a weekday.
type AddingBreak struct {
	EmployeeID uuid.UUID
	Weekday    time.Weekday
}

func (AddingBreak) stepName() string { return "AddingBreak" }
func (s AddingBreak) params() []string {
	return []string{s.EmployeeID.String(), strconv.Itoa(int(s.Weekday))}
}

// EncodeStep renders a step into its stored string form.
func EncodeStep(step Step) string {
	name := step.stepName()
	if name == "" {
		return ""
	}
	parts := append([]string{name}, step.params()...)
	return strings.Join(parts, "_")
}

// DecodeStep parses a stored state string back into a step. The first
// underscore-delimited token routes; the rest are positional parameters.
func DecodeStep(encoded string) (Step, error) {
	if encoded == "" {
		return Idle{}, nil
	}
	parts := strings.Split(encoded, "_")
	name, args := parts[0], parts[1:]

	switch name {
	case "SelectingTenant":
		return SelectingTenant{}, nil

	case "SelectingService":
		if len(args) != 1 {
			return nil, decodeErr(encoded)
		}
		tenantID, err := uuid.Parse(args[0])
		if err != nil {
			return nil, decodeErr(encoded)
		}
		return SelectingService{TenantID: tenantID}, nil

	case "SelectingDate":
		if len(args) != 2 {
			return nil, decodeErr(encoded)
		}
		serviceID, err := uuid.Parse(args[0])
		if err != nil {
			return nil, decodeErr(encoded)
		}
		year, month, err := parseMonth(args[1])
		if err != nil {
			return nil, decodeErr(encoded)
		}
		return SelectingDate{ServiceID: serviceID, Year: year, Month: month}, nil

	case "SelectingTime":
		if len(args) != 2 {
			return nil, decodeErr(encoded)
		}
		serviceID, err := uuid.Parse(args[0])
		if err != nil {
			return nil, decodeErr(encoded)
		}
		date, err := time.Parse("2006-01-02", args[1])
		if err != nil {
			return nil, decodeErr(encoded)
		}
		return SelectingTime{ServiceID: serviceID, Year: date.Year(), Month: date.Month(), Day: date.Day()}, nil

	case "SettingWorkTime", "AddingBreak":
		if len(args) != 2 {
			return nil, decodeErr(encoded)
		}
		employeeID, err := uuid.Parse(args[0])
		if err != nil {
			return nil, decodeErr(encoded)
		}
		day, err := strconv.Atoi(args[1])
		if err != nil || day < 0 || day > 6 {
			return nil, decodeErr(encoded)
		}
		if name == "SettingWorkTime" {
			return SettingWorkTime{EmployeeID: employeeID, Weekday: time.Weekday(day)}, nil
		}
		return AddingBreak{EmployeeID: employeeID, Weekday: time.Weekday(day)}, nil
	}
	return nil, decodeErr(encoded)
}

func parseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, err
	}
	return t.Year(), t.Month(), nil
}

func decodeErr(encoded string) error {
	return fmt.Errorf("conversation: undecodable state %q", encoded)
}
