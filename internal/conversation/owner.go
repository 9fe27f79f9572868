package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookline/booking-platform/internal/messaging"
	"github.com/bookline/booking-platform/internal/schedule"
	"github.com/bookline/booking-platform/internal/tenancy"
)

// startSetup opens the schedule setup flow for a tenant owner. Chats that
// own no tenant are turned away without revealing the command exists.
func (c *Controller) startSetup(ctx context.Context, chatID int64, lang string) error {
	if _, err := c.ownerTenant(ctx, chatID); err != nil {
		if errors.Is(err, tenancy.ErrNotFound) {
			c.send(ctx, chatID, lang, "invalid_input")
			return nil
		}
		return c.fail(ctx, chatID, lang, "resolve owner", err)
	}
	c.sendButtons(ctx, chatID, lang, "setup_choose_day", c.weekdayKeyboard(lang))
	return nil
}

// weekdayKeyboard offers one button per day, hours on the left and the
// break menu on the right.
func (c *Controller) weekdayKeyboard(lang string) [][]messaging.Button {
	rows := make([][]messaging.Button, 0, 7)
	for d := 0; d < 7; d++ {
		rows = append(rows, []messaging.Button{
			{Label: c.weekdayName(lang, d), Callback: messaging.FormatCallback("workday", strconv.Itoa(d))},
			{Label: "☕", Callback: messaging.FormatCallback("breaks", strconv.Itoa(d))},
		})
	}
	return rows
}

func (c *Controller) onWorkdayPick(ctx context.Context, chatID int64, lang, data string) error {
	employee, weekday, err := c.ownerTarget(ctx, chatID, lang, data)
	if err != nil || employee == nil {
		return err
	}
	next := SettingWorkTime{EmployeeID: employee.ID, Weekday: weekday}
	if err := c.states.Save(ctx, chatID, next); err != nil {
		return c.fail(ctx, chatID, lang, "save state", err)
	}
	text := c.locale.Get(lang, "setup_enter_hours", c.weekdayName(lang, int(weekday)))
	c.sendRaw(ctx, chatID, text, nil)
	return nil
}

// onWorkHoursText consumes "HH:MM-HH:MM <IANA zone>" while SettingWorkTime.
func (c *Controller) onWorkHoursText(ctx context.Context, chatID int64, lang string, current SettingWorkTime, text string) error {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) != 2 {
		c.send(ctx, chatID, lang, "invalid_time_range")
		return nil
	}
	start, end, err := schedule.ParseClockRange(fields[0])
	if err != nil {
		c.send(ctx, chatID, lang, "invalid_time_range")
		return nil
	}
	timezone := fields[1]
	if _, err := time.LoadLocation(timezone); err != nil {
		c.send(ctx, chatID, lang, "unknown_timezone")
		return nil
	}
	work, err := schedule.NewWorkInterval(current.EmployeeID, current.Weekday, start, end, timezone)
	if err != nil {
		c.send(ctx, chatID, lang, "invalid_time_range")
		return nil
	}
	if err := c.schedules.UpsertWorkInterval(ctx, work); err != nil {
		return c.fail(ctx, chatID, lang, "save work interval", err)
	}
	if err := c.states.Clear(ctx, chatID); err != nil {
		c.logger.Warn("failed to clear state after setup", "chat_id", chatID, "error", err)
	}
	c.send(ctx, chatID, lang, "hours_saved",
		c.weekdayName(lang, int(current.Weekday)),
		schedule.FormatClock(start), schedule.FormatClock(end), timezone)
	return nil
}

func (c *Controller) onBreaksMenu(ctx context.Context, chatID int64, lang, data string) error {
	employee, weekday, err := c.ownerTarget(ctx, chatID, lang, data)
	if err != nil || employee == nil {
		return err
	}
	work, err := c.schedules.WorkIntervalForDay(ctx, employee.ID, weekday)
	if errors.Is(err, schedule.ErrNotFound) {
		c.send(ctx, chatID, lang, "workday_missing")
		return nil
	}
	if err != nil {
		return c.fail(ctx, chatID, lang, "load work interval", err)
	}
	breaks, err := c.schedules.BreaksFor(ctx, work.ID)
	if err != nil {
		return c.fail(ctx, chatID, lang, "list breaks", err)
	}
	next := AddingBreak{EmployeeID: employee.ID, Weekday: weekday}
	if err := c.states.Save(ctx, chatID, next); err != nil {
		return c.fail(ctx, chatID, lang, "save state", err)
	}
	text := c.locale.Get(lang, "breaks_intro", c.weekdayName(lang, int(weekday)))
	c.sendRaw(ctx, chatID, text, breakKeyboard(breaks))
	return nil
}

func breakKeyboard(breaks []schedule.BreakInterval) [][]messaging.Button {
	rows := make([][]messaging.Button, 0, len(breaks))
	for _, b := range breaks {
		label := fmt.Sprintf("%s-%s ✖", schedule.FormatClock(b.StartMinute), schedule.FormatClock(b.EndMinute))
		rows = append(rows, []messaging.Button{{
			Label:    label,
			Callback: messaging.FormatCallback("breakdel", b.ID.String()),
		}})
	}
	return rows
}

// onBreakText consumes "HH:MM-HH:MM" while AddingBreak. The session stays
// in AddingBreak so several breaks can be added in a row.
func (c *Controller) onBreakText(ctx context.Context, chatID int64, lang string, current AddingBreak, text string) error {
	start, end, err := schedule.ParseClockRange(strings.TrimSpace(text))
	if err != nil {
		c.send(ctx, chatID, lang, "invalid_time_range")
		return nil
	}
	work, err := c.schedules.WorkIntervalForDay(ctx, current.EmployeeID, current.Weekday)
	if errors.Is(err, schedule.ErrNotFound) {
		if err := c.states.Clear(ctx, chatID); err != nil {
			c.logger.Warn("failed to clear state", "chat_id", chatID, "error", err)
		}
		c.send(ctx, chatID, lang, "workday_missing")
		return nil
	}
	if err != nil {
		return c.fail(ctx, chatID, lang, "load work interval", err)
	}
	existing, err := c.schedules.BreaksFor(ctx, work.ID)
	if err != nil {
		return c.fail(ctx, chatID, lang, "list breaks", err)
	}
	brk, err := schedule.NewBreakInterval(work, existing, start, end)
	switch {
	case errors.Is(err, schedule.ErrBreakOutsideWork):
		c.send(ctx, chatID, lang, "break_outside")
		return nil
	case errors.Is(err, schedule.ErrBreakOverlap):
		c.send(ctx, chatID, lang, "break_overlap")
		return nil
	case err != nil:
		c.send(ctx, chatID, lang, "invalid_time_range")
		return nil
	}
	if err := c.schedules.AddBreak(ctx, brk); err != nil {
		return c.fail(ctx, chatID, lang, "save break", err)
	}
	c.send(ctx, chatID, lang, "break_saved",
		schedule.FormatClock(start), schedule.FormatClock(end))
	return nil
}

func (c *Controller) onBreakDelete(ctx context.Context, chatID int64, lang, data string) error {
	if _, err := c.ownerTenant(ctx, chatID); err != nil {
		if errors.Is(err, tenancy.ErrNotFound) {
			c.send(ctx, chatID, lang, "invalid_input")
			return nil
		}
		return c.fail(ctx, chatID, lang, "resolve owner", err)
	}
	breakID, err := uuid.Parse(data)
	if err != nil {
		c.send(ctx, chatID, lang, "invalid_input")
		return nil
	}
	removed, err := c.schedules.RemoveBreak(ctx, breakID)
	if err != nil {
		return c.fail(ctx, chatID, lang, "remove break", err)
	}
	if !removed {
		c.send(ctx, chatID, lang, "break_missing")
		return nil
	}
	c.send(ctx, chatID, lang, "break_removed")
	return nil
}

// ownerTarget resolves the employee and weekday an owner callback targets.
// A nil employee with a nil error means the user was already answered.
func (c *Controller) ownerTarget(ctx context.Context, chatID int64, lang, data string) (*tenancy.Employee, time.Weekday, error) {
	day, err := strconv.Atoi(data)
	if err != nil || day < 0 || day > 6 {
		c.send(ctx, chatID, lang, "invalid_input")
		return nil, 0, nil
	}
	tenant, err := c.ownerTenant(ctx, chatID)
	if errors.Is(err, tenancy.ErrNotFound) {
		c.send(ctx, chatID, lang, "invalid_input")
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, c.fail(ctx, chatID, lang, "resolve owner", err)
	}
	employee, err := c.tenants.EmployeeForTenant(ctx, tenant.ID)
	if errors.Is(err, tenancy.ErrNotFound) {
		c.send(ctx, chatID, lang, "invalid_input")
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, c.fail(ctx, chatID, lang, "load employee", err)
	}
	return employee, time.Weekday(day), nil
}

func (c *Controller) ownerTenant(ctx context.Context, chatID int64) (*tenancy.Tenant, error) {
	return c.tenants.ByOwnerChat(ctx, chatID)
}
