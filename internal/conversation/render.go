package conversation

import (
	"fmt"

	"github.com/bookline/booking-platform/internal/availability"
	"github.com/bookline/booking-platform/internal/calendar"
	"github.com/bookline/booking-platform/internal/catalog"
	"github.com/bookline/booking-platform/internal/messaging"
	"github.com/bookline/booking-platform/internal/schedule"
	"github.com/bookline/booking-platform/internal/tenancy"
)

const slotsPerRow = 4

func tenantKeyboard(tenants []tenancy.Tenant) [][]messaging.Button {
	rows := make([][]messaging.Button, 0, len(tenants))
	for _, t := range tenants {
		rows = append(rows, []messaging.Button{{
			Label:    t.Name,
			Callback: messaging.FormatCallback("tenant", t.ID.String()),
		}})
	}
	return rows
}

func serviceKeyboard(services []catalog.Service, back messaging.Button) [][]messaging.Button {
	rows := make([][]messaging.Button, 0, len(services)+1)
	for _, s := range services {
		rows = append(rows, []messaging.Button{{
			Label:    fmt.Sprintf("%s (%d min)", s.Name, s.DurationMinutes),
			Callback: messaging.FormatCallback("service", s.ID.String()),
		}})
	}
	return append(rows, []messaging.Button{back})
}

// calendarKeyboard lays the month out in rows of seven days. Only available
// days carry a live callback; every other classification is inert so a press
// cannot advance the flow.
func (c *Controller) calendarKeyboard(lang string, view *calendar.MonthView) [][]messaging.Button {
	var rows [][]messaging.Button
	var row []messaging.Button
	for _, cell := range view.Days {
		btn := messaging.Button{Label: "·", Callback: "noop"}
		if cell.Class == calendar.DayAvailable {
			date := formatDate(view.Year, view.Month, cell.Day)
			btn = messaging.Button{
				Label:    fmt.Sprintf("%d", cell.Day),
				Callback: messaging.FormatCallback("day", date),
			}
		}
		if cell.Today {
			btn.Label = "[" + btn.Label + "]"
		}
		row = append(row, btn)
		if len(row) == 7 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	var nav []messaging.Button
	if view.CanPrev {
		prev := view.Month - 1
		year := view.Year
		if prev < 1 {
			prev = 12
			year--
		}
		nav = append(nav, messaging.Button{
			Label:    c.locale.Get(lang, "button_prev"),
			Callback: messaging.FormatCallback("calnav", fmt.Sprintf("%04d-%02d", year, int(prev))),
		})
	}
	if view.CanNext {
		next := view.Month + 1
		year := view.Year
		if next > 12 {
			next = 1
			year++
		}
		nav = append(nav, messaging.Button{
			Label:    c.locale.Get(lang, "button_next"),
			Callback: messaging.FormatCallback("calnav", fmt.Sprintf("%04d-%02d", year, int(next))),
		})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return append(rows, []messaging.Button{c.backButton(lang, "services")})
}

func (c *Controller) slotKeyboard(lang string, slots []availability.Slot) [][]messaging.Button {
	var rows [][]messaging.Button
	var row []messaging.Button
	for _, slot := range slots {
		row = append(row, messaging.Button{
			Label:    schedule.FormatClock(slot.StartMinute),
			Callback: messaging.FormatCallback("time", fmt.Sprintf("%d", slot.StartMinute)),
		})
		if len(row) == slotsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return append(rows, []messaging.Button{c.backButton(lang, "calendar")})
}

func (c *Controller) backButton(lang, target string) messaging.Button {
	return messaging.Button{
		Label:    c.locale.Get(lang, "button_back"),
		Callback: messaging.FormatCallback("back", target),
	}
}

func (c *Controller) weekdayName(lang string, weekday int) string {
	return c.locale.Get(lang, fmt.Sprintf("weekday_%d", weekday))
}
