package sync

import (
	"time"

	"github.com/git-seb/rental-sync-engine/internal/pms"
)

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// availableToday derives the storefront stock flag from a calendar payload.
// The payload stays opaque beyond this: we look for a day-entry list under
// the usual keys and read today's entry. No entry for today, or an empty
// calendar, counts as available.
func availableToday(payload map[string]any, day time.Time) bool {
	if len(payload) == 0 {
		return true
	}
	// Some providers send a plain list of open dates instead of day entries;
	// the day is available only when it appears in the list.
	if _, ok := payload["available_dates"]; ok {
		target := day.Format("2006-01-02")
		for _, d := range pms.StringsField(payload, "available_dates") {
			if d == target {
				return true
			}
		}
		return false
	}
	entries := calendarEntries(payload)
	for _, entry := range entries {
		if !sameDay(pms.DateField(entry, "date", "Date", "day"), day) {
			continue
		}
		if status := pms.StringField(entry, "status", "Status", "availability"); status != "" {
			return status == "available" || status == "Available"
		}
		if _, ok := entry["isAvailable"]; ok {
			return pms.BoolField(entry, "isAvailable")
		}
		if _, ok := entry["available"]; ok {
			return pms.BoolField(entry, "available")
		}
		if _, ok := entry["units"]; ok {
			return pms.IntField(entry, "units") > 0
		}
		return true
	}
	return true
}

func calendarEntries(payload map[string]any) []map[string]any {
	for _, key := range []string{"calendar", "days", "items", "result", "data", "Day", "CalDay"} {
		if entries := pms.ListField(payload, key); len(entries) > 0 {
			return entries
		}
		if nested := pms.MapField(payload, key); nested != nil {
			if entries := calendarEntries(nested); len(entries) > 0 {
				return entries
			}
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
