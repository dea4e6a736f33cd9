package recommend

import (
	"fmt"
	"strings"
	"time"
)

// FormatTime renders "14:30" as "2:30 PM".
func FormatTime(clock string) string {
	hour := Hour(clock)
	_, minute, ok := strings.Cut(strings.TrimSpace(clock), ":")
	if !ok || minute == "" {
		minute = "00"
	}
	if len(minute) > 2 {
		minute = minute[:2]
	}

	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	display := hour
	switch {
	case hour > 12:
		display = hour - 12
	case hour == 0:
		display = 12
	}
	return fmt.Sprintf("%d:%s %s", display, minute, ampm)
}

// FormatDate renders a day as "Mon, 2 Mar 2026".
func FormatDate(day time.Time) string {
	return day.Format("Mon, 2 Jan 2006")
}
