package slots

import (
	"time"

	"github.com/wolfman30/idseva-booking/internal/recommend"
)

// DefaultWindowDays is how many days ahead citizens can book.
const DefaultWindowDays = 3

// Date is a bookable civil day.
type Date struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// AvailableDates returns n consecutive civil days starting with today's date.
func AvailableDates(today time.Time, n int) []Date {
	if n <= 0 {
		n = DefaultWindowDays
	}
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	dates := make([]Date, 0, n)
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i)
		dates = append(dates, Date{Value: d.Format(time.DateOnly), Label: recommend.FormatDate(d)})
	}
	return dates
}

// InWindow reports whether date (YYYY-MM-DD) is one of the n bookable days.
func InWindow(date string, today time.Time, n int) bool {
	for _, d := range AvailableDates(today, n) {
		if d.Value == date {
			return true
		}
	}
	return false
}

// ParseDate validates a YYYY-MM-DD civil date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}
