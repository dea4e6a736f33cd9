// Package milestone detects upcoming age milestones that require a mandatory
// biometric update.
package milestone

import (
	"fmt"
	"time"
)

// Type names a milestone birthday.
type Type string

const (
	FifteenthBirthday Type = "15th_birthday"
	FiftiethBirthday  Type = "50th_birthday"
)

// Window is how many days before the birthday the reminder starts.
const Window = 90

var milestones = []struct {
	age int
	typ Type
}{
	{15, FifteenthBirthday},
	{50, FiftiethBirthday},
}

// Info describes an upcoming milestone.
type Info struct {
	Type          Type      `json:"type"`
	DaysRemaining int       `json:"days_remaining"`
	BirthdayDate  time.Time `json:"birthday_date"`
}

// Age returns the milestone age.
func (i Info) Age() int {
	if i.Type == FifteenthBirthday {
		return 15
	}
	return 50
}

// Message is the reminder shown to the citizen.
func (i Info) Message() string {
	if i.DaysRemaining == 0 {
		return fmt.Sprintf("Today is your %dth birthday! Please update your biometrics.", i.Age())
	}
	return fmt.Sprintf("%d days until your %dth birthday. Mandatory biometric update coming up.", i.DaysRemaining, i.Age())
}

// Check returns the first milestone birthday that falls within Window days of
// today, or nil. Dates are compared as civil days in today's location.
func Check(dob, today time.Time) *Info {
	if dob.IsZero() {
		return nil
	}
	loc := today.Location()
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	for _, m := range milestones {
		birthday := time.Date(dob.Year()+m.age, dob.Month(), dob.Day(), 0, 0, 0, 0, loc)
		if birthday.Before(day) {
			continue
		}
		days := int(birthday.Sub(day).Hours() / 24)
		if days <= Window {
			return &Info{Type: m.typ, DaysRemaining: days, BirthdayDate: birthday}
		}
	}
	return nil
}

// ParseDOB parses a YYYY-MM-DD date of birth.
func ParseDOB(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
