package milestone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCheck(t *testing.T) {
	today := time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		dob      time.Time
		wantType Type
		wantDays int
		wantNil  bool
	}{
		{"fifteenth today", day(2011, 3, 1), FifteenthBirthday, 0, false},
		{"fifteenth in 30 days", day(2011, 3, 31), FifteenthBirthday, 30, false},
		{"fifteenth exactly at window", day(2011, 5, 30), FifteenthBirthday, 90, false},
		{"fifteenth just outside window", day(2011, 5, 31), "", 0, true},
		{"fifteenth already passed", day(2011, 2, 28), "", 0, true},
		{"fiftieth in 10 days", day(1976, 3, 11), FiftiethBirthday, 10, false},
		{"no milestone", day(1990, 6, 1), "", 0, true},
		{"zero dob", time.Time{}, "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Check(tt.dob, today)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantDays, got.DaysRemaining)
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Today is your 15th birthday! Please update your biometrics.",
		Info{Type: FifteenthBirthday}.Message())
	assert.Equal(t, "12 days until your 50th birthday. Mandatory biometric update coming up.",
		Info{Type: FiftiethBirthday, DaysRemaining: 12}.Message())
}

func TestParseDOB(t *testing.T) {
	got, err := ParseDOB("2011-03-01")
	require.NoError(t, err)
	assert.Equal(t, day(2011, 3, 1), got)

	_, err = ParseDOB("01/03/2011")
	assert.Error(t, err)
}
