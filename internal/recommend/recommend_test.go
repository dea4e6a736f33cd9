package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreExamples(t *testing.T) {
	tests := []struct {
		name string
		slot Slot
		want float64
	}{
		{"morning off-peak", Slot{Capacity: 10, BookedCount: 2, Time: "09:30"}, 88},
		{"mid-day nearly full", Slot{Capacity: 10, BookedCount: 9, Time: "12:00"}, 26},
		{"early morning empty", Slot{Capacity: 10, BookedCount: 0, Time: "08:00"}, 72},
		{"late afternoon empty", Slot{Capacity: 4, BookedCount: 0, Time: "16:00"}, 72},
		{"afternoon off-peak empty", Slot{Capacity: 5, BookedCount: 0, Time: "15:59"}, 100},
		{"zero capacity", Slot{Capacity: 0, BookedCount: 0, Time: "10:00"}, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.slot), 1e-9)
		})
	}
}

func TestOffPeakBonusBoundaries(t *testing.T) {
	tests := []struct {
		clock string
		want  float64
	}{
		{"08:59", 0.3},
		{"09:00", 1.0},
		{"10:59", 1.0},
		{"11:00", 0.5},
		{"13:59", 0.5},
		{"14:00", 1.0},
		{"15:30", 1.0},
		{"16:00", 0.3},
		{"23:00", 0.3},
		{"garbage", 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			assert.Equal(t, tt.want, OffPeakBonus(tt.clock))
		})
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		name string
		slot Slot
		want string
	}{
		{"empty off-peak", Slot{Capacity: 10, BookedCount: 0, Time: "09:00"}, "Very low crowd + Off-peak hours"},
		{"half full mid-day", Slot{Capacity: 10, BookedCount: 5, Time: "12:00"}, "Low crowd"},
		{"exactly seventy percent free", Slot{Capacity: 10, BookedCount: 3, Time: "12:00"}, "Low crowd"},
		{"busy off-peak", Slot{Capacity: 10, BookedCount: 7, Time: "14:15"}, "Off-peak hours"},
		{"busy evening", Slot{Capacity: 10, BookedCount: 8, Time: "17:00"}, "Best available slot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reason(tt.slot))
		})
	}
}

func TestEstimatedWait(t *testing.T) {
	assert.Equal(t, 14, EstimatedWait(Slot{BookedCount: 2, Time: "09:30"}))
	assert.Equal(t, 43, EstimatedWait(Slot{BookedCount: 9, Time: "12:00"}))
	assert.Equal(t, 25, EstimatedWait(Slot{BookedCount: 0, Time: "18:00"}))
}

func TestRecommendFiltersFullSlots(t *testing.T) {
	slots := []Slot{
		{ID: "full", Capacity: 5, BookedCount: 5, Time: "09:00"},
		{ID: "over", Capacity: 5, BookedCount: 6, Time: "10:00"},
		{ID: "open", Capacity: 5, BookedCount: 1, Time: "12:00"},
	}

	got := Recommend(slots)

	require.Len(t, got, 1)
	assert.Equal(t, "open", got[0].ID)
	assert.True(t, got[0].IsRecommended)
}

func TestRecommendSortsAndFlagsSingleBest(t *testing.T) {
	slots := []Slot{
		{ID: "evening", Capacity: 10, BookedCount: 0, Time: "17:00"},
		{ID: "midday", Capacity: 10, BookedCount: 9, Time: "12:00"},
		{ID: "morning", Capacity: 10, BookedCount: 2, Time: "09:30"},
	}

	got := Recommend(slots)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"morning", "evening", "midday"}, ids(got))

	recommended := 0
	for i, s := range got {
		if s.IsRecommended {
			recommended++
			assert.Equal(t, 0, i)
		}
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Score, s.Score)
		}
	}
	assert.Equal(t, 1, recommended)
}

func TestRecommendTiesKeepInputOrder(t *testing.T) {
	slots := []Slot{
		{ID: "a", Capacity: 10, BookedCount: 1, Time: "09:00"},
		{ID: "b", Capacity: 10, BookedCount: 1, Time: "14:00"},
		{ID: "c", Capacity: 10, BookedCount: 1, Time: "10:30"},
	}

	got := Recommend(slots)

	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
	assert.True(t, got[0].IsRecommended)
	assert.False(t, got[1].IsRecommended)
}

func TestRecommendEmpty(t *testing.T) {
	got := Recommend(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = Recommend([]Slot{{Capacity: 1, BookedCount: 1, Time: "09:00"}})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRecommendDoesNotMutateInput(t *testing.T) {
	slots := []Slot{
		{ID: "x", Capacity: 10, BookedCount: 9, Time: "12:00"},
		{ID: "y", Capacity: 10, BookedCount: 0, Time: "09:00"},
	}
	Recommend(slots)
	assert.Equal(t, "x", slots[0].ID)
}

func TestScoreMonotonicInAvailability(t *testing.T) {
	for _, clock := range []string{"08:00", "09:00", "12:00"} {
		prev := -1.0
		for booked := 10; booked >= 0; booked-- {
			s := Score(Slot{Capacity: 10, BookedCount: booked, Time: clock})
			assert.GreaterOrEqual(t, s, prev, "clock %s booked %d", clock, booked)
			prev = s
		}
	}
}

func TestFormatTime(t *testing.T) {
	tests := map[string]string{
		"14:30":    "2:30 PM",
		"09:05":    "9:05 AM",
		"00:15":    "12:15 AM",
		"12:00":    "12:00 PM",
		"11:45:00": "11:45 AM",
		"7":        "7:00 AM",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatTime(in), in)
	}
}

func ids(slots []ScoredSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.ID
	}
	return out
}
