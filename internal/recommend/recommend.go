// Package recommend ranks bookable slots for a center and day and flags the
// single best one.
package recommend

import (
	"sort"
	"strconv"
	"strings"
)

const (
	availabilityWeight = 60.0
	offPeakWeight      = 40.0

	offPeakWait = 10
	peakWait    = 25
	waitPerSeat = 2
)

// Center is a physical enrolment center.
type Center struct {
	ID        string  `json:"id"`
	Name      string  `json:"center_name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Slot is a bookable appointment unit at a center on a date and time.
type Slot struct {
	ID          string  `json:"id"`
	CenterID    string  `json:"center_id"`
	Date        string  `json:"date"` // YYYY-MM-DD
	Time        string  `json:"time"` // HH:MM, 24h
	Capacity    int     `json:"capacity"`
	BookedCount int     `json:"booked_count"`
	Center      *Center `json:"center,omitempty"`
}

// Remaining returns the number of free seats, never negative.
func (s Slot) Remaining() int {
	if s.BookedCount >= s.Capacity {
		return 0
	}
	return s.Capacity - s.BookedCount
}

// IsFull reports whether no seat is left.
func (s Slot) IsFull() bool {
	return s.BookedCount >= s.Capacity
}

// ScoredSlot is a Slot annotated for display. It is derived on every fetch and never persisted.
type ScoredSlot struct {
	Slot
	Score             float64 `json:"score"`
	IsRecommended     bool    `json:"is_recommended"`
	Reason            string  `json:"reason"`
	EstimatedWaitTime int     `json:"estimated_wait_time"`
}

// Recommend filters out full slots, scores the rest, sorts them by score
// descending and marks the first one as recommended. Equal scores keep their
// input order.
func Recommend(slots []Slot) []ScoredSlot {
	scored := make([]ScoredSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.IsFull() {
			continue
		}
		scored = append(scored, ScoredSlot{
			Slot:              slot,
			Score:             Score(slot),
			Reason:            Reason(slot),
			EstimatedWaitTime: EstimatedWait(slot),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > 0 {
		scored[0].IsRecommended = true
	}
	return scored
}

// Score combines availability (60%) and the off-peak bonus (40%).
func Score(slot Slot) float64 {
	return AvailabilityFactor(slot)*availabilityWeight + OffPeakBonus(slot.Time)*offPeakWeight
}

// AvailabilityFactor is the free share of capacity; zero when capacity is not positive.
func AvailabilityFactor(slot Slot) float64 {
	if slot.Capacity <= 0 {
		return 0
	}
	return 1 - float64(slot.BookedCount)/float64(slot.Capacity)
}

// OffPeakBonus is 1.0 in the 09-11 and 14-16 windows, 0.5 over mid-day and 0.3 otherwise.
func OffPeakBonus(clock string) float64 {
	hour := Hour(clock)
	switch {
	case isOffPeak(hour):
		return 1.0
	case hour >= 11 && hour < 14:
		return 0.5
	default:
		return 0.3
	}
}

// Reason describes why a slot is attractive.
func Reason(slot Slot) string {
	remaining := float64(slot.Capacity - slot.BookedCount)
	capacity := float64(slot.Capacity)

	var parts []string
	if remaining > capacity*0.7 {
		parts = append(parts, "Very low crowd")
	} else if remaining > capacity*0.4 {
		parts = append(parts, "Low crowd")
	}
	if isOffPeak(Hour(slot.Time)) {
		parts = append(parts, "Off-peak hours")
	}

	if len(parts) == 0 {
		return "Best available slot"
	}
	return strings.Join(parts, " + ")
}

// EstimatedWait returns the expected wait in minutes.
func EstimatedWait(slot Slot) int {
	base := peakWait
	if isOffPeak(Hour(slot.Time)) {
		base = offPeakWait
	}
	return base + slot.BookedCount*waitPerSeat
}

// Hour extracts the hour from an HH:MM (or HH:MM:SS) string. Unparseable
// input yields 0.
func Hour(clock string) int {
	hourStr, _, _ := strings.Cut(strings.TrimSpace(clock), ":")
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return 0
	}
	return hour
}

func isOffPeak(hour int) bool {
	return (hour >= 9 && hour < 11) || (hour >= 14 && hour < 16)
}
