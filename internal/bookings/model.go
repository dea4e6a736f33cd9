// Package bookings confirms, lists and cancels enrolment center
// appointments.
package bookings

import (
	"errors"
	"strings"
	"time"

	"github.com/wolfman30/idseva-booking/internal/recommend"
	"github.com/wolfman30/idseva-booking/internal/slots"
)

var (
	// ErrInvalidUpdateType is returned for an unknown update type.
	ErrInvalidUpdateType = errors.New("please select a valid update type")
	// ErrSlotRequired is returned when no slot is selected.
	ErrSlotRequired = errors.New("please select a time slot")
	// ErrOutsideWindow is returned when the slot's date is not bookable today.
	ErrOutsideWindow = errors.New("selected slot is outside the booking window")

	// ErrSlotFull is returned when the slot has no seat left.
	ErrSlotFull = slots.ErrSlotFull
	// ErrDuplicateBooking is returned when the user already holds an active
	// booking for the slot.
	ErrDuplicateBooking = errors.New("bookings: slot already booked by user")
	// ErrNotFound is returned for unknown bookings and bookings owned by
	// someone else.
	ErrNotFound = errors.New("bookings: booking not found")
	// ErrNotCancellable is returned for completed or cancelled bookings.
	ErrNotCancellable = errors.New("bookings: booking cannot be cancelled")
	// ErrReferenceTaken is returned by repositories when a reference code
	// collides with an existing booking.
	ErrReferenceTaken = errors.New("bookings: reference already in use")
)

// Status is the lifecycle stage of a booking.
type Status string

const (
	StatusBooked    Status = "Booked"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Stages lists the tracked statuses in order. Cancelled is outside the track.
var Stages = []Status{StatusBooked, StatusConfirmed, StatusCompleted}

// Progress returns the index of s in Stages, or -1 when cancelled or unknown.
func (s Status) Progress() int {
	for i, stage := range Stages {
		if s == stage {
			return i
		}
	}
	return -1
}

// Active reports whether the booking still holds a seat.
func (s Status) Active() bool {
	return s == StatusBooked || s == StatusConfirmed
}

// Cancellable reports whether a booking in this status may be cancelled.
func (s Status) Cancellable() bool {
	return s.Active()
}

// Booking types.
const (
	TypeNormal           = "Normal"
	TypeAgeMilestone     = "Age Milestone"
	noDocumentsBiometric = "No physical documents required (Requires Biometric Authentication)"
)

// UpdateType is the Aadhaar change the citizen is visiting the center for.
type UpdateType string

const (
	UpdateName      UpdateType = "Name Correction"
	UpdateDOB       UpdateType = "Date of Birth Update"
	UpdateGender    UpdateType = "Gender Update"
	UpdateMobile    UpdateType = "Mobile Number"
	UpdateEmail     UpdateType = "Email Address"
	UpdateAddress   UpdateType = "Address Update"
	UpdateBiometric UpdateType = "Biometric Update"
)

// UpdateTypeInfo describes an update type for clients.
type UpdateTypeInfo struct {
	ID        string     `json:"id"`
	Label     UpdateType `json:"label"`
	Documents []string   `json:"documents"`
}

var updateTypes = []UpdateTypeInfo{
	{ID: "name", Label: UpdateName, Documents: []string{
		"Original Aadhaar Card",
		"Gazette Notification (if applicable)",
		"Valid Identity Proof (Passport, PAN, Voter ID, etc.)",
	}},
	{ID: "dob", Label: UpdateDOB, Documents: []string{
		"Birth Certificate",
		"SSC Certificate / Marksheet",
		"Passport",
	}},
	{ID: "gender", Label: UpdateGender, Documents: []string{
		"Self Declaration Form",
		"Aadhaar Copy",
	}},
	{ID: "mobile", Label: UpdateMobile, Documents: []string{noDocumentsBiometric}},
	{ID: "email", Label: UpdateEmail, Documents: []string{noDocumentsBiometric}},
	{ID: "address", Label: UpdateAddress, Documents: []string{
		"Utility Bill (Electricity/Water/Gas) - last 3 months",
		"Bank Statement / Passbook",
		"Rental Agreement / Lease",
	}},
	{ID: "biometric", Label: UpdateBiometric, Documents: []string{"Original Aadhaar Card"}},
}

// UpdateTypes returns every supported update type with its documents.
func UpdateTypes() []UpdateTypeInfo {
	out := make([]UpdateTypeInfo, len(updateTypes))
	for i, t := range updateTypes {
		t.Documents = append([]string(nil), t.Documents...)
		out[i] = t
	}
	return out
}

// ParseUpdateType accepts either the short ID ("dob") or the label
// ("Date of Birth Update"), case-insensitively.
func ParseUpdateType(s string) (UpdateType, error) {
	s = strings.TrimSpace(s)
	for _, t := range updateTypes {
		if strings.EqualFold(s, t.ID) || strings.EqualFold(s, string(t.Label)) {
			return t.Label, nil
		}
	}
	return "", ErrInvalidUpdateType
}

// RequiredDocuments lists what to bring to the center for t. Unknown types
// need nothing.
func RequiredDocuments(t UpdateType) []string {
	for _, info := range updateTypes {
		if info.Label == t {
			return append([]string(nil), info.Documents...)
		}
	}
	return nil
}

// Booking is a reserved seat in a slot.
type Booking struct {
	ID          string          `json:"id"`
	Reference   string          `json:"reference"`
	UserID      string          `json:"user_id"`
	SlotID      string          `json:"slot_id"`
	Status      Status          `json:"status"`
	BookingType string          `json:"booking_type"`
	UpdateType  UpdateType      `json:"update_type"`
	CreatedAt   time.Time       `json:"created_at"`
	Slot        *recommend.Slot `json:"slot,omitempty"`
}

// ConfirmRequest is the body of a booking confirmation.
type ConfirmRequest struct {
	SlotID     string      `json:"slot_id"`
	UpdateType string      `json:"update_type"`
	Captures   [][]float64 `json:"captures"`
}

// Validate checks the request and returns the parsed update type.
func (r ConfirmRequest) Validate() (UpdateType, error) {
	t, err := ParseUpdateType(r.UpdateType)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(r.SlotID) == "" {
		return "", ErrSlotRequired
	}
	return t, nil
}
