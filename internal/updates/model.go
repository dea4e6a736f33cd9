// Package updates accepts face-verified requests to change a citizen's
// mobile number, email or address.
package updates

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidType       = errors.New("update type must be mobile, email or address")
	ErrValueRequired     = errors.New("please enter a new value")
	ErrSameValue         = errors.New("new value cannot be same as existing value")
	ErrAddressIncomplete = errors.New("please fill all address fields")
	ErrInvalidMobile     = errors.New("please enter a valid 10-digit mobile number")
	ErrInvalidEmail      = errors.New("please enter a valid email address")

	// ErrPendingExists is returned when a request of the same type is still pending.
	ErrPendingExists = errors.New("updates: pending request exists for this type")
)

// IsValidation reports whether err came from request validation.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidType, ErrValueRequired, ErrSameValue, ErrAddressIncomplete,
		ErrInvalidMobile, ErrInvalidEmail,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Type is the profile field a request changes.
type Type string

const (
	TypeMobile  Type = "mobile"
	TypeEmail   Type = "email"
	TypeAddress Type = "address"
)

// ParseType validates a request type.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeMobile, TypeEmail, TypeAddress:
		return t, nil
	}
	return "", ErrInvalidType
}

// Label is the human name of the field.
func (t Type) Label() string {
	switch t {
	case TypeMobile:
		return "Mobile Number"
	case TypeEmail:
		return "Email Address"
	case TypeAddress:
		return "Address"
	}
	return string(t)
}

// Status is where a request is in the approval chain.
type Status string

const (
	StatusPending        Status = "pending"
	StatusSubmitted      Status = "submitted"
	StatusCenterVerified Status = "center_verified"
	StatusVROVerified    Status = "vro_verified"
	StatusMROVerified    Status = "mro_verified"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
)

// Stage is one step of the approval chain.
type Stage struct {
	ID    Status `json:"id"`
	Label string `json:"label"`
}

// Stages lists the approval chain in order.
var Stages = []Stage{
	{ID: StatusSubmitted, Label: "Submitted"},
	{ID: StatusCenterVerified, Label: "Center Verification"},
	{ID: StatusVROVerified, Label: "VRO Verification"},
	{ID: StatusMROVerified, Label: "MRO Approval"},
	{ID: StatusApproved, Label: "Final Approval"},
}

// Normalize maps the stored "pending" status to "submitted".
func (s Status) Normalize() Status {
	if s == StatusPending {
		return StatusSubmitted
	}
	return s
}

// Progress returns the index of s in Stages, or -1 when rejected or unknown.
func (s Status) Progress() int {
	n := s.Normalize()
	for i, stage := range Stages {
		if stage.ID == n {
			return i
		}
	}
	return -1
}

// Label is the display name of the status.
func (s Status) Label() string {
	if s == StatusRejected {
		return "Rejected"
	}
	if i := s.Progress(); i >= 0 {
		return Stages[i].Label
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

// Request is a submitted profile change.
type Request struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      Type      `json:"type"`
	NewValue  string    `json:"new_value"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Address is the structured form of an address change.
type Address struct {
	HouseNo string `json:"house_no"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// Format renders "house, street, city, state - pincode". Every field is required.
func (a Address) Format() (string, error) {
	parts := []string{a.HouseNo, a.Street, a.City, a.State, a.Pincode}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if parts[i] == "" {
			return "", ErrAddressIncomplete
		}
	}
	return fmt.Sprintf("%s, %s, %s, %s - %s", parts[0], parts[1], parts[2], parts[3], parts[4]), nil
}

// SubmitRequest is the body of POST /api/updates.
type SubmitRequest struct {
	Type     string      `json:"type"`
	Value    string      `json:"value,omitempty"`
	Address  *Address    `json:"address,omitempty"`
	Captures [][]float64 `json:"captures"`
}
