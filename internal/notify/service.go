// Package notify sends citizen-facing emails about bookings and profile
// update requests.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// BookingNotice carries what a booking email needs.
type BookingNotice struct {
	Email            string
	Name             string
	Reference        string
	CenterName       string
	CenterAddress    string
	Date             string // display form, e.g. "Mon, 2 Mar 2026"
	Time             string // display form, e.g. "2:30 PM"
	UpdateType       string
	BookingType      string
	Documents        []string
	MilestoneMessage string
}

// UpdateNotice carries what a profile update email needs.
type UpdateNotice struct {
	Email     string
	Name      string
	RequestID string
	Type      string
	NewValue  string
}

// Service composes notification emails and hands them to an EmailSender.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service. A nil sender disables email.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

func (s *Service) send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.email == nil {
		return nil
	}
	if strings.TrimSpace(msg.To) == "" {
		s.logger.Debug("notify: no recipient address, skipping", "subject", msg.Subject)
		return nil
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send %q: %w", msg.Subject, err)
	}
	return nil
}

// BookingConfirmed emails the appointment details and the check-in reference.
func (s *Service) BookingConfirmed(ctx context.Context, n BookingNotice) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", n.Name)
	fmt.Fprintf(&b, "Your appointment for %s is confirmed.\n\n", n.UpdateType)
	fmt.Fprintf(&b, "Reference: %s\n", n.Reference)
	fmt.Fprintf(&b, "Center: %s\n", n.CenterName)
	if n.CenterAddress != "" {
		fmt.Fprintf(&b, "Address: %s\n", n.CenterAddress)
	}
	fmt.Fprintf(&b, "When: %s at %s\n", n.Date, n.Time)
	fmt.Fprintf(&b, "Booking type: %s\n", n.BookingType)
	if n.MilestoneMessage != "" {
		fmt.Fprintf(&b, "\n%s\n", n.MilestoneMessage)
	}
	if len(n.Documents) > 0 {
		b.WriteString("\nPlease bring:\n")
		for _, d := range n.Documents {
			fmt.Fprintf(&b, "  - %s\n", d)
		}
	}
	b.WriteString("\nShow the reference code at the center to check in.\n")

	return s.send(ctx, EmailMessage{
		To:      n.Email,
		ToName:  n.Name,
		Subject: fmt.Sprintf("Appointment confirmed: %s", n.Reference),
		Body:    b.String(),
	})
}

// BookingCancelled emails a cancellation receipt.
func (s *Service) BookingCancelled(ctx context.Context, n BookingNotice) error {
	body := fmt.Sprintf("Dear %s,\n\nYour appointment %s at %s on %s at %s has been cancelled.\n",
		n.Name, n.Reference, n.CenterName, n.Date, n.Time)
	return s.send(ctx, EmailMessage{
		To:      n.Email,
		ToName:  n.Name,
		Subject: fmt.Sprintf("Appointment cancelled: %s", n.Reference),
		Body:    body,
	})
}

// UpdateSubmitted emails the receipt of a profile update request.
func (s *Service) UpdateSubmitted(ctx context.Context, n UpdateNotice) error {
	body := fmt.Sprintf("Dear %s,\n\nWe received your request to update your %s to:\n  %s\n\n"+
		"Request ID: %s\nIt will be verified by the center, VRO and MRO before approval. "+
		"You can track its progress online.\n",
		n.Name, n.Type, n.NewValue, n.RequestID)
	return s.send(ctx, EmailMessage{
		To:      n.Email,
		ToName:  n.Name,
		Subject: fmt.Sprintf("Update request received: %s", n.Type),
		Body:    body,
	})
}
