package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSender struct{}

func (failingSender) Send(context.Context, EmailMessage) error { return errors.New("smtp down") }

func TestBookingConfirmed(t *testing.T) {
	stub := NewStubEmailSender(nil)
	svc := NewService(stub, nil)

	err := svc.BookingConfirmed(context.Background(), BookingNotice{
		Email:            "asha@example.com",
		Name:             "Asha",
		Reference:        "AB12CD3",
		CenterName:       "Central Kendra",
		Date:             "Mon, 2 Mar 2026",
		Time:             "2:30 PM",
		UpdateType:       "Mobile Number",
		BookingType:      "Age Milestone",
		Documents:        []string{"Aadhaar card", "Mobile phone"},
		MilestoneMessage: "12 days until your 15th birthday.",
	})
	require.NoError(t, err)

	sent := stub.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "asha@example.com", sent[0].To)
	assert.Equal(t, "Appointment confirmed: AB12CD3", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "Reference: AB12CD3")
	assert.Contains(t, sent[0].Body, "When: Mon, 2 Mar 2026 at 2:30 PM")
	assert.Contains(t, sent[0].Body, "  - Mobile phone")
	assert.Contains(t, sent[0].Body, "15th birthday")
}

func TestUpdateSubmittedAndCancelled(t *testing.T) {
	stub := NewStubEmailSender(nil)
	svc := NewService(stub, nil)

	require.NoError(t, svc.UpdateSubmitted(context.Background(), UpdateNotice{Email: "a@example.com", Name: "A", RequestID: "r1", Type: "mobile", NewValue: "9999999999"}))
	require.NoError(t, svc.BookingCancelled(context.Background(), BookingNotice{Email: "a@example.com", Reference: "XY"}))

	sent := stub.Sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].Body, "9999999999")
	assert.Equal(t, "Appointment cancelled: XY", sent[1].Subject)
}

func TestServiceSkipsWithoutRecipientOrSender(t *testing.T) {
	stub := NewStubEmailSender(nil)
	require.NoError(t, NewService(stub, nil).BookingConfirmed(context.Background(), BookingNotice{}))
	assert.Empty(t, stub.Sent())

	require.NoError(t, NewService(nil, nil).UpdateSubmitted(context.Background(), UpdateNotice{Email: "a@example.com"}))

	var nilSvc *Service
	assert.NoError(t, nilSvc.BookingCancelled(context.Background(), BookingNotice{Email: "a@example.com"}))
}

func TestServiceWrapsSenderError(t *testing.T) {
	err := NewService(failingSender{}, nil).UpdateSubmitted(context.Background(), UpdateNotice{Email: "a@example.com"})
	assert.ErrorContains(t, err, "smtp down")
}
