package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

func TestNewSendGridSenderNilWithoutAPIKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{FromEmail: "noreply@example.com"}, nil))
}

func TestNewSendGridSenderDefaultFromName(t *testing.T) {
	s := NewSendGridSender(SendGridConfig{APIKey: "key", FromEmail: "noreply@example.com"}, nil)
	require.NotNil(t, s)
	assert.Equal(t, DefaultFromName, s.fromName)
}

type fakeSendGrid struct {
	status int
	err    error
	got    *mail.SGMailV3
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	f.got = m
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status}, nil
}

func TestSendGridSenderSend(t *testing.T) {
	fake := &fakeSendGrid{status: 202}
	s := &SendGridSender{client: fake, fromEmail: "noreply@example.com", fromName: "Seva", logger: logging.Default()}

	require.NoError(t, s.Send(context.Background(), EmailMessage{To: "asha@example.com", Subject: "Hi", Body: "Hello"}))
	require.NotNil(t, fake.got)
	assert.Equal(t, "Hi", fake.got.Subject)
	assert.Equal(t, "noreply@example.com", fake.got.From.Address)

	fake.status = 500
	assert.Error(t, s.Send(context.Background(), EmailMessage{To: "asha@example.com"}))

	fake.err = errors.New("network")
	assert.Error(t, s.Send(context.Background(), EmailMessage{To: "asha@example.com"}))
}

func TestSendGridSenderNilClient(t *testing.T) {
	var s *SendGridSender
	assert.Error(t, s.Send(context.Background(), EmailMessage{To: "a@example.com"}))
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestSESSenderSend(t *testing.T) {
	fake := &fakeSES{}
	s := NewSESSender(fake, SESConfig{FromEmail: "noreply@example.com"}, nil)
	require.NotNil(t, s)

	require.NoError(t, s.Send(context.Background(), EmailMessage{To: "asha@example.com", Subject: "Hi", Body: "text"}))
	assert.Equal(t, "Aadhaar Seva Booking <noreply@example.com>", aws.ToString(fake.input.FromEmailAddress))
	assert.Equal(t, []string{"asha@example.com"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, "text", aws.ToString(fake.input.Content.Simple.Body.Text.Data))
	assert.Nil(t, fake.input.Content.Simple.Body.Html)

	fake.err = errors.New("throttled")
	assert.ErrorContains(t, s.Send(context.Background(), EmailMessage{To: "asha@example.com"}), "throttled")
}

func TestNewSESSenderNilClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}
