// Package notify is the boundary to the SMS transport. The dispatcher only
// sees the Sender interface; a nil error means the transport accepted the
// message, any error means nothing was delivered.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/secwatch/cyber-alert-radar/backend/internal/config"
)

// TestMessage is the canned body used to verify the alert channel end to end.
const TestMessage = "TEST ALERT: This is a test of the cybersecurity alert system. " +
	"You will receive messages like this for critical security alerts."

// Sender delivers a text message to a destination number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// ErrDisabled is returned by Disabled for every send attempt.
var ErrDisabled = errors.New("sms transport not configured")

// Disabled is a Sender used when Twilio credentials are absent. Every send
// fails, which leaves critical items unalerted and retried once credentials
// appear.
type Disabled struct{}

// Send always reports the transport as unavailable.
func (Disabled) Send(context.Context, string, string) error {
	return ErrDisabled
}

// TwilioSender delivers SMS via the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
	log    *slog.Logger
}

// NewTwilio builds a sender from credentials. Returns an error if any
// credential is missing so callers can fall back to Disabled.
func NewTwilio(creds config.Twilio, log *slog.Logger) (*TwilioSender, error) {
	if !creds.Complete() {
		return nil, ErrDisabled
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: creds.AccountSID,
		Password: creds.AuthToken,
	})

	return &TwilioSender{client: client, from: creds.FromNumber, log: log}, nil
}

// Send submits one SMS. The Twilio client manages its own HTTP timeouts;
// ctx is accepted for interface symmetry.
func (s *TwilioSender) Send(_ context.Context, to, body string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return err
	}

	if resp.Sid != nil {
		s.log.Info("sms sent", slog.String("sid", *resp.Sid))
	}
	return nil
}

// FromConfig returns a Twilio sender when credentials are complete, and the
// Disabled sender otherwise.
func FromConfig(creds config.Twilio, log *slog.Logger) Sender {
	sender, err := NewTwilio(creds, log)
	if err != nil {
		log.Warn("sms alerts disabled", slog.Any("err", err))
		return Disabled{}
	}
	return sender
}
