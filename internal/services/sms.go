package services

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// SMSSender delivers a single text message. Delivery is at most once; callers
// decide what a failure means.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

type TwilioSender struct {
	client *twilio.RestClient
	from   string
	logger *zap.Logger
}

func NewTwilioSender(accountSid, authToken, from string, logger *zap.Logger) (*TwilioSender, error) {
	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioSender{client: client, from: from, logger: logger}, nil
}

func (t *TwilioSender) Send(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(to)
	params.SetBody(body)

	type result struct {
		sid string
		err error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := t.client.Api.CreateMessage(params)
		if err != nil {
			done <- result{err: err}
			return
		}
		sid := ""
		if resp.Sid != nil {
			sid = *resp.Sid
		}
		done <- result{sid: sid}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("twilio send: %w", res.err)
		}
		t.logger.Debug("sms sent", zap.String("sid", res.sid))
		return nil
	}
}

// LogSender writes messages to the debug log instead of sending them. It is
// for local development only; the server refuses it in production.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) Send(ctx context.Context, to, body string) error {
	l.logger.Debug("sms delivery disabled, message not sent", zap.String("to", to), zap.String("body", body))
	return nil
}
