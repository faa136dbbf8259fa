package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"smartbrief/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESAPI is the subset of the SES v2 client used by SES.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES submits mail through AWS SES v2 over its HTTPS API.
type SES struct {
	api           SESAPI
	from          From
	configSetName string
	log           *slog.Logger
}

func NewSES(awsCfg aws.Config, from From, configSetName string, log *slog.Logger) *SES {
	return NewSESWithAPI(sesv2.NewFromConfig(awsCfg), from, configSetName, log)
}

func NewSESWithAPI(api SESAPI, from From, configSetName string, log *slog.Logger) *SES {
	return &SES{api: api, from: from, configSetName: configSetName, log: log}
}

func (s *SES) Send(ctx context.Context, msg Message) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from.String()),
		Destination: &sestypes.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &sestypes.Body{
					Html: &sestypes.Content{
						Data:    aws.String(msg.HTML),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if msg.Text != "" {
		input.Content.Simple.Body.Text = &sestypes.Content{
			Data:    aws.String(msg.Text),
			Charset: aws.String("UTF-8"),
		}
	}

	if s.configSetName != "" {
		input.ConfigurationSetName = aws.String(s.configSetName)
	}

	out, err := s.api.SendEmail(ctx, input)
	if err != nil {
		return &domain.TransportError{Recipient: msg.To, Err: mapSESError(err)}
	}

	s.log.DebugContext(ctx, "Mail is submitted",
		"transport", "ses",
		"email", msg.To,
		"messageID", aws.ToString(out.MessageId))

	return nil
}

func mapSESError(err error) error {
	var rejected *sestypes.MessageRejected
	if errors.As(err, &rejected) {
		return fmt.Errorf("message rejected: %w", err)
	}

	var throttled *sestypes.TooManyRequestsException
	if errors.As(err, &throttled) {
		return fmt.Errorf("rate limited: %w", err)
	}

	var paused *sestypes.SendingPausedException
	if errors.As(err, &paused) {
		return fmt.Errorf("sending paused: %w", err)
	}

	return err
}
