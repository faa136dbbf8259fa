package mailer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"smartbrief/internal/domain"
	"smartbrief/internal/mailer"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const digestHTML = `<!DOCTYPE html><html><head><style>.x{color:red}</style></head><body>
<div data-section="greeting"><p>Good Morning, Oslo!</p></div>
<div data-section="news"><p><b>Top News</b></p><ul>
  <li>Fjord bridge opens. <a href="https://n.example.com/bridge">Read more</a></li>
  <li>Snow early.</li>
</ul></div>
</body></html>`

func TestSubject(t *testing.T) {
	day := time.Date(2026, time.October, 14, 7, 0, 0, 0, time.UTC)

	assert.Equal(t, "🌅 SmartBrief — Wednesday, October 14", mailer.Subject(day))
}

func TestPlainText(t *testing.T) {
	text, err := mailer.PlainText(digestHTML)
	require.NoError(t, err)

	assert.Equal(t, "Good Morning, Oslo!\n\nTop News\n\n- Fjord bridge opens. Read more (https://n.example.com/bridge)\n- Snow early.", text)
	assert.NotContains(t, text, "color:red")
}

func TestNewMessage(t *testing.T) {
	msg, err := mailer.NewMessage("ola@example.com", "Hi", digestHTML)
	require.NoError(t, err)

	assert.Equal(t, "ola@example.com", msg.To)
	assert.Equal(t, digestHTML, msg.HTML)
	assert.Contains(t, msg.Text, "Good Morning, Oslo!")
}

func TestFromString(t *testing.T) {
	assert.Equal(t, "SmartBrief <brief@example.com>", mailer.From{Name: "SmartBrief", Address: "brief@example.com"}.String())
	assert.Equal(t, "brief@example.com", mailer.From{Address: "brief@example.com"}.String())
}

type stubSESAPI struct {
	input *sesv2.SendEmailInput
	err   error
}

func (s *stubSESAPI) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	s.input = in
	if s.err != nil {
		return nil, s.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSend(t *testing.T) {
	api := &stubSESAPI{}
	ses := mailer.NewSESWithAPI(api, mailer.From{Name: "SmartBrief", Address: "brief@example.com"}, "digest", discard())

	err := ses.Send(context.Background(), mailer.Message{To: "ola@example.com", Subject: "S", HTML: "<p>h</p>", Text: "h"})
	require.NoError(t, err)

	require.NotNil(t, api.input)
	assert.Equal(t, "SmartBrief <brief@example.com>", aws.ToString(api.input.FromEmailAddress))
	assert.Equal(t, []string{"ola@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "digest", aws.ToString(api.input.ConfigurationSetName))
	assert.Equal(t, "<p>h</p>", aws.ToString(api.input.Content.Simple.Body.Html.Data))
	assert.Equal(t, "h", aws.ToString(api.input.Content.Simple.Body.Text.Data))
}

func TestSESSendFailure(t *testing.T) {
	api := &stubSESAPI{err: &sestypes.MessageRejected{Message: aws.String("bad address")}}
	ses := mailer.NewSESWithAPI(api, mailer.From{Address: "brief@example.com"}, "", discard())

	err := ses.Send(context.Background(), mailer.Message{To: "ola@example.com", HTML: "<p>h</p>"})

	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "ola@example.com", te.Recipient)
	assert.ErrorContains(t, err, "message rejected")
	assert.Nil(t, api.input.ConfigurationSetName)
	assert.Nil(t, api.input.Content.Simple.Body.Text)
}

type recordingSender struct {
	at  []time.Time
	err error
}

func (r *recordingSender) Send(context.Context, mailer.Message) error {
	r.at = append(r.at, time.Now())
	return r.err
}

func TestPacerSpacesSends(t *testing.T) {
	next := &recordingSender{}
	pacer := mailer.NewPacer(next, 40*time.Millisecond, discard())

	for range 3 {
		require.NoError(t, pacer.Send(context.Background(), mailer.Message{To: "a@example.com"}))
	}

	require.Len(t, next.at, 3)
	assert.GreaterOrEqual(t, next.at[1].Sub(next.at[0]), 40*time.Millisecond)
	assert.GreaterOrEqual(t, next.at[2].Sub(next.at[1]), 40*time.Millisecond)
}

func TestPacerHonorsContext(t *testing.T) {
	next := &recordingSender{err: errors.New("boom")}
	pacer := mailer.NewPacer(next, time.Hour, discard())

	require.Error(t, pacer.Send(context.Background(), mailer.Message{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pacer.Send(ctx, mailer.Message{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, next.at, 1)
}
