// AngelaMos | 2026
// mail_test.go

package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"github.com/carterperez-dev/templates/accounts-api/internal/config"
	"github.com/carterperez-dev/templates/accounts-api/internal/core"
)

type fakeDialer struct {
	sent []*gomail.Msg
	err  error
}

func (f *fakeDialer) DialAndSendWithContext(_ context.Context, msgs ...*gomail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

func testEmailConfig() config.EmailConfig {
	return config.EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		From:     "noreply@example.com",
		FromName: "Accounts",
	}
}

func TestRecipientFirstName(t *testing.T) {
	assert.Equal(t, "Ada", Recipient{Name: "Ada Lovelace"}.FirstName())
	assert.Equal(t, "Ada", Recipient{Name: "  Ada  "}.FirstName())
	assert.Equal(t, "", Recipient{}.FirstName())
}

func TestRenderWelcome(t *testing.T) {
	r, err := newRenderer()
	require.NoError(t, err)

	out, err := r.render(kindWelcome, SubjectWelcome,
		Recipient{Name: "Ada Lovelace", Email: "ada@example.com"},
		"https://example.com/me")
	require.NoError(t, err)

	assert.Equal(t, SubjectWelcome, out.subject)
	assert.Contains(t, out.html, "Hi Ada,")
	assert.Contains(t, out.html, `href="https://example.com/me"`)
	assert.Contains(t, out.html, "<title>"+SubjectWelcome+"</title>")
	assert.Contains(t, out.text, "https://example.com/me")
	assert.NotContains(t, out.text, "<p>")
}

func TestRenderEscapesName(t *testing.T) {
	r, err := newRenderer()
	require.NoError(t, err)

	out, err := r.render(kindPasswordReset, SubjectPasswordReset,
		Recipient{Name: "<script>alert(1)</script>"},
		"https://example.com/api/reset-password/abc")
	require.NoError(t, err)

	assert.NotContains(t, out.html, "<script>")
	assert.Contains(t, out.html, "https://example.com/api/reset-password/abc")
}

func TestSMTPSenderSendsPasswordReset(t *testing.T) {
	d := &fakeDialer{}
	s, err := newSMTPSender(d, testEmailConfig())
	require.NoError(t, err)

	err = s.SendPasswordReset(context.Background(),
		Recipient{Name: "Ada Lovelace", Email: "ada@example.com"},
		"https://example.com/api/reset-password/abc")
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	msg := d.sent[0]
	assert.Equal(t, []string{SubjectPasswordReset}, msg.GetGenHeader(gomail.HeaderSubject))

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"ada@example.com"}, rcpts)

	from := msg.GetFromString()
	require.Len(t, from, 1)
	assert.Contains(t, from[0], "noreply@example.com")
	assert.Contains(t, from[0], "Accounts")
}

func TestSMTPSenderWrapsDeliveryFailure(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}
	s, err := newSMTPSender(d, testEmailConfig())
	require.NoError(t, err)

	err = s.SendWelcome(context.Background(),
		Recipient{Name: "Ada", Email: "ada@example.com"}, "https://example.com/me")
	assert.ErrorIs(t, err, core.ErrDelivery)
}

func TestSMTPSenderRejectsBadRecipient(t *testing.T) {
	d := &fakeDialer{}
	s, err := newSMTPSender(d, testEmailConfig())
	require.NoError(t, err)

	err = s.SendWelcome(context.Background(),
		Recipient{Name: "Nobody", Email: "not an address"}, "https://example.com/me")
	assert.Error(t, err)
	assert.Empty(t, d.sent)
}

func TestNewSenderFallsBackToLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	s, err := NewSender(config.EmailConfig{}, logger)
	require.NoError(t, err)
	require.IsType(t, &LogSender{}, s)

	require.NoError(t, s.SendWelcome(context.Background(),
		Recipient{Name: "Ada", Email: "ada@example.com"}, "https://example.com/me"))
	assert.Contains(t, buf.String(), "ada@example.com")
	assert.Contains(t, buf.String(), SubjectWelcome)
}

func TestNewSenderUsesSMTPWhenHostSet(t *testing.T) {
	s, err := NewSender(testEmailConfig(), slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)
}
