package email

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	lastTo      string
	lastSubject string
	lastBody    string
	err         error
}

func (s *stubSender) SendEmail(_ context.Context, to, subject, body string) (string, error) {
	if s.err != nil {
		return "", s.err
	}

	s.lastTo = to
	s.lastSubject = subject
	s.lastBody = body

	return "msg-123", nil
}

func TestInvoke_DryRun(t *testing.T) {
	sender := &stubSender{}
	c, err := NewFactory(sender).Create(nil)
	require.NoError(t, err)

	output, err := c.Invoke(context.Background(), map[string]any{
		"to":      "a@example.com",
		"subject": "Welcome",
	}, true, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, true, output["would_send"])
	assert.Equal(t, "a@example.com", output["to"])
	assert.Empty(t, sender.lastTo, "dry run must not reach the gateway")
}

func TestInvoke_Sends(t *testing.T) {
	sender := &stubSender{}
	c, err := NewFactory(sender).Create(nil)
	require.NoError(t, err)

	output, err := c.Invoke(context.Background(), map[string]any{
		"to":      "a@example.com",
		"subject": "Welcome",
		"body":    "Thanks for your order",
	}, false, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, true, output["sent"])
	assert.Equal(t, "msg-123", output["message_id"])
	assert.Equal(t, "a@example.com", sender.lastTo)
	assert.Equal(t, "Welcome", sender.lastSubject)
	assert.Equal(t, "Thanks for your order", sender.lastBody)
}

func TestInvoke_SenderError(t *testing.T) {
	gatewayErr := errors.New("gateway unavailable")
	c, err := NewFactory(&stubSender{err: gatewayErr}).Create(nil)
	require.NoError(t, err)

	_, err = c.Invoke(context.Background(), map[string]any{
		"to":      "a@example.com",
		"subject": "Welcome",
	}, false, slog.Default())
	assert.ErrorIs(t, err, gatewayErr)
}

func TestInvoke_NoSender(t *testing.T) {
	c, err := NewFactory(nil).Create(nil)
	require.NoError(t, err)

	_, err = c.Invoke(context.Background(), map[string]any{
		"to":      "a@example.com",
		"subject": "Welcome",
	}, false, slog.Default())
	assert.ErrorIs(t, err, ErrNoSender)
}
