package notification

import (
	"context"
	"net/smtp"
	"testing"

	"tourbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPasswordResetMessage(t *testing.T) {
	var gotAddr string
	var gotTo []string
	var gotMsg string
	m := &SMTPMailer{
		host: "smtp.example.com",
		port: 2525,
		from: "bookings@tourbook.local",
		send: func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
			gotAddr, gotTo, gotMsg = addr, to, string(msg)
			return nil
		},
	}

	err := m.SendPasswordReset(context.Background(), models.EmailPayload{
		To:   "jonas@example.com",
		Name: "Jonas Schmedtmann",
		URL:  "http://localhost:8080/api/v1/users/resetPassword/abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, []string{"jonas@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Your password reset token (valid for 10 min)")
	assert.Contains(t, gotMsg, "Hi Jonas,")
	assert.Contains(t, gotMsg, "/users/resetPassword/abc")
}

func TestDeliverWithoutHostIsNoop(t *testing.T) {
	called := false
	m := &SMTPMailer{send: func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}}
	require.NoError(t, m.SendWelcome(context.Background(), models.EmailPayload{To: "a@b.io", Name: "A"}))
	assert.False(t, called)
}
