package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"tourbook/config"
	"tourbook/models"
	"tourbook/utils"

	"go.uber.org/zap"
)

// Mailer delivers the transactional e-mails of the booking site.
type Mailer interface {
	SendWelcome(ctx context.Context, p models.EmailPayload) error
	SendPasswordReset(ctx context.Context, p models.EmailPayload) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends plain text mail through an SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	send     sendFunc
}

func NewSMTPMailer() *SMTPMailer {
	cfg := config.AppConfig
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
		send:     smtp.SendMail,
	}
}

func (m *SMTPMailer) SendWelcome(ctx context.Context, p models.EmailPayload) error {
	body := fmt.Sprintf("Hi %s,\n\nWelcome to tourbook! Complete your profile here: %s\n", firstName(p.Name), p.URL)
	return m.deliver(p.To, "Welcome to the tourbook family!", body)
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, p models.EmailPayload) error {
	body := fmt.Sprintf("Hi %s,\n\nForgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s\n"+
		"The link is valid for 10 minutes. If you didn't forget your password, please ignore this email.\n", firstName(p.Name), p.URL)
	return m.deliver(p.To, "Your password reset token (valid for 10 min)", body)
}

func (m *SMTPMailer) deliver(to, subject, body string) error {
	if m.host == "" {
		utils.GetLogger().Info("SMTP not configured, mail dropped", zap.String("to", to), zap.String("subject", subject))
		return nil
	}
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := m.send(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return name
}
