// internal/devapi/mailer.go
package devapi

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"trackpro-client/internal/config"
)

// Mailer delivers account emails (password reset links).
type Mailer interface {
	Send(to, subject, bodyHTML string) error
}

// NewMailer picks SMTP when a host is configured, else logs the mail.
func NewMailer(cfg config.DevAPIConfig, logger *zap.Logger) Mailer {
	if cfg.SMTPHost == "" {
		return &LogMailer{logger: logger}
	}
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUser,
		password: cfg.SMTPPass,
		fromName: cfg.SMTPFromName,
		secure:   cfg.SMTPSecure,
	}
}

// LogMailer writes mails to the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

func (m *LogMailer) Send(to, subject, bodyHTML string) error {
	m.logger.Info("mail not sent, SMTP not configured",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", bodyHTML),
	)
	return nil
}

// SMTPMailer sends HTML mail. Port 465 style servers need secure=true
// (implicit TLS); otherwise STARTTLS via smtp.SendMail is used.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	fromName string
	secure   bool
}

func (m *SMTPMailer) Send(to, subject, bodyHTML string) error {
	from := fmt.Sprintf("%s <%s>", m.fromName, m.username)
	msg := []byte(
		fmt.Sprintf("From: %s\r\n", from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			wrapHTML(bodyHTML),
	)

	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	if !m.secure {
		if err := smtp.SendMail(addr, auth, m.username, []string{to}, msg); err != nil {
			return fmt.Errorf("send mail failed: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.host})
	if err != nil {
		return fmt.Errorf("tls dial failed: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return fmt.Errorf("smtp client failed: %w", err)
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("auth failed: %w", err)
	}
	if err := client.Mail(m.username); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return w.Close()
}

func wrapHTML(content string) string {
	return `<!DOCTYPE html>
<html>
<head><meta charset="utf-8" /><title>GPX TrackPro</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f6f8fa; padding: 30px;">
<div style="max-width: 600px; margin: auto; background: #fff; border-radius: 10px; padding: 25px; color: #333;">
` + strings.TrimSpace(content) + `
</div>
</body>
</html>`
}

func resetEmailBody(name, link string) string {
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>Someone asked to reset the password of your GPX TrackPro account. The link is valid for one hour.</p>
<p><a href="%s">Reset password</a></p>
<p>If this wasn't you, ignore this email.</p>`, name, link)
}
