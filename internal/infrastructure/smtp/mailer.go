// Package smtp implements the email delivery channel over plain SMTP.
package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer implements notification.Mailer using net/smtp.
type Mailer struct {
	host        string
	port        int
	username    string
	password    string
	senderName  string
	senderEmail string
}

// NewMailer creates an SMTP mailer.
func NewMailer(host string, port int, username, password, senderName, senderEmail string) *Mailer {
	return &Mailer{
		host:        host,
		port:        port,
		username:    username,
		password:    password,
		senderName:  senderName,
		senderEmail: senderEmail,
	}
}

// Send sends an HTML email to a single address.
func (m *Mailer) Send(ctx context.Context, address, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.senderName, m.senderEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", address)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(html)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	if err := smtp.SendMail(addr, auth, m.senderEmail, []string{address}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", address, err)
	}
	return nil
}
