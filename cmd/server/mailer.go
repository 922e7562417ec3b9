package main

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/inu-notice/notice-server/auth"
)

// smtpMailer sends the verification and password-reset mails through a
// plain SMTP relay. Delivery failures surface to callers, which log and
// move on.
type smtpMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func newSMTPMailer(host string, port int, username, password, from string) *smtpMailer {
	var a smtp.Auth
	if username != "" {
		a = smtp.PlainAuth("", username, password, host)
	}
	return &smtpMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: a,
		from: from,
	}
}

func (m *smtpMailer) Send(ctx context.Context, to string, kind auth.MailKind, payload map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, body := renderMail(kind, payload)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	return smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg.String()))
}

func renderMail(kind auth.MailKind, payload map[string]string) (subject, body string) {
	switch kind {
	case auth.MailEmailVerification:
		return "Verify your INU Notice account",
			fmt.Sprintf("Welcome to INU Notice.\r\n\r\nYour verification code is: %s\r\n\r\nThe code expires in 24 hours.", payload["token"])
	case auth.MailPasswordReset:
		return "Reset your INU Notice password",
			fmt.Sprintf("A password reset was requested for your account.\r\n\r\nYour reset code is: %s\r\n\r\nThe code expires in 1 hour. If you did not request this, ignore this mail.", payload["token"])
	}
	return "INU Notice", "No content."
}
