package mailer

import (
	"bytes"
	"errors"
	"text/template"
	"time"

	mail "gopkg.in/mail.v2"
)

// SMTPMailer delivers templated mail over SMTP. Used for moderation alerts;
// transactional user mail stays with the external auth provider.
type SMTPMailer struct {
	dialer    *mail.Dialer
	fromEmail string
}

func NewSMTPMailer(host string, port int, username, password, fromEmail string) (*SMTPMailer, error) {
	if host == "" || fromEmail == "" {
		return nil, errors.New("smtp host and from email are required")
	}
	return &SMTPMailer{
		dialer:    mail.NewDialer(host, port, username, password),
		fromEmail: fromEmail,
	}, nil
}

// Send renders the named embedded template and delivers it, retrying
// transient failures a few times before giving up.
func (m *SMTPMailer) Send(templateFile, username, email string, data any) (int, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return -1, err
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return -1, err
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return -1, err
	}

	msg := mail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, FromName)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/html", body.String())

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = m.dialer.DialAndSend(msg); lastErr == nil {
			return 200, nil
		}
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return -1, lastErr
}
