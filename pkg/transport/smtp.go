package transport

import (
	"context"
	"errors"
	"net"
	"os"

	mail "github.com/wneessen/go-mail"

	errs "feedreach/pkg/errors"
)

// SMTPSender delivers messages over SMTPS with login authentication
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
}

// NewSMTPSender creates an SMTP transport
func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

// Send delivers one message, attaching the file when configured
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.host,
		mail.WithPort(s.port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(s.username),
		mail.WithPassword(s.password),
	)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, "failed to create smtp client", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return classifySendError(err)
	}

	return nil
}

// buildMessage assembles the MIME message shared by both transports
func buildMessage(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if msg.From != "" {
		if err := m.From(msg.From); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeRejected, "invalid sender address", err)
		}
	}
	if err := m.To(msg.To); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeRejected, "invalid recipient address", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	if msg.AttachmentPath != "" {
		if _, err := os.Stat(msg.AttachmentPath); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeNotFound, "attachment not found", err)
		}
		m.AttachFile(msg.AttachmentPath)
	}

	return m, nil
}

// classifySendError maps SMTP failures onto the error taxonomy
func classifySendError(err error) error {
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		if sendErr.IsTemp() {
			return errs.Wrap(errs.ErrorTypeNetwork, "temporary smtp failure", err)
		}
		return errs.Wrap(errs.ErrorTypeRejected, "message rejected by smtp server", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return errs.Wrap(errs.ErrorTypeNetwork, "network failure during send", err)
	}

	return errs.Wrap(errs.ErrorTypeNetwork, "send failed", err)
}
