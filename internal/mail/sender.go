package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendFunc matches smtp.SendMail so tests can capture outgoing mail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPOptions configures an SMTPSender.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Send defaults to smtp.SendMail.
	Send SendFunc
	// Clock stamps the Date header; defaults to time.Now.
	Clock func() time.Time
}

// SMTPSender sends mail through an SMTP relay, authenticating with PLAIN when a username is set.
type SMTPSender struct {
	addr  string
	from  mail.Address
	auth  smtp.Auth
	send  SendFunc
	clock func() time.Time
}

// ErrNoRecipients is returned for a message without To addresses.
var ErrNoRecipients = errors.New("mail: message has no recipients")

// NewSMTPSender validates opts and builds a sender.
func NewSMTPSender(opts SMTPOptions) (*SMTPSender, error) {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		return nil, errors.New("mail: smtp host is required")
	}
	from, err := mail.ParseAddress(strings.TrimSpace(opts.From))
	if err != nil {
		return nil, fmt.Errorf("mail: invalid from address: %w", err)
	}
	port := opts.Port
	if port == 0 {
		port = 587
	}
	s := &SMTPSender{
		addr:  net.JoinHostPort(host, strconv.Itoa(port)),
		from:  *from,
		send:  opts.Send,
		clock: opts.Clock,
	}
	if s.send == nil {
		s.send = smtp.SendMail
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if user := strings.TrimSpace(opts.Username); user != "" {
		s.auth = smtp.PlainAuth("", user, opts.Password, host)
	}
	return s, nil
}

// From returns the envelope sender.
func (s *SMTPSender) From() string { return s.from.Address }

// Send renders msg as MIME and hands it to the relay. net/smtp has no context support,
// so ctx is only checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	recipients := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		addr, err := mail.ParseAddress(to)
		if err != nil {
			return fmt.Errorf("mail: invalid recipient %q: %w", to, err)
		}
		recipients = append(recipients, addr.Address)
	}
	raw, err := buildMessage(s.from, msg, s.clock())
	if err != nil {
		return err
	}
	if err := s.send(s.addr, s.auth, s.from.Address, recipients, raw); err != nil {
		return fmt.Errorf("mail: send via %s: %w", s.addr, err)
	}
	return nil
}
