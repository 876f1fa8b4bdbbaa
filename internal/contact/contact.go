// Package contact relays contact form messages to the site owner.
package contact

import (
	"context"
	"errors"
	"fmt"
	"html"
	netmail "net/mail"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	sitemail "github.com/hilmarvdveen/hilmar-cv/internal/mail"
)

// MaxMessageLength bounds the message in characters.
const MaxMessageLength = 5000

const maxSubjectLength = 200

// ErrNotConfigured indicates the mailer or owner address is missing.
var ErrNotConfigured = errors.New("contact service: mailer is not configured")

// ValidationError reports an unusable submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Request is the contact form body.
type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
	Locale  string `json:"locale,omitempty"`
}

// Renderer renders localized mail templates.
type Renderer interface {
	Render(name, locale string, data any) (sitemail.Message, error)
}

// ServiceDeps bundles collaborators for the contact service.
type ServiceDeps struct {
	Mailer     sitemail.Sender
	Renderer   Renderer
	OwnerEmail string
}

// Service validates and forwards contact messages.
type Service struct {
	mailer   sitemail.Sender
	renderer Renderer
	owner    string
	policy   *bluemonday.Policy
}

// NewService constructs the contact service.
func NewService(deps ServiceDeps) *Service {
	return &Service{
		mailer:   deps.Mailer,
		renderer: deps.Renderer,
		owner:    strings.TrimSpace(deps.OwnerEmail),
		policy:   bluemonday.StrictPolicy(),
	}
}

func (s *Service) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

// Submit validates req and mails it to the owner with Reply-To set to the sender.
func (s *Service) Submit(ctx context.Context, req Request) error {
	name := s.clean(req.Name)
	email := strings.TrimSpace(req.Email)
	message := s.clean(req.Message)
	subject := s.clean(req.Subject)

	switch {
	case name == "":
		return &ValidationError{Field: "name", Message: "name is required"}
	case email == "":
		return &ValidationError{Field: "email", Message: "email is required"}
	case message == "":
		return &ValidationError{Field: "message", Message: "message is required"}
	}
	if addr, err := netmail.ParseAddress(email); err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Message: "invalid email address"}
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return &ValidationError{Field: "message", Message: fmt.Sprintf("message exceeds %d characters", MaxMessageLength)}
	}
	if subject == "" {
		subject = "New message from " + name
	}
	if utf8.RuneCountInString(subject) > maxSubjectLength {
		subject = string([]rune(subject)[:maxSubjectLength])
	}

	if s.mailer == nil || s.renderer == nil || s.owner == "" {
		return ErrNotConfigured
	}

	locale := "en"
	if strings.EqualFold(strings.TrimSpace(req.Locale), "nl") {
		locale = "nl"
	}
	msg, err := s.renderer.Render(sitemail.ContactNotification, "en", sitemail.ContactData{
		Name:    name,
		Email:   email,
		Subject: subject,
		Message: message,
		Locale:  locale,
	})
	if err != nil {
		return fmt.Errorf("contact: render notification: %w", err)
	}
	msg.To = []string{s.owner}
	msg.ReplyTo = (&netmail.Address{Name: name, Address: email}).String()
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("contact: send notification: %w", err)
	}
	return nil
}
