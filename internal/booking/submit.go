package booking

import (
	"context"
	"fmt"
	"html"
	netmail "net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	sitemail "github.com/hilmarvdveen/hilmar-cv/internal/mail"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/requestctx"
)

const maxMessageLength = 5000

// Request is the booking submission body.
type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Date    string `json:"date"`
	Message string `json:"message,omitempty"`
	Locale  string `json:"locale,omitempty"`
}

// Confirmation is returned after the event was created and the confirmation mail sent.
type Confirmation struct {
	EventID string `json:"eventId"`
	Start   string `json:"start"`
}

type validRequest struct {
	name    string
	email   string
	start   time.Time
	message string
	locale  string
}

func (s *Service) validate(req Request) (validRequest, error) {
	out := validRequest{
		name:   strings.TrimSpace(req.Name),
		email:  strings.TrimSpace(req.Email),
		locale: "en",
	}
	if strings.EqualFold(strings.TrimSpace(req.Locale), "nl") {
		out.locale = "nl"
	}
	date := strings.TrimSpace(req.Date)

	var missing []string
	if out.name == "" {
		missing = append(missing, "name")
	}
	if out.email == "" {
		missing = append(missing, "email")
	}
	if date == "" {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return out, &ValidationError{Fields: missing, Message: "name, email and date are required"}
	}

	addr, err := netmail.ParseAddress(out.email)
	if err != nil || addr.Address != out.email {
		return out, &ValidationError{Fields: []string{"email"}, Message: "invalid email address"}
	}
	start, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return out, &ValidationError{Fields: []string{"date"}, Message: "invalid date, expected an RFC 3339 timestamp"}
	}
	if start.Before(s.clock()) {
		return out, ErrPastDate
	}
	out.start = start

	// StrictPolicy escapes entities; mail bodies want the plain text back
	msg := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(req.Message)))
	if utf8.RuneCountInString(msg) > maxMessageLength {
		return out, &ValidationError{Fields: []string{"message"}, Message: fmt.Sprintf("message exceeds %d characters", maxMessageLength)}
	}
	out.message = msg
	return out, nil
}

// Submit books an intake call: it creates a 30 minute calendar event and mails a localized
// confirmation. An event that was created stays in place when the mail fails.
func (s *Service) Submit(ctx context.Context, req Request) (Confirmation, error) {
	in, err := s.validate(req)
	if err != nil {
		return Confirmation{}, err
	}
	if s.calendar == nil || s.mailer == nil || s.renderer == nil {
		return Confirmation{}, ErrNotConfigured
	}

	logger := requestctx.Logger(ctx)
	description := "Booked via the website by " + in.email
	if in.message != "" {
		description += "\n\n" + in.message
	}
	eventID, err := s.calendar.CreateEvent(ctx, Event{
		Summary:       "Intake call with " + in.name,
		Description:   description,
		Start:         in.start,
		End:           in.start.Add(SlotDuration),
		TimeZone:      s.loc.String(),
		AttendeeName:  in.name,
		AttendeeEmail: in.email,
	})
	if err != nil {
		return Confirmation{}, &UpstreamError{Op: "create calendar event", Err: err}
	}

	if err := s.sendConfirmation(ctx, in); err != nil {
		logger.Error("booking: event created but confirmation mail failed",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return Confirmation{}, &UpstreamError{Op: "send confirmation", Err: err}
	}

	return Confirmation{EventID: eventID, Start: in.start.UTC().Format(time.RFC3339)}, nil
}

func (s *Service) sendConfirmation(ctx context.Context, in validRequest) error {
	local := in.start.In(s.loc)
	msg, err := s.renderer.Render(sitemail.BookingConfirmation, in.locale, sitemail.BookingData{
		Name:     in.name,
		Date:     local.Format("02-01-2006"),
		Time:     FormatSlot(in.start, s.loc, in.locale).Label,
		Timezone: s.loc.String(),
		Message:  in.message,
		Owner:    s.ownerName,
	})
	if err != nil {
		return err
	}
	msg.To = []string{(&netmail.Address{Name: in.name, Address: in.email}).String()}
	msg.ReplyTo = s.ownerEmail
	return s.mailer.Send(ctx, msg)
}
