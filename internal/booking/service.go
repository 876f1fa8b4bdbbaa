package booking

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	sitemail "github.com/hilmarvdveen/hilmar-cv/internal/mail"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Calendar is the booking calendar collaborator.
type Calendar interface {
	// BusyIntervals returns the commitments overlapping [from, to).
	BusyIntervals(ctx context.Context, from, to time.Time) ([]BusyInterval, error)
	// CreateEvent inserts ev and returns the provider event id.
	CreateEvent(ctx context.Context, ev Event) (string, error)
}

// Event is a booking to be written to the calendar.
type Event struct {
	Summary       string
	Description   string
	Start         time.Time
	End           time.Time
	TimeZone      string
	AttendeeName  string
	AttendeeEmail string
}

// MessageRenderer renders localized mail templates.
type MessageRenderer interface {
	Render(name, locale string, data any) (sitemail.Message, error)
}

// ServiceDeps bundles collaborators required to construct the booking service.
// Calendar, Mailer and Renderer may be nil; operations needing them fail with ErrNotConfigured.
type ServiceDeps struct {
	Calendar   Calendar
	Mailer     sitemail.Sender
	Renderer   MessageRenderer
	Location   *time.Location
	Clock      func() time.Time
	OwnerName  string
	OwnerEmail string
}

// Service computes availability and books intake calls.
type Service struct {
	calendar   Calendar
	mailer     sitemail.Sender
	renderer   MessageRenderer
	loc        *time.Location
	clock      func() time.Time
	ownerName  string
	ownerEmail string
	policy     *bluemonday.Policy
}

// SlotsResult is the slot query payload.
type SlotsResult struct {
	Slots          []TimeSlot `json:"slots"`
	Date           string     `json:"date"`
	TotalAvailable int        `json:"totalAvailable"`
}

// NewService constructs the booking service.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Location == nil {
		return nil, errors.New("booking service: location is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		calendar:   deps.Calendar,
		mailer:     deps.Mailer,
		renderer:   deps.Renderer,
		loc:        deps.Location,
		clock:      clock,
		ownerName:  strings.TrimSpace(deps.OwnerName),
		ownerEmail: strings.TrimSpace(deps.OwnerEmail),
		policy:     bluemonday.StrictPolicy(),
	}, nil
}

// Location returns the business timezone.
func (s *Service) Location() *time.Location { return s.loc }

// ParseDate validates a YYYY-MM-DD string and returns midnight of that day in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrMissingDate
	}
	if !datePattern.MatchString(raw) {
		return time.Time{}, ErrInvalidDate
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return day, nil
}

func (s *Service) today() time.Time {
	y, m, d := s.clock().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// Slots returns the free slots for date, labelled for locale. Validation and the past-date
// check run before the calendar is consulted.
func (s *Service) Slots(ctx context.Context, date, locale string) (SlotsResult, error) {
	day, err := ParseDate(date, s.loc)
	if err != nil {
		return SlotsResult{}, err
	}
	if day.Before(s.today()) {
		return SlotsResult{}, ErrPastDate
	}
	if s.calendar == nil {
		return SlotsResult{}, ErrNotConfigured
	}

	// AddDate keeps the window correct on DST transition days.
	busy, err := s.calendar.BusyIntervals(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return SlotsResult{}, &UpstreamError{Op: "list busy intervals", Err: err}
	}

	free := AvailableSlots(day, s.loc, busy)
	slots := make([]TimeSlot, 0, len(free))
	for _, start := range free {
		slots = append(slots, FormatSlot(start, s.loc, locale))
	}
	return SlotsResult{
		Slots:          slots,
		Date:           day.Format(time.DateOnly),
		TotalAvailable: len(slots),
	}, nil
}
