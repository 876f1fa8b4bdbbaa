// Package calendar adapts Google Calendar v3 to the booking service.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/hilmarvdveen/hilmar-cv/internal/booking"
)

// Options configures the Google Calendar client.
type Options struct {
	CalendarID      string
	CredentialsJSON []byte
	CredentialsFile string
	Endpoint        string
	Location        *time.Location
	ClientOptions   []option.ClientOption
}

// Google reads busy time from and writes bookings to a single calendar.
type Google struct {
	events     *gcal.EventsService
	calendarID string
	loc        *time.Location
}

var _ booking.Calendar = (*Google)(nil)

// New builds the client. Application default credentials are used when neither
// CredentialsJSON nor CredentialsFile is set.
func New(ctx context.Context, opts Options) (*Google, error) {
	if opts.Location == nil {
		return nil, errors.New("calendar: location is required")
	}
	calendarID := strings.TrimSpace(opts.CalendarID)
	if calendarID == "" {
		calendarID = "primary"
	}

	clientOpts := []option.ClientOption{option.WithScopes(gcal.CalendarEventsScope)}
	switch {
	case len(opts.CredentialsJSON) > 0:
		clientOpts = append(clientOpts, option.WithCredentialsJSON(opts.CredentialsJSON))
	case strings.TrimSpace(opts.CredentialsFile) != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if endpoint := strings.TrimSpace(opts.Endpoint); endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(endpoint))
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	svc, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: create service: %w", err)
	}
	return &Google{events: svc.Events, calendarID: calendarID, loc: opts.Location}, nil
}

// BusyIntervals lists the single events overlapping [from, to). Cancelled and transparent
// ("free") events are skipped; all-day events block their whole dates.
func (g *Google) BusyIntervals(ctx context.Context, from, to time.Time) ([]booking.BusyInterval, error) {
	call := g.events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		TimeZone(g.loc.String()).
		MaxResults(250)

	var busy []booking.BusyInterval
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			if item == nil || item.Status == "cancelled" || item.Transparency == "transparent" {
				continue
			}
			interval, err := g.interval(item)
			if err != nil {
				return fmt.Errorf("event %s: %w", item.Id, err)
			}
			busy = append(busy, interval)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("calendar: list events: %w", err)
	}
	return busy, nil
}

func (g *Google) interval(item *gcal.Event) (booking.BusyInterval, error) {
	start, err := g.parseEventTime(item.Start)
	if err != nil {
		return booking.BusyInterval{}, err
	}
	end, err := g.parseEventTime(item.End)
	if err != nil {
		return booking.BusyInterval{}, err
	}
	return booking.BusyInterval{Start: start, End: end}, nil
}

// parseEventTime reads a timed instant, or the midnight of an all-day date in the business zone.
// All-day end dates are exclusive, so midnight is the right end bound.
func (g *Google) parseEventTime(t *gcal.EventDateTime) (time.Time, error) {
	if t == nil {
		return time.Time{}, errors.New("missing start or end")
	}
	if t.DateTime != "" {
		return time.Parse(time.RFC3339, t.DateTime)
	}
	if t.Date != "" {
		return time.ParseInLocation(time.DateOnly, t.Date, g.loc)
	}
	return time.Time{}, errors.New("event time has neither dateTime nor date")
}

// CreateEvent inserts the booking and invites the attendee.
func (g *Google) CreateEvent(ctx context.Context, ev booking.Event) (string, error) {
	tz := ev.TimeZone
	if tz == "" {
		tz = g.loc.String()
	}
	event := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339), TimeZone: tz},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339), TimeZone: tz},
	}
	if ev.AttendeeEmail != "" {
		event.Attendees = []*gcal.EventAttendee{{Email: ev.AttendeeEmail, DisplayName: ev.AttendeeName}}
	}
	created, err := g.events.Insert(g.calendarID, event).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: insert event: %w", err)
	}
	return created.Id, nil
}
