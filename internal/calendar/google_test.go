package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/hilmarvdveen/hilmar-cv/internal/booking"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Google, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(context.Background(), Options{
		CalendarID:    "primary",
		Endpoint:      srv.URL + "/calendar/v3/",
		Location:      loc,
		ClientOptions: []option.ClientOption{option.WithHTTPClient(srv.Client()), option.WithoutAuthentication()},
	})
	require.NoError(t, err)
	return client, loc
}

func TestBusyIntervalsQueriesDayAndFiltersEvents(t *testing.T) {
	var method, path string
	var query map[string]string
	client, loc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		_ = json.NewEncoder(w).Encode(gcal.Events{Items: []*gcal.Event{
			{Id: "a", Start: &gcal.EventDateTime{DateTime: "2025-06-10T10:00:00+02:00"}, End: &gcal.EventDateTime{DateTime: "2025-06-10T10:30:00+02:00"}},
			{Id: "b", Status: "cancelled", Start: &gcal.EventDateTime{DateTime: "2025-06-10T11:00:00+02:00"}, End: &gcal.EventDateTime{DateTime: "2025-06-10T12:00:00+02:00"}},
			{Id: "c", Transparency: "transparent", Start: &gcal.EventDateTime{DateTime: "2025-06-10T13:00:00+02:00"}, End: &gcal.EventDateTime{DateTime: "2025-06-10T14:00:00+02:00"}},
			{Id: "d", Start: &gcal.EventDateTime{Date: "2025-06-10"}, End: &gcal.EventDateTime{Date: "2025-06-11"}},
		}})
	})

	day := time.Date(2025, 6, 10, 0, 0, 0, 0, loc)
	busy, err := client.BusyIntervals(context.Background(), day, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	require.Equal(t, http.MethodGet, method)
	require.Equal(t, "/calendar/v3/calendars/primary/events", path)
	require.Equal(t, "true", query["singleEvents"])
	require.Equal(t, "startTime", query["orderBy"])
	require.Equal(t, "Europe/Amsterdam", query["timeZone"])
	require.Equal(t, "2025-06-10T00:00:00+02:00", query["timeMin"])
	require.Equal(t, "2025-06-11T00:00:00+02:00", query["timeMax"])

	require.Len(t, busy, 2)
	require.True(t, busy[0].Start.Equal(time.Date(2025, 6, 10, 10, 0, 0, 0, loc)))
	require.True(t, busy[1].Start.Equal(day))
	require.True(t, busy[1].End.Equal(day.AddDate(0, 0, 1)))

	slots := booking.AvailableSlots(day, loc, busy)
	require.Empty(t, slots, "all-day events block the whole day")
}

func TestBusyIntervalsSurfacesUpstreamErrors(t *testing.T) {
	client, loc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	})
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, loc)
	_, err := client.BusyIntervals(context.Background(), day, day.AddDate(0, 0, 1))
	require.Error(t, err)
}

func TestCreateEventInsertsWithAttendee(t *testing.T) {
	var got gcal.Event
	var method, sendUpdates string
	client, loc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, sendUpdates = r.Method, r.URL.Query().Get("sendUpdates")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(gcal.Event{Id: "evt-123"})
	})

	start := time.Date(2025, 6, 10, 10, 0, 0, 0, loc)
	id, err := client.CreateEvent(context.Background(), booking.Event{
		Summary:       "Intake call with Ada",
		Start:         start,
		End:           start.Add(30 * time.Minute),
		AttendeeName:  "Ada",
		AttendeeEmail: "ada@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "evt-123", id)
	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "all", sendUpdates)
	require.Equal(t, "Intake call with Ada", got.Summary)
	require.Equal(t, "2025-06-10T10:00:00+02:00", got.Start.DateTime)
	require.Equal(t, "Europe/Amsterdam", got.End.TimeZone)
	require.Len(t, got.Attendees, 1)
	require.Equal(t, "ada@example.com", got.Attendees[0].Email)
}
