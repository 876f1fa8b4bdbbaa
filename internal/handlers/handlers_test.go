package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilmarvdveen/hilmar-cv/internal/booking"
	"github.com/hilmarvdveen/hilmar-cv/internal/contact"
	"github.com/hilmarvdveen/hilmar-cv/internal/i18n"
	"github.com/hilmarvdveen/hilmar-cv/internal/leads"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/observability"
	"github.com/hilmarvdveen/hilmar-cv/internal/profile"
	"github.com/hilmarvdveen/hilmar-cv/internal/seo"
	"github.com/hilmarvdveen/hilmar-cv/internal/view"
)

type stubBooking struct {
	slots      booking.SlotsResult
	slotsErr   error
	confirm    booking.Confirmation
	submitErr  error
	gotDate    string
	gotLocale  string
	gotRequest booking.Request
}

func (s *stubBooking) Slots(_ context.Context, date, locale string) (booking.SlotsResult, error) {
	s.gotDate, s.gotLocale = date, locale
	return s.slots, s.slotsErr
}

func (s *stubBooking) Submit(_ context.Context, req booking.Request) (booking.Confirmation, error) {
	s.gotRequest = req
	return s.confirm, s.submitErr
}

type stubContact struct {
	err error
	got contact.Request
}

func (s *stubContact) Submit(_ context.Context, req contact.Request) error {
	s.got = req
	return s.err
}

type stubLeads struct {
	result    leads.Result
	err       error
	got       leads.Request
	userAgent string
}

func (s *stubLeads) Capture(_ context.Context, req leads.Request, userAgent string) (leads.Result, error) {
	s.got, s.userAgent = req, userAgent
	return s.result, s.err
}

type testSite struct {
	booking *stubBooking
	contact *stubContact
	leads   *stubLeads
	metrics *observability.Metrics
	router  http.Handler
}

type siteOptions struct {
	expose    bool
	formLimit int
}

func newTestSite(t *testing.T, opts siteOptions) *testSite {
	t.Helper()
	p, err := profile.Default()
	require.NoError(t, err)
	bundle, err := i18n.Default()
	require.NoError(t, err)
	gen, err := seo.NewGenerator(p, seo.WithTranslator(bundle.T))
	require.NoError(t, err)
	renderer, err := view.New()
	require.NoError(t, err)

	site := &testSite{
		booking: &stubBooking{},
		contact: &stubContact{},
		leads:   &stubLeads{},
		metrics: observability.NewMetrics(),
	}
	limiter := NewRateLimiter(opts.formLimit, time.Minute, nil)
	bookingHandlers := NewBookingHandlers(site.booking, site.metrics, limiter, opts.expose)
	forms := NewFormHandlers(site.contact, site.leads, site.metrics, limiter, opts.expose)
	pages := NewPageHandlers(gen, renderer, bundle)

	site.router = NewRouter(
		WithMiddlewares(Locale(bundle, p.DefaultLocale, p.Locales)),
		WithMetricsHandler(site.metrics.Handler()),
		WithSiteFiles(gen),
		WithPageRoutes(pages.Routes, "/nl"),
		WithBookingRoutes(bookingHandlers.Routes),
		WithContactRoutes(forms.ContactRoutes),
		WithLeadRoutes(forms.LeadRoutes),
	)
	return site
}

func (s *testSite) do(t *testing.T, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func (s *testSite) formCount(t *testing.T, form, result string) float64 {
	t.Helper()
	families, err := s.metrics.Gatherer().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "site_form_submissions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["form"] == form && labels["outcome"] == result {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestSlotsEndpoint(t *testing.T) {
	site := newTestSite(t, siteOptions{})
	site.booking.slots = booking.SlotsResult{
		Slots:          []booking.TimeSlot{{Value: "2025-06-10T07:00:00Z", Label: "09:00"}},
		Date:           "2025-06-10",
		TotalAvailable: 1,
	}

	rr := site.do(t, http.MethodGet, "/api/booking/slots?date=2025-06-10", "", map[string]string{"Accept-Language": "nl-NL,nl;q=0.9"})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "2025-06-10", site.booking.gotDate)
	assert.Equal(t, "nl", site.booking.gotLocale)
	body := decodeBody(t, rr)
	assert.Equal(t, "2025-06-10", body["date"])
	assert.Equal(t, float64(1), body["totalAvailable"])
	slots := body["slots"].([]any)
	require.Len(t, slots, 1)
	assert.Equal(t, map[string]any{"value": "2025-06-10T07:00:00Z", "label": "09:00"}, slots[0])
}

func TestSlotsLocaleQueryWins(t *testing.T) {
	site := newTestSite(t, siteOptions{})
	rr := site.do(t, http.MethodGet, "/api/booking/slots?date=2025-06-10&locale=en", "", map[string]string{"Accept-Language": "nl"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "en", site.booking.gotLocale)
}

func TestSlotsErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		expose  bool
		status  int
		message string
		details bool
	}{
		{"missing", booking.ErrMissingDate, false, http.StatusBadRequest, "date parameter is required", false},
		{"malformed", booking.ErrInvalidDate, false, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD", false},
		{"past", booking.ErrPastDate, false, http.StatusBadRequest, "cannot book in the past", false},
		{"not configured", booking.ErrNotConfigured, false, http.StatusInternalServerError, "service is not configured", false},
		{"upstream prod", &booking.UpstreamError{Op: "list busy intervals", Err: errors.New("quota exceeded")}, false, http.StatusInternalServerError, "internal server error", false},
		{"upstream dev", &booking.UpstreamError{Op: "list busy intervals", Err: errors.New("quota exceeded")}, true, http.StatusInternalServerError, "internal server error", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			site := newTestSite(t, siteOptions{expose: tc.expose})
			site.booking.slotsErr = tc.err

			rr := site.do(t, http.MethodGet, "/api/booking/slots?date=2025-06-10", "", nil)

			require.Equal(t, tc.status, rr.Code)
			body := decodeBody(t, rr)
			assert.Equal(t, tc.message, body["message"])
			details, ok := body["details"]
			assert.Equal(t, tc.details, ok)
			if tc.details {
				assert.Contains(t, details, "quota exceeded")
			}
		})
	}
}

func TestBookingSubmit(t *testing.T) {
	site := newTestSite(t, siteOptions{})
	site.booking.confirm = booking.Confirmation{EventID: "evt-1", Start: "2025-06-10T08:00:00Z"}

	rr := site.do(t, http.MethodPost, "/api/booking?locale=nl", `{"name":"Ada","email":"ada@example.com","date":"2025-06-10T08:00:00Z"}`, nil)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, map[string]any{"success": true, "eventId": "evt-1", "start": "2025-06-10T08:00:00Z"}, decodeBody(t, rr))
	assert.Equal(t, "nl", site.booking.gotRequest.Locale)
	assert.Equal(t, float64(1), site.formCount(t, "booking", "ok"))
}

func TestBookingSubmitRejectsBadBodies(t *testing.T) {
	site := newTestSite(t, siteOptions{})

	rr := site.do(t, http.MethodPost, "/api/booking", `{"name":`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid JSON payload", decodeBody(t, rr)["message"])

	req := httptest.NewRequest(http.MethodPost, "/api/booking", nil)
	empty := httptest.NewRecorder()
	site.router.ServeHTTP(empty, req)
	require.Equal(t, http.StatusBadRequest, empty.Code)

	site.booking.submitErr = &booking.ValidationError{Fields: []string{"email"}, Message: "invalid email address"}
	rr = site.do(t, http.MethodPost, "/api/booking", `{"name":"Ada","email":"nope","date":"2025-06-10T08:00:00Z"}`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid email address", decodeBody(t, rr)["message"])
	assert.Equal(t, float64(3), site.formCount(t, "booking", "invalid"))
}

func TestContactEndpoint(t *testing.T) {
	site := newTestSite(t, siteOptions{})

	rr := site.do(t, http.MethodPost, "/api/contact", `{"name":"Ada","email":"ada@example.com","message":"Hi"}`, map[string]string{"Accept-Language": "nl"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, map[string]any{"success": true}, decodeBody(t, rr))
	assert.Equal(t, "nl", site.contact.got.Locale)

	site.contact.err = &contact.ValidationError{Field: "message", Message: "message is required"}
	rr = site.do(t, http.MethodPost, "/api/contact", `{"name":"Ada","email":"ada@example.com"}`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "message is required", decodeBody(t, rr)["message"])

	site.contact.err = contact.ErrNotConfigured
	rr = site.do(t, http.MethodPost, "/api/contact", `{"name":"Ada","email":"ada@example.com","message":"Hi"}`, nil)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestContactRejectsNonJSON(t *testing.T) {
	site := newTestSite(t, siteOptions{})
	rr := site.do(t, http.MethodPost, "/api/contact", "name=Ada", map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestLeadEndpoint(t *testing.T) {
	site := newTestSite(t, siteOptions{})
	site.leads.result = leads.Result{LeadID: "01J0000000000000000000000", DownloadURL: "/assets/cv/cv-en.pdf"}

	rr := site.do(t, http.MethodPost, "/api/cv-download", `{"name":"Ada","email":"ada@example.com","company":"ACME"}`, map[string]string{"User-Agent": "test-agent"})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, map[string]any{
		"success":     true,
		"leadId":      "01J0000000000000000000000",
		"downloadUrl": "/assets/cv/cv-en.pdf",
	}, decodeBody(t, rr))
	assert.Equal(t, "test-agent", site.leads.userAgent)
	assert.Equal(t, "ACME", site.leads.got.Company)
	assert.Equal(t, "en", site.leads.got.Locale)
}

func TestFormsAreRateLimited(t *testing.T) {
	site := newTestSite(t, siteOptions{formLimit: 2})
	body := `{"name":"Ada","email":"ada@example.com","message":"Hi"}`

	for i := 0; i < 2; i++ {
		rr := site.do(t, http.MethodPost, "/api/contact", body, nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := site.do(t, http.MethodPost, "/api/contact", body, nil)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "rate_limited", decodeBody(t, rr)["error"])
	assert.Equal(t, float64(1), site.formCount(t, "contact", "rate_limited"))

	// separate forms keep separate budgets
	rr = site.do(t, http.MethodPost, "/api/cv-download", `{"name":"Ada","email":"ada@example.com"}`, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUnknownAPIRoute(t *testing.T) {
	site := newTestSite(t, siteOptions{})
	rr := site.do(t, http.MethodGet, "/api/unknown", "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "route_not_found", decodeBody(t, rr)["error"])

	rr = site.do(t, http.MethodGet, "/api/contact", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestUnwiredAPIGroupIsNotImplemented(t *testing.T) {
	router := NewRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}
