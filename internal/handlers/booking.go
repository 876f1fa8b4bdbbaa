package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hilmarvdveen/hilmar-cv/internal/booking"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/httpx"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/observability"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/requestctx"
)

// BookingService is the booking behaviour the handlers need.
type BookingService interface {
	Slots(ctx context.Context, date, locale string) (booking.SlotsResult, error)
	Submit(ctx context.Context, req booking.Request) (booking.Confirmation, error)
}

// BookingHandlers exposes slot availability and booking submission.
type BookingHandlers struct {
	service      BookingService
	metrics      *observability.Metrics
	limiter      RateLimiter
	slotsLimiter RateLimiter
	errors       errorWriter
}

// NewBookingHandlers constructs the booking endpoints. limiter guards submissions only.
func NewBookingHandlers(service BookingService, metrics *observability.Metrics, limiter RateLimiter, expose bool) *BookingHandlers {
	return &BookingHandlers{service: service, metrics: metrics, limiter: limiter, errors: errorWriter{expose: expose}}
}

// WithSlotsLimiter throttles slot queries separately from submissions.
func (h *BookingHandlers) WithSlotsLimiter(limiter RateLimiter) *BookingHandlers {
	h.slotsLimiter = limiter
	return h
}

// Routes registers GET /slots and POST /.
func (h *BookingHandlers) Routes(r chi.Router) {
	r.With(rateLimit(h.slotsLimiter, "slots", h.metrics)).Get("/slots", h.slots)
	r.With(rateLimit(h.limiter, "booking", h.metrics)).Post("/", h.submit)
}

func (h *BookingHandlers) slots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	locale := q.Get("locale")
	if locale == "" {
		locale = requestctx.Locale(ctx)
	}

	result, err := h.service.Slots(ctx, q.Get("date"), locale)
	if err != nil {
		h.metrics.SlotQuery(outcome(err), 0)
		h.errors.write(ctx, w, "booking slots", err)
		return
	}
	h.metrics.SlotQuery("ok", result.TotalAvailable)
	httpx.WriteJSON(w, http.StatusOK, result)
}

type bookingResponse struct {
	Success bool `json:"success"`
	booking.Confirmation
}

func (h *BookingHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req booking.Request
	if herr := decodeForm(r, &req); herr != nil {
		h.metrics.FormSubmission("booking", "invalid")
		httpx.WriteError(ctx, w, *herr)
		return
	}
	if req.Locale == "" {
		req.Locale = requestctx.Locale(ctx)
	}

	confirmation, err := h.service.Submit(ctx, req)
	h.metrics.FormSubmission("booking", outcome(err))
	if err != nil {
		h.errors.write(ctx, w, "booking submit", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, bookingResponse{Success: true, Confirmation: confirmation})
}
