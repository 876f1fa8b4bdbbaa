package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hilmarvdveen/hilmar-cv/internal/contact"
	"github.com/hilmarvdveen/hilmar-cv/internal/leads"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/httpx"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/observability"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/requestctx"
)

// ContactService relays contact messages.
type ContactService interface {
	Submit(ctx context.Context, req contact.Request) error
}

// LeadService captures CV download leads.
type LeadService interface {
	Capture(ctx context.Context, req leads.Request, userAgent string) (leads.Result, error)
}

// FormHandlers serves the contact and CV download forms.
type FormHandlers struct {
	contact ContactService
	leads   LeadService
	metrics *observability.Metrics
	limiter RateLimiter
	errors  errorWriter
}

// NewFormHandlers constructs the form endpoints sharing one limiter.
func NewFormHandlers(contactSvc ContactService, leadSvc LeadService, metrics *observability.Metrics, limiter RateLimiter, expose bool) *FormHandlers {
	return &FormHandlers{
		contact: contactSvc,
		leads:   leadSvc,
		metrics: metrics,
		limiter: limiter,
		errors:  errorWriter{expose: expose},
	}
}

// ContactRoutes registers POST / for the contact form.
func (h *FormHandlers) ContactRoutes(r chi.Router) {
	r.With(rateLimit(h.limiter, "contact", h.metrics)).Post("/", h.submitContact)
}

// LeadRoutes registers POST / for the CV download form.
func (h *FormHandlers) LeadRoutes(r chi.Router) {
	r.With(rateLimit(h.limiter, "cv_download", h.metrics)).Post("/", h.captureLead)
}

type successResponse struct {
	Success bool `json:"success"`
}

func (h *FormHandlers) submitContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req contact.Request
	if herr := decodeForm(r, &req); herr != nil {
		h.metrics.FormSubmission("contact", "invalid")
		httpx.WriteError(ctx, w, *herr)
		return
	}
	if req.Locale == "" {
		req.Locale = requestctx.Locale(ctx)
	}

	err := h.contact.Submit(ctx, req)
	h.metrics.FormSubmission("contact", outcome(err))
	if err != nil {
		h.errors.write(ctx, w, "contact submit", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

type leadResponse struct {
	Success bool `json:"success"`
	leads.Result
}

func (h *FormHandlers) captureLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req leads.Request
	if herr := decodeForm(r, &req); herr != nil {
		h.metrics.FormSubmission("cv_download", "invalid")
		httpx.WriteError(ctx, w, *herr)
		return
	}
	if req.Locale == "" {
		req.Locale = requestctx.Locale(ctx)
	}

	result, err := h.leads.Capture(ctx, req, r.UserAgent())
	h.metrics.FormSubmission("cv_download", outcome(err))
	if err != nil {
		h.errors.write(ctx, w, "cv download", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, leadResponse{Success: true, Result: result})
}
