package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hilmarvdveen/hilmar-cv/internal/booking"
	"github.com/hilmarvdveen/hilmar-cv/internal/contact"
	"github.com/hilmarvdveen/hilmar-cv/internal/leads"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/httpx"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/requestctx"
)

// errorWriter maps service errors onto the JSON envelope. Client errors are answered with
// their message; everything else is logged and answered with a generic 500 that carries
// the cause only when expose is set.
type errorWriter struct {
	expose bool
}

// outcome classifies err for the form metrics.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if isClientError(err) {
		return "invalid"
	}
	return "error"
}

func isClientError(err error) bool {
	var contactErr *contact.ValidationError
	var leadErr *leads.ValidationError
	return booking.IsClientError(err) || errors.As(err, &contactErr) || errors.As(err, &leadErr)
}

func clientMessage(err error) string {
	var bookingErr *booking.ValidationError
	var contactErr *contact.ValidationError
	var leadErr *leads.ValidationError
	switch {
	case errors.Is(err, booking.ErrMissingDate):
		return "date parameter is required"
	case errors.Is(err, booking.ErrInvalidDate):
		return "invalid date format, expected YYYY-MM-DD"
	case errors.Is(err, booking.ErrPastDate):
		return "cannot book in the past"
	case errors.As(err, &bookingErr):
		return bookingErr.Error()
	case errors.As(err, &contactErr):
		return contactErr.Message
	case errors.As(err, &leadErr):
		return leadErr.Message
	}
	return strings.TrimSpace(err.Error())
}

func (ew errorWriter) write(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if isClientError(err) {
		httpx.WriteError(ctx, w, httpx.BadRequest(clientMessage(err)))
		return
	}

	logger := requestctx.Logger(ctx)
	message := "internal server error"
	switch {
	case errors.Is(err, booking.ErrNotConfigured),
		errors.Is(err, contact.ErrNotConfigured),
		errors.Is(err, leads.ErrNotConfigured):
		logger.Error(op+": service not configured", zap.Error(err))
		message = "service is not configured"
	default:
		var upstream *booking.UpstreamError
		if errors.As(err, &upstream) {
			logger.Error(op+": upstream call failed", zap.String("upstream_op", upstream.Op), zap.Error(err))
		} else {
			logger.Error(op+": failed", zap.Error(err))
		}
	}
	httpx.WriteError(ctx, w, httpx.Internal(message, err, ew.expose))
}
