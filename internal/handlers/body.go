package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/hilmarvdveen/hilmar-cv/internal/platform/httpx"
)

const maxFormBodySize = 32 * 1024

var (
	errEmptyBody    = errors.New("request body is empty")
	errBodyTooLarge = errors.New("request body too large")
)

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = maxFormBodySize
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

// decodeForm reads a JSON form body into dst. The returned error is ready to be written.
func decodeForm(r *http.Request, dst any) *httpx.Error {
	body, err := readLimitedBody(r, maxFormBodySize)
	if err != nil {
		var e httpx.Error
		switch {
		case errors.Is(err, errEmptyBody):
			e = httpx.BadRequest("request body is required")
		case errors.Is(err, errBodyTooLarge):
			e = httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge)
		default:
			e = httpx.BadRequest(err.Error())
		}
		return &e
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		e := httpx.NewError("unsupported_media_type", "expected application/json", http.StatusUnsupportedMediaType)
		return &e
	}
	if err := json.Unmarshal(body, dst); err != nil {
		e := httpx.BadRequest("invalid JSON payload")
		return &e
	}
	return nil
}
