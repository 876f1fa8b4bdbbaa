package handlers

import (
	"net/http"
	"strings"

	"github.com/hilmarvdveen/hilmar-cv/internal/i18n"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/requestctx"
)

// Locale stores the request locale on the context. Pages take it from the URL prefix so
// every URL has exactly one language; API calls use ?locale= or Accept-Language.
func Locale(bundle *i18n.Bundle, defaultLocale string, supported []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var locale string
			if strings.HasPrefix(r.URL.Path, "/api/") {
				if q, ok := bundle.Normalize(r.URL.Query().Get("locale")); ok {
					locale = q
				} else {
					locale = bundle.Resolve(r.Header.Get("Accept-Language"))
				}
				w.Header().Add("Vary", "Accept-Language")
			} else {
				locale, _ = i18n.SplitPath(r.URL.Path, defaultLocale, supported)
			}
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(requestctx.WithLocale(r.Context(), locale)))
		})
	}
}
