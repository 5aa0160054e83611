package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
)

// AllowContentType rejects requests whose body is not one of the given media types.
// Bodyless requests pass. It follows chi's AllowContentType but answers with the
// JSON error body every other failure uses.
func AllowContentType(contentTypes ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(contentTypes))
	for _, ct := range contentTypes {
		allowed[strings.TrimSpace(strings.ToLower(ct))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Content-Type")
			mediaType, _, _ := strings.Cut(header, ";")
			mediaType = strings.ToLower(strings.TrimSpace(mediaType))

			if _, ok := allowed[mediaType]; !ok {
				respond.Message(w, http.StatusUnsupportedMediaType,
					fmt.Sprintf("unsupported content type %q", header))

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
