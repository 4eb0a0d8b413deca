package middleware

import (
	"log/slog"
	"net/http"
	"strings"
)

// ValidateContentType ensures mutating requests carry a body encoding
// the handlers understand: JSON everywhere, multipart on member create
// and update (avatar upload).
func ValidateContentType(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if strings.Contains(contentType, "application/json") {
				next.ServeHTTP(w, r)
				return
			}
			if strings.Contains(contentType, "multipart/form-data") && allowsMultipart(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			log.Warn("invalid content type",
				slog.String("path", r.URL.Path),
				slog.String("content_type", contentType),
				slog.String("method", r.Method),
			)
			http.Error(w, `{"error":"unsupported content type"}`, http.StatusUnsupportedMediaType)
		})
	}
}

func allowsMultipart(path string) bool {
	return path == "/api/members" || strings.HasPrefix(path, "/api/members/")
}
