package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/manekigames/merit-engine/internal/logger"
)

// requestLogger tags each request with an ID and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		log := s.log.With("request_id", reqID)
		w.Header().Set("X-Request-ID", reqID)

		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context(), log)))

		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func parseFloat(r *http.Request, key string) (float64, bool) {
	sv := r.URL.Query().Get(key)
	if sv == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(sv, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseInt64(r *http.Request, key string) (int64, bool) {
	sv := r.URL.Query().Get(key)
	if sv == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(sv, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
