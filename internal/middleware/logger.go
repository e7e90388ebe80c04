package middleware

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/commentwall-backend/pkg/clientip"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const slowRequest = 500 * time.Millisecond

// Logger writes one line per request. Fast successful requests are logged at
// debug level so they don't drown out errors.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		latency := time.Since(start)

		level := zerolog.DebugLevel
		switch {
		case status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.InfoLevel
		case latency > slowRequest:
			level = zerolog.WarnLevel
		}

		log.WithLevel(level).
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("latency", latency).
			Str("ip", clientip.FromRequest(r)).
			Msg("request")
	})
}
