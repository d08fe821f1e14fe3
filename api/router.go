package api

import (
	"net/http"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter mounts every endpoint with the shared middleware stack.
func NewRouter(d *Deps, allowedOrigins []string) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
	})

	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/send-otp", SendRegistrationCodeHandler(d))
		r.Post("/verify-otp", VerifyCodeHandler(d, models.PurposeRegister))
		r.Post("/register", RegisterHandler(d))
		r.Post("/login", LoginHandler(d))
		r.Get("/session", SessionHandler(d))

		r.Post("/forgot-password/send-otp", SendResetCodeHandler(d))
		r.Post("/forgot-password/verify-otp", VerifyCodeHandler(d, models.PurposeReset))
		r.Post("/reset-password", ResetPasswordHandler(d))
	})

	return router
}

// requestLogger logs one line per request without bodies.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(start)),
			zap.String("req", middleware.GetReqID(r.Context())),
		}
		if ww.Status() >= http.StatusInternalServerError {
			logging.Warn("HTTP request failed", fields...)
			return
		}
		logging.Info("HTTP request", fields...)
	})
}
