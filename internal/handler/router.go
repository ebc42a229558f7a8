package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inside-thenga/thenga/internal/middleware"
	"github.com/inside-thenga/thenga/pkg/logger"
)

// Handlers groups every endpoint handler served by the router.
type Handlers struct {
	Health  *HealthHandler
	Chat    *ChatHandler
	Speech  *SpeechHandler
	Device  *DeviceHandler
	Audio   *AudioHandler
	History *HistoryHandler
}

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter wires the HTTP API.
func NewRouter(h Handlers, opts RouterOptions, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(middleware.LimitBody(middleware.MaxBodyBytes))

	r.Get("/", Index)

	// Health endpoints
	r.Get("/health", h.Health.Health)
	r.Get("/ready", h.Health.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Routes that spend upstream quota
	r.Group(func(r chi.Router) {
		if opts.RateLimitRequests > 0 && opts.RateLimitWindow > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitRequests, opts.RateLimitWindow))
		}
		r.Post("/chat", h.Chat.Chat)
		r.Post("/tts", h.Speech.TTS)
	})

	r.Get("/voices", h.Speech.Voices)
	r.Get("/languages", h.Speech.Languages)
	r.Get("/sample_phrases", h.Speech.SamplePhrases)

	// Device endpoints
	r.Post("/esp32", h.Device.Command)
	r.Post("/esp32/button", h.Device.Button)
	r.Post("/esp32/pickup", h.Device.Pickup)
	r.Post("/esp32/gyro", h.Device.Gyro)
	r.Post("/esp32/placement", h.Device.Placement)

	r.Get("/audio/list", h.Audio.List)
	r.Post("/audio/play/{filename}", h.Audio.Play)

	r.Get("/history", h.History.History)
	r.Post("/clear_history", h.History.Clear)

	return r
}
