package server

import (
	"errors"
	"net/http"
	"reflect"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/example/wedding-rsvp-mailer/internal/composer"
	"github.com/example/wedding-rsvp-mailer/internal/config"
	"github.com/example/wedding-rsvp-mailer/internal/dispatch"
	"github.com/example/wedding-rsvp-mailer/internal/health"
	"github.com/example/wedding-rsvp-mailer/internal/response"
	rsvpvalidator "github.com/example/wedding-rsvp-mailer/internal/validator/rsvp"
)

// Deps are the components the HTTP layer drives.
type Deps struct {
	Validator  *rsvpvalidator.Validator
	Composer   *composer.Composer
	Dispatcher *dispatch.Dispatcher
	Prober     *health.Prober
	// Now is the clock for envelopes and tracking data; time.Now when nil.
	Now func() time.Time
}

// Server exposes the RSVP API over HTTP.
type Server struct {
	cfg        *config.Config
	validator  *rsvpvalidator.Validator
	composer   *composer.Composer
	dispatcher *dispatch.Dispatcher
	prober     *health.Prober
	responses  *response.Builder
	limiter    *ipLimiter
	now        func() time.Time
	logger     zerolog.Logger
	engine     *gin.Engine
}

// New wires a Server and builds its router.
func New(cfg *config.Config, deps Deps, logger zerolog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	if deps.Validator == nil || deps.Composer == nil || deps.Dispatcher == nil || deps.Prober == nil {
		return nil, errors.New("server: validator, composer, dispatcher and prober are required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		cfg:        cfg,
		validator:  deps.Validator,
		composer:   deps.Composer,
		dispatcher: deps.Dispatcher,
		prober:     deps.Prober,
		responses:  response.NewBuilder(now),
		limiter:    newIPLimiter(cfg.HTTP.MaxRequestsPerMinute, now),
		now:        now,
		logger:     logger.With().Str("component", "http").Logger(),
	}
	s.engine = s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) routes() *gin.Engine {
	if s.cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	mux := gin.New()
	mux.Use(
		s.recovery(),
		otelgin.Middleware(s.cfg.Telemetry.ServiceName),
		s.requestLogger(),
		s.cors(),
		s.rateLimit(),
		s.bodyLimit(),
	)

	mux.GET("/", s.root)
	mux.GET("/health", s.health)

	api := mux.Group("/api/email")
	api.POST("/rsvp", s.requireJSON(), s.sendRSVP)
	api.GET("/status", s.status)
	api.POST("/test", s.requireJSON(), s.sendTest)

	mux.NoRoute(s.notFound)
	return mux
}
