package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/clubos/internal/auth"
	"github.com/smallbiznis/clubos/internal/auth/session"
	"github.com/smallbiznis/clubos/internal/authorization"
	"github.com/smallbiznis/clubos/internal/booking"
	bookingdomain "github.com/smallbiznis/clubos/internal/booking/domain"
	"github.com/smallbiznis/clubos/internal/clock"
	"github.com/smallbiznis/clubos/internal/config"
	"github.com/smallbiznis/clubos/internal/events"
	"github.com/smallbiznis/clubos/internal/lead"
	leaddomain "github.com/smallbiznis/clubos/internal/lead/domain"
	"github.com/smallbiznis/clubos/internal/observability"
	obsmiddleware "github.com/smallbiznis/clubos/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/clubos/internal/observability/metrics"
	obstracing "github.com/smallbiznis/clubos/internal/observability/tracing"
	"github.com/smallbiznis/clubos/internal/payment"
	"github.com/smallbiznis/clubos/internal/payment/webhook"
	"github.com/smallbiznis/clubos/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	config.Module,
	clock.Module,
	fx.Provide(registerGin),
	auth.Module,
	authorization.Module,
	booking.Module,
	payment.Module,
	lead.Module,
	ratelimit.Module,
	events.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, cfg config.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", headerAdminToken, obsmiddleware.HeaderRequestID},
			ExposeHeaders:    []string{obsmiddleware.HeaderRequestID, obsmiddleware.HeaderCorrelationID, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, cfg config.Config) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics, cfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	sessions   *session.Manager
	guard      *authorization.Guard
	bookings   bookingdomain.LookupService
	webhooks   *webhook.Service
	leadSvc    leaddomain.Service
	limiter    *ratelimit.PublicLimiter
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Sessions   *session.Manager
	Guard      *authorization.Guard
	Bookings   bookingdomain.LookupService
	Webhooks   *webhook.Service
	LeadSvc    leaddomain.Service
	Limiter    *ratelimit.PublicLimiter `optional:"true"`
	ObsMetrics *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		sessions:   p.Sessions,
		guard:      p.Guard,
		bookings:   p.Bookings,
		webhooks:   p.Webhooks,
		leadSvc:    p.LeadSvc,
		limiter:    p.Limiter,
		obsMetrics: p.ObsMetrics,
	}
	s.registerWebhookRoutes()
	s.registerPublicRoutes()
	s.registerBackofficeRoutes()
	s.registerClubRoutes()
	s.registerLeadRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerWebhookRoutes() {
	hooks := s.engine.Group("/api/webhooks")
	hooks.POST("/stripe", s.HandleStripeWebhook)
	hooks.GET("/mercadopago", s.HandleMercadoPagoWebhook)
	hooks.POST("/mercadopago", s.HandleMercadoPagoWebhook)
}

func (s *Server) registerPublicRoutes() {
	bookings := s.engine.Group("/api/bookings", s.PublicRateLimit(ratelimit.EndpointLookup))
	bookings.GET("/lookup", s.LookupBooking)
	bookings.GET("/session", s.LookupBookingBySession)
}

func (s *Server) registerBackofficeRoutes() {
	backoffice := s.engine.Group("/api/backoffice", s.PlatformAdminRequired())
	backoffice.GET("/session", s.CurrentActor)
	backoffice.GET("/bookings/:bookingId", s.GetBackofficeBooking)
}

func (s *Server) registerClubRoutes() {
	club := s.engine.Group("/api/clubos", s.ClubRoleRequired())
	club.GET("/session", s.CurrentActor)
}

func (s *Server) registerLeadRoutes() {
	leads := s.engine.Group("/api/leads")
	leads.POST("", s.PublicRateLimit(ratelimit.EndpointLead), s.CreateLead)
	leads.GET("", s.AdminTokenRequired(), s.ListLeads)
}
