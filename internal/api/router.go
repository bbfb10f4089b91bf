package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/globely/globely-api/docs"
	"github.com/globely/globely-api/internal/api/handler"
	"github.com/globely/globely-api/internal/api/metrics"
	"github.com/globely/globely-api/internal/api/middleware"
	"github.com/globely/globely-api/internal/core/ports"
	"github.com/globely/globely-api/internal/infrastructure/http/handlers"
)

const bodyLimit = "64K"

// Deps carries everything the router needs. Services are built by the caller.
type Deps struct {
	Accounts  ports.AccountService
	Favorites ports.FavoriteService
	Tokens    ports.TokenVerifier

	// Readiness checks by dependency name, served at /health/ready.
	Readiness map[string]handlers.CheckFunc

	// Registerer and Gatherer back /metrics. A nil Registerer disables metrics.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	CORSOrigins []string
	// AuthRateLimit is requests per minute per client IP on register and
	// login. Zero disables it.
	AuthRateLimit int

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     d.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))

	if d.Registerer != nil {
		if err := metrics.Register(d.Registerer); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		mw, err := echoprometheus.MiddlewareConfig{
			Subsystem:                 "globely",
			Registerer:                d.Registerer,
			DoNotUseRequestPathFor404: true,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		}.ToMiddleware()
		if err != nil {
			return nil, fmt.Errorf("prometheus middleware: %w", err)
		}
		e.Use(mw)
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	}

	// --- Handlers ---
	userHandler := handler.NewUserHandler(d.Accounts)
	favoriteHandler := handler.NewFavoriteHandler(d.Favorites)
	authMiddleware := middleware.Auth(d.Tokens)

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Hello from Globely API")
	})

	// --- Account routes ---
	users := e.Group("/api/users")
	users.POST("/register", userHandler.Register, authRateLimit(d.AuthRateLimit))
	users.POST("/login", userHandler.Login, authRateLimit(d.AuthRateLimit))
	users.GET("/me", userHandler.Me, authMiddleware)

	// --- Favorites routes ---
	favorites := users.Group("/favorites", authMiddleware)
	favorites.GET("", favoriteHandler.List)
	favorites.POST("", favoriteHandler.Add)
	favorites.DELETE("/:cca3", favoriteHandler.Remove)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	readinessHandler := handlers.NewReadinessHandler(d.Readiness)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- API docs ---
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// authRateLimit limits register and login per client IP.
func authRateLimit(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return echo.WrapMiddleware(httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"success":false,"message":"too many requests"}`))
		}),
	))
}
