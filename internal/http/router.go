// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting, and mounts the
// account, conversation, goal, and chat-turn endpoints behind bearer-token
// authentication.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/Area51-Labs/Alari-BE/docs"
	"github.com/Area51-Labs/Alari-BE/internal/auth"
	"github.com/Area51-Labs/Alari-BE/internal/config"
	"github.com/Area51-Labs/Alari-BE/internal/http/handlers"
	"github.com/Area51-Labs/Alari-BE/internal/http/middleware"
	"github.com/Area51-Labs/Alari-BE/internal/inference"
	"github.com/Area51-Labs/Alari-BE/internal/repo"
	"github.com/Area51-Labs/Alari-BE/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), CORS and security
// headers, response compression, and then mounts the public diagnostics
// surface plus the authenticated API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything (when enabled)
//  2. RequestID: generate/propagate correlation id
//  3. Logger or RedactingLogger: structured logs, optional PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics (the /metrics route itself skips CORS/gzip)
//  7. CORS and Security headers
//  8. gzip (streamed turns excluded so chunks flush as they arrive)
//
// Authentication, idempotency, and rate limiting are group-scoped: JWTAuth
// guards everything under /auth/me, /conversations, /goals, and /chat; the
// chat group additionally validates Idempotency-Key headers and applies the
// per-account token-bucket limiter, in that order, so a replayed turn can
// bypass the limiter.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, version string) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	if cfg.OTEL.Enabled {
		r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	}

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging, with PII scrubbing when configured
	if cfg.LogRedact {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{
				middleware.HeaderIdempotencyKey,
				"X-API-Key",
			},
		}))
	} else {
		r.Use(middleware.Logger())
	}

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(limitBody(cfg.BodyLimitBytes))

	// 6) Prometheus metrics and /metrics endpoint. Registered before CORS
	// and gzip so the exporter negotiates its own encoding.
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           cfg.CORS.MaxAge,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           cfg.CORS.MaxAge,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      cfg.Security.NoStore,
		EnablePolicy: true,
	}))

	// 8) Response compression. Streamed turns are excluded: chunks must
	// reach the client as they are flushed, not once a gzip window fills.
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{`/chat/[^/]+/stream$`}),
	))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Dependency injection: token issuer, upstream client, services ← db/cfg
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	users := services.NewUserService(db, tokens)

	convs := services.NewConversationService(db, cfg.SystemPrompt)
	convs.TitleMaxLen = cfg.TitleMaxLen

	goals := services.NewGoalService(db)
	goals.TitleMaxLen = cfg.TitleMaxLen

	turns := &services.ChatService{
		DB: db,
		Inference: inference.New(inference.Config{
			BaseURL:       cfg.Inference.ServiceURL,
			APIKey:        cfg.Inference.APIKey,
			Timeout:       cfg.Inference.Timeout,
			StreamTimeout: cfg.Inference.StreamTimeout,
		}),
		MaxMessageRunes: cfg.MaxMessageRunes,
		ReceiptTTL:      cfg.IdempotencyTTL,
	}

	fb := &services.FeedbackService{DB: db}

	h := handlers.New(users, convs, turns, goals, fb, db, version)

	// Bearer-token authentication: verify the JWT signature and expiry, then
	// resolve the subject to a live account. Deleted accounts fail closed.
	authn := middleware.JWTAuth(func(ctx context.Context, token string) (int64, error) {
		email, err := tokens.Verify(token)
		if err != nil {
			return 0, err
		}
		u, err := users.BySubject(ctx, email)
		if err != nil {
			return 0, err
		}
		return u.ID, nil
	})

	// Idempotent turn replay: a still-valid receipt marks the request as a
	// replay so it can skip the rate limiter and the upstream call.
	idem := middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{},
		func(ctx context.Context, userID int64, sessionID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetTurnReceipt(ctx, db, userID, sessionID, key, now)
			if err != nil {
				return false, err
			}
			return rec != nil, nil
		},
	)

	// Token-bucket limiter for turn endpoints, keyed per account once
	// JWTAuth has run.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)

	// Service identity and diagnostics
	api.GET("/", h.Root)
	api.GET("/health", h.Health)
	api.GET("/db/health", h.DBHealth)
	api.GET("/db/tables", h.DBTables)
	api.GET("/db/verify-schema", h.VerifySchema)

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.Version = version
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))
	}

	// Account lifecycle
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.GET("/auth/me", authn, h.Me)

	// Conversations and transcripts
	conv := api.Group("/conversations", authn)
	{
		conv.POST("", h.CreateConversation)
		conv.GET("", h.ListConversations)
		conv.GET("/:sessionID", h.GetConversation)
		conv.PATCH("/:sessionID", h.RenameConversation)
		conv.DELETE("/:sessionID", h.DeleteConversation)
		conv.GET("/:sessionID/messages", h.ListConversationMessages)
		conv.POST("/:sessionID/messages/:messageID/feedback", h.LeaveFeedback)
	}

	// Goals and check-ins
	goal := api.Group("/goals", authn)
	{
		goal.POST("", h.CreateGoal)
		goal.GET("", h.ListGoals)
		goal.GET("/:goalID", h.GetGoal)
		goal.PUT("/:goalID", h.UpdateGoal)
		goal.DELETE("/:goalID", h.DeleteGoal)
		goal.POST("/:goalID/checkins", h.CreateCheckIn)
		goal.GET("/:goalID/checkins", h.ListCheckIns)
		goal.PUT("/:goalID/checkins/:checkinID", h.UpdateCheckIn)
		goal.DELETE("/:goalID/checkins/:checkinID", h.DeleteCheckIn)
	}

	// Chat turns: authenticated, idempotency-aware, rate limited
	chat := api.Group("/chat", authn, idem, rl.Handler())
	{
		chat.POST("/:sessionID", h.SendTurn)
		chat.POST("/:sessionID/stream", h.StreamTurn)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
