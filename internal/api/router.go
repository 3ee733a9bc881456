package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odiadev/tts-gateway/internal/api/handlers"
	"github.com/odiadev/tts-gateway/internal/api/middleware"
	"github.com/odiadev/tts-gateway/internal/auth"
	"github.com/odiadev/tts-gateway/internal/cache"
	"github.com/odiadev/tts-gateway/internal/config"
	"github.com/odiadev/tts-gateway/internal/queue"
	"github.com/odiadev/tts-gateway/internal/tts"
	"github.com/odiadev/tts-gateway/internal/usage"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(5, 10)
	r.Use(rl.Limit)

	// Provider cascade, in fixed priority order: the local edge-tts
	// binary first, then the remote endpoint, then OpenAI as last resort.
	providers := rt.buildProviders()
	cascade := tts.NewCascade(
		tts.NewValidator(rt.cfg.TTS.MinAudioBytes),
		tts.RetryPolicy{
			MaxAttempts: rt.cfg.TTS.MaxRetries,
			BaseDelay:   rt.cfg.TTS.BackoffBase,
			Offset:      rt.cfg.TTS.BackoffOffset,
		},
		providers...,
	)

	var usageQ handlers.UsageEnqueuer
	if rt.redis != nil {
		usageQ = queue.NewClient(rt.cfg.Redis)
	}

	var diagCache *cache.Cache
	if rt.redis != nil {
		diagCache = cache.NewCache(rt.redis)
	}

	authMW := rt.buildAuth()

	health := handlers.NewHealthHandler(rt.db, rt.redis, rt.cfg.Server.Environment)
	speak := handlers.NewSpeakHandler(cascade, rt.cfg.Limits, usageQ)
	diagnose := handlers.NewDiagnoseHandler(cascade, providers, diagCache)

	// Unauthenticated operational endpoints
	r.Get("/health", health.Health)
	r.Get("/readyz", health.Readyz)
	r.Get("/diagnose", diagnose.Diagnose)
	r.Get("/test", speak.QuickTest)

	// Synthesis endpoints
	r.Group(func(r chi.Router) {
		r.Use(authMW.Authenticate)
		r.Get("/speak", speak.Speak)
		r.Post("/api/speak", speak.APISpeak)
	})

	// Admin endpoints (database auth mode only)
	if rt.cfg.Auth.Mode == config.AuthModeDatabase && rt.db != nil {
		keys := auth.NewStoreValidator(rt.db, rt.cfg.Auth.Pepper)
		admin := handlers.NewAdminHandler(keys, usage.NewService(rt.db), rt.cfg.Auth.AdminToken)
		r.Post("/admin/keys", admin.CreateKey)
		r.Get("/admin/usage", admin.Usage)
	}

	r.NotFound(notFound)

	return r
}

func (rt *Router) buildProviders() []tts.Provider {
	providers := []tts.Provider{
		tts.NewEdgeTTS(tts.EdgeTTSConfig{
			BinPath: rt.cfg.TTS.EdgeBinPath,
			Timeout: rt.cfg.TTS.EdgeTimeout,
		}),
	}
	if rt.cfg.TTS.RemoteURL != "" {
		providers = append(providers, tts.NewRemoteTTS(tts.RemoteTTSConfig{
			URL:     rt.cfg.TTS.RemoteURL,
			Method:  rt.cfg.TTS.RemoteMethod,
			Timeout: rt.cfg.TTS.RemoteTimeout,
		}))
	}
	if rt.cfg.TTS.OpenAIKey != "" {
		providers = append(providers, tts.NewOpenAITTS(tts.OpenAITTSConfig{
			APIKey: rt.cfg.TTS.OpenAIKey,
			Model:  rt.cfg.TTS.OpenAIModel,
		}))
	}
	return providers
}

func (rt *Router) buildAuth() *auth.Middleware {
	header := rt.cfg.Auth.APIKeyHeader

	switch rt.cfg.Auth.Mode {
	case config.AuthModeDatabase:
		return auth.NewMiddleware(auth.NewStoreValidator(rt.db, rt.cfg.Auth.Pepper), header, false)
	case config.AuthModeStatic:
		return auth.NewMiddleware(auth.NewStaticValidator(rt.cfg.Auth.APIKeys), header, false)
	default:
		// Demo mode: key validation is bypassed entirely.
		return auth.NewMiddleware(nil, header, true)
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Endpoint not found","available_endpoints":["/speak","/api/speak","/health","/diagnose","/test"]}` + "\n"))
}
