package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"tiktok-analytics-layer/internal/application"
	"tiktok-analytics-layer/internal/domain"
	"tiktok-analytics-layer/internal/infrastructure/cache"
	"tiktok-analytics-layer/internal/infrastructure/repository"
	"tiktok-analytics-layer/internal/infrastructure/synclog"
	"tiktok-analytics-layer/internal/infrastructure/tiktok"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/time/rate"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	// Get configuration from environment
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	dbName := os.Getenv("MONGODB_DATABASE")
	if dbName == "" {
		dbName = "tiktok_analytics"
	}
	db := client.Database(dbName)

	// Connect to Redis
	redisClient := goredis.NewClient(&goredis.Options{Addr: redisAddr})
	defer redisClient.Close()

	// Initialize infrastructure (implementations)
	tokenStore := repository.NewMongoCredentialRepository(db)
	cacheStore := cache.NewRedisCacheStore(redisClient, logger)
	syncLog := synclog.NewRing(synclog.DefaultCapacity)

	// Shared HTTP policy: retries with backoff plus a conservative rate limit
	retryConfig := tiktok.DefaultRetryConfig()
	shopLimiter := rate.NewLimiter(rate.Limit(5), 10)
	adsLimiter := rate.NewLimiter(rate.Limit(10), 20)

	shopHTTP := tiktok.NewClient(&http.Client{}, logger, retryConfig, shopLimiter, "tiktok_shop")
	adsHTTP := tiktok.NewClient(&http.Client{}, logger, retryConfig, adsLimiter, "tiktok_ads")

	shopClient := tiktok.NewShopClient(shopHTTP, logger, os.Getenv("TIKTOK_SHOP_BASE_URL"), os.Getenv("TIKTOK_SHOP_AUTH_URL"))
	adsClient := tiktok.NewAdsClient(adsHTTP, logger, os.Getenv("TIKTOK_ADS_BASE_URL"))

	// Environment-configured fallback credentials for single-tenant setups
	// that skip the OAuth flow entirely.
	fallbacks := map[domain.Platform]*domain.Credential{}
	if token := os.Getenv("TIKTOK_ACCESS_TOKEN"); token != "" {
		fallbacks[domain.PlatformShop] = &domain.Credential{
			OwnerID:     domain.DefaultOwnerID,
			Platform:    domain.PlatformShop,
			AppKey:      os.Getenv("TIKTOK_APP_KEY"),
			AppSecret:   os.Getenv("TIKTOK_APP_SECRET"),
			AccessToken: token,
		}
	}
	if token := os.Getenv("TIKTOK_ADS_ACCESS_TOKEN"); token != "" {
		fallbacks[domain.PlatformAds] = &domain.Credential{
			OwnerID:       domain.DefaultOwnerID,
			Platform:      domain.PlatformAds,
			AppKey:        os.Getenv("TIKTOK_ADS_APP_ID"),
			AppSecret:     os.Getenv("TIKTOK_ADS_APP_SECRET"),
			AccessToken:   token,
			AdvertiserIDs: splitCSV(os.Getenv("TIKTOK_ADS_ADVERTISER_IDS")),
		}
	}
	resolver := application.NewCredentialResolver(tokenStore, fallbacks)

	// Initialize application services
	oauthService := application.NewOAuthService(tokenStore, cacheStore, shopClient, adsClient, syncLog, logger, application.OAuthAppConfig{
		ShopAppKey:    os.Getenv("TIKTOK_APP_KEY"),
		ShopAppSecret: os.Getenv("TIKTOK_APP_SECRET"),
		AdsAppID:      os.Getenv("TIKTOK_ADS_APP_ID"),
		AdsAppSecret:  os.Getenv("TIKTOK_ADS_APP_SECRET"),
	})
	shopService := application.NewShopService(resolver, tokenStore, cacheStore, shopClient, syncLog, logger)
	adsService := application.NewAdsService(resolver, tokenStore, cacheStore, adsClient, syncLog, logger)
	integrationService := application.NewIntegrationService(tokenStore, cacheStore, resolver, shopService, adsService, syncLog, logger)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	r.Use(ownerIDMiddleware())

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// OAuth callbacks
	r.Get("/auth/tiktok-shop/callback", shopCallbackHandler(oauthService, frontendURL, logger))
	r.Get("/auth/tiktok-ads/callback", adsCallbackHandler(oauthService, frontendURL, logger))

	// Dashboard API
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/shop/summary", func(w http.ResponseWriter, req *http.Request) {
			snapshot, err := shopService.Sync(req.Context(), domain.OwnerIDFromContext(req.Context()))
			if err != nil {
				writeError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, snapshot)
		})

		r.Get("/ads/summary", func(w http.ResponseWriter, req *http.Request) {
			window := domain.DateRange{
				Start: req.URL.Query().Get("start_date"),
				End:   req.URL.Query().Get("end_date"),
			}
			snapshot, err := adsService.Sync(req.Context(), domain.OwnerIDFromContext(req.Context()), window)
			if err != nil {
				writeError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, snapshot)
		})

		r.Get("/ads/audience", func(w http.ResponseWriter, req *http.Request) {
			window := domain.DateRange{
				Start: req.URL.Query().Get("start_date"),
				End:   req.URL.Query().Get("end_date"),
			}
			reports, err := adsService.Audience(req.Context(), domain.OwnerIDFromContext(req.Context()), window)
			if err != nil {
				writeError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"audience": reports})
		})

		r.Get("/integrations", func(w http.ResponseWriter, req *http.Request) {
			integrations, err := integrationService.List(req.Context(), domain.OwnerIDFromContext(req.Context()))
			if err != nil {
				writeError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"integrations": integrations})
		})

		r.Post("/integrations/refresh", func(w http.ResponseWriter, req *http.Request) {
			results := integrationService.RefreshAll(req.Context(), domain.OwnerIDFromContext(req.Context()))
			writeJSON(w, http.StatusOK, map[string]any{"results": results})
		})

		r.Post("/integrations/{id}/disconnect", func(w http.ResponseWriter, req *http.Request) {
			platform := domain.Platform(chi.URLParam(req, "id"))
			if err := integrationService.Disconnect(req.Context(), domain.OwnerIDFromContext(req.Context()), platform); err != nil {
				writeError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
		})

		r.Put("/credentials", func(w http.ResponseWriter, req *http.Request) {
			var input application.CredentialInput
			if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
				writeError(w, logger, &domain.ValidationError{Field: "body", Reason: "malformed JSON"})
				return
			}
			cred, err := integrationService.SaveCredentials(req.Context(), domain.OwnerIDFromContext(req.Context()), input)
			if err != nil {
				writeError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, cred)
		})

		r.Get("/sync-logs", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"logs": integrationService.SyncLogs()})
		})
	})

	// Optional background refresh on a cron schedule
	if schedule := os.Getenv("SYNC_SCHEDULE"); schedule != "" {
		c := cron.New()
		_, err := c.AddFunc(schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			results := integrationService.RefreshAll(ctx, domain.DefaultOwnerID)
			for _, res := range results {
				logger.Info().
					Str("integration", res.IntegrationID).
					Str("status", string(res.Status)).
					Str("error", res.Error).
					Msg("scheduled sync finished")
			}
		})
		if err != nil {
			logger.Fatal().Err(err).Str("schedule", schedule).Msg("Invalid SYNC_SCHEDULE")
		}
		c.Start()
		defer c.Stop()
		logger.Info().Str("schedule", schedule).Msg("Scheduled background sync enabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("Starting API server")
	logger.Info().Msg("Swagger documentation available at http://localhost:" + port + "/swagger/index.html")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// shopCallbackHandler completes the TikTok Shop OAuth flow and redirects back
// to the frontend with the outcome in the query string.
func shopCallbackHandler(oauthService *application.OAuthService, frontendURL string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		code := r.URL.Query().Get("code")
		ownerID := domain.OwnerIDFromContext(ctx)

		// state is accepted and logged but not verified.
		if state := r.URL.Query().Get("state"); state != "" {
			logger.Debug().Str("state", state).Msg("Shop OAuth callback state received")
		}

		if err := oauthService.CompleteShopAuth(ctx, ownerID, code); err != nil {
			logger.Error().Err(err).Msg("Shop OAuth callback failed")
			http.Redirect(w, r, frontendURL+"/integrations?error="+url.QueryEscape(err.Error()), http.StatusFound)
			return
		}
		http.Redirect(w, r, frontendURL+"/integrations?connected=true", http.StatusFound)
	}
}

// adsCallbackHandler completes the TikTok Ads OAuth flow. The Ads authorize
// page sends the code as auth_code.
func adsCallbackHandler(oauthService *application.OAuthService, frontendURL string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		code := r.URL.Query().Get("auth_code")
		if code == "" {
			code = r.URL.Query().Get("code")
		}
		ownerID := domain.OwnerIDFromContext(ctx)

		// state is accepted and logged but not verified.
		if state := r.URL.Query().Get("state"); state != "" {
			logger.Debug().Str("state", state).Msg("Ads OAuth callback state received")
		}

		if err := oauthService.CompleteAdsAuth(ctx, ownerID, code); err != nil {
			logger.Error().Err(err).Msg("Ads OAuth callback failed")
			http.Redirect(w, r, frontendURL+"/integrations?error="+url.QueryEscape(err.Error()), http.StatusFound)
			return
		}
		http.Redirect(w, r, frontendURL+"/integrations?connected=true", http.StatusFound)
	}
}

// ownerIDMiddleware reads the X-Owner-ID header into the context. Absent
// headers fall back to the default owner, so single-tenant deployments work
// with no header at all.
func ownerIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID := r.Header.Get("X-Owner-ID")
			if ownerID == "" {
				ownerID = domain.DefaultOwnerID
			}
			next.ServeHTTP(w, r.WithContext(domain.WithOwnerID(r.Context(), ownerID)))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to HTTP statuses.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status := http.StatusInternalServerError

	var ve *domain.ValidationError
	var pe *domain.PlatformError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrMissingCode):
		status = http.StatusUnauthorized
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrRetriesExhausted):
		status = http.StatusGatewayTimeout
	case errors.As(err, &pe):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
