package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/tradejournal/backend/src/config"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/handlers"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000":    true,
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("TradeJournal backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	if err := os.MkdirAll(config.Cfg.UploadDir, 0o755); err != nil {
		logger.L.Error("Failed to create upload directory", "dir", config.Cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	reportCache := cache.New(config.Cfg.CacheExpiration, config.Cfg.CacheCleanupInterval)

	tagService := services.NewTagService(database.DB)
	tradeService := services.NewTradeService(database.DB, tagService)
	analyticsService := services.NewAnalyticsService(database.DB, tradeService, tagService, reportCache)
	uploadService := services.NewUploadService(config.Cfg.UploadDir, config.Cfg.MaxUploadSizeBytes)
	exportService := services.NewExportService(tradeService)

	tradeHandler := handlers.NewTradeHandler(tradeService, uploadService, analyticsService, config.Cfg.MaxImagesPerUpload)
	accountHandler := handlers.NewAccountHandler(database.DB, tradeService, analyticsService)
	strategyHandler := handlers.NewStrategyHandler(database.DB, tradeService, uploadService, analyticsService, config.Cfg.MaxImagesPerUpload)
	tagHandler := handlers.NewTagHandler(tagService, analyticsService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	chartHandler := handlers.NewChartHandler(database.DB)
	importExportHandler := handlers.NewImportExportHandler(exportService, analyticsService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "TradeJournal Backend is running"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	uploadRoot, err := filepath.Abs(config.Cfg.UploadDir)
	if err != nil {
		logger.L.Error("Failed to resolve upload directory", "dir", config.Cfg.UploadDir, "error", err)
		os.Exit(1)
	}
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadRoot)))
	r.Get("/uploads/*", fileServer.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		// Static paths must be registered before the {id} wildcard.
		r.Get("/trades", tradeHandler.HandleListTrades)
		r.Post("/trades", tradeHandler.HandleCreateTrade)
		r.Get("/trades/next-id", tradeHandler.HandleNextTradeID)
		r.Delete("/trades/all", tradeHandler.HandleDeleteAllTrades)
		r.Get("/trades/{id}", tradeHandler.HandleGetTrade)
		r.Put("/trades/{id}", tradeHandler.HandleUpdateTrade)
		r.Delete("/trades/{id}", tradeHandler.HandleDeleteTrade)
		r.Post("/trades/{id}/images", tradeHandler.HandleUploadTradeImages)

		r.Get("/accounts", accountHandler.HandleListAccounts)
		r.Post("/accounts", accountHandler.HandleCreateAccount)
		r.Get("/accounts/{id}", accountHandler.HandleGetAccount)
		r.Put("/accounts/{id}", accountHandler.HandleUpdateAccount)
		r.Delete("/accounts/{id}", accountHandler.HandleDeleteAccount)

		r.Get("/strategies", strategyHandler.HandleListStrategies)
		r.Post("/strategies", strategyHandler.HandleCreateStrategy)
		r.Get("/strategies/{id}", strategyHandler.HandleGetStrategy)
		r.Put("/strategies/{id}", strategyHandler.HandleUpdateStrategy)
		r.Delete("/strategies/{id}", strategyHandler.HandleDeleteStrategy)
		r.Post("/strategies/{id}/images", strategyHandler.HandleUploadStrategyImages)

		r.Get("/tags", tagHandler.HandleListTags)
		r.Post("/tags", tagHandler.HandleCreateTag)
		r.Delete("/tags/{id}", tagHandler.HandleDeleteTag)

		r.Get("/analytics/overview", analyticsHandler.HandleOverview)
		r.Get("/analytics/sessions", analyticsHandler.HandleSessionBreakdown)
		r.Get("/analytics/assets", analyticsHandler.HandleAssetBreakdown)
		r.Get("/analytics/calendar", analyticsHandler.HandleCalendar)
		r.Get("/analytics/period", analyticsHandler.HandlePeriodDelta)
		r.Get("/analytics/filters", analyticsHandler.HandleFilterOptions)

		r.Get("/dashboard-charts", chartHandler.HandleListCharts)
		r.Post("/dashboard-charts", chartHandler.HandleCreateChart)
		r.Put("/dashboard-charts/{id}", chartHandler.HandleUpdateChart)
		r.Delete("/dashboard-charts/{id}", chartHandler.HandleDeleteChart)

		r.Get("/export/trades", importExportHandler.HandleExportTrades)
		r.Post("/import/trades", importExportHandler.HandleImportCSV)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
