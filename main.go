package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/rentledger/backend/src/config"
	"github.com/username/rentledger/backend/src/database"
	"github.com/username/rentledger/backend/src/handlers"
	"github.com/username/rentledger/backend/src/logger"
	"github.com/username/rentledger/backend/src/processors"
	"github.com/username/rentledger/backend/src/services"
	"github.com/username/rentledger/backend/src/taxrates"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Rentledger backend server starting...")

	logger.L.Info("Loading tax rate schedule...")
	schedule, err := taxrates.LoadSchedule(config.Cfg.TaxSchedulePath)
	if err != nil {
		logger.L.Error("Failed to load tax rate schedule", "error", err)
		stdlog.Fatalf("Failed to load tax rate schedule: %v", err)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	logger.L.Info("Initializing services and handlers...")
	amountCalculator := processors.NewAmountCalculator(config.Cfg.BookingUpliftFactor, config.Cfg.AirbnbFeeFactor)
	bookingProcessor := processors.NewBookingProcessor(schedule, amountCalculator)
	batchNotifier := services.NewBatchNotifier()

	importService := services.NewImportService(
		schedule, bookingProcessor, batchNotifier,
		reportCache, config.Cfg.BatchReportExamples,
	)

	uploadHandler := handlers.NewUploadHandler(importService)
	bookingHandler := handlers.NewBookingHandler(importService)
	taxRateHandler := handlers.NewTaxRateHandler(schedule)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/import", uploadHandler.HandleImport)
	apiRouter.HandleFunc("GET /api/import/latest", uploadHandler.HandleGetLatestBatch)
	apiRouter.HandleFunc("GET /api/bookings", bookingHandler.HandleGetBookings)
	apiRouter.HandleFunc("DELETE /api/bookings/all", bookingHandler.HandleDeleteAllBookings)
	apiRouter.HandleFunc("GET /api/taxrates", taxRateHandler.HandleGetTaxRates)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Rentledger backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
