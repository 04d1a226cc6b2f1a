package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rocjay1/ledger-analyzer/internal/analysis"
	"github.com/rocjay1/ledger-analyzer/internal/config"
	"github.com/rocjay1/ledger-analyzer/internal/handler"
	"github.com/rocjay1/ledger-analyzer/internal/services"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbService, err := services.NewDatabaseService(ctx, cfg.TableServiceURL, cfg.SettingsTable, cfg.ReportsTable)
	if err != nil {
		slog.Error("failed to init DatabaseService", "error", err)
		os.Exit(1)
	}

	blobService, err := services.NewBlobService(cfg.BlobServiceURL)
	if err != nil {
		slog.Error("failed to init BlobService", "error", err)
		os.Exit(1)
	}

	queueService, err := services.NewQueueService(cfg.QueueServiceURL)
	if err != nil {
		slog.Error("failed to init QueueService", "error", err)
		os.Exit(1)
	}

	var quoteCache services.QuoteCache
	if cfg.RedisURL != "" {
		redisCache, err := services.NewRedisQuoteCache(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("quote cache unavailable, continuing without it", "error", err)
		} else {
			defer redisCache.Close()
			quoteCache = redisCache
		}
	}

	deps := &handler.Dependencies{
		Database: dbService,
		Blob:     blobService,
		Queue:    queueService,
		Reports:  services.NewReportStore(blobService, dbService, cfg.ReportsContainer),
		Builder:  analysis.NewBuilder(slog.Default()),
		Config:   cfg,
		Market: services.NewMarketDataService(services.MarketConfig{
			ExchangeURL:  cfg.ExchangeAPIURL,
			ExchangeKey:  cfg.ExchangeAPIKey,
			StockURL:     cfg.StockAPIURL,
			StockKey:     cfg.StockAPIKey,
			BaseCurrency: cfg.BaseCurrency,
			CacheTTL:     cfg.MarketCacheTTL,
		}, quoteCache, slog.Default()),
	}

	if cfg.EmailEnabled() {
		emailService, err := services.NewEmailService(cfg.CommunicationEndpoint, cfg.SenderEmail, nil)
		if err != nil {
			slog.Warn("failed to init EmailService, continuing without e-mail", "error", err)
		} else {
			deps.Email = emailService
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/upload", deps.HandleUpload)

	mux.HandleFunc("GET /api/dashboard", deps.HandleDashboard)
	mux.HandleFunc("GET /api/reports/category", deps.HandleCategorySpend)
	mux.HandleFunc("GET /api/reports/weekday", deps.HandleWeekdayAverage)
	mux.HandleFunc("GET /api/events", deps.HandleEvents)
	mux.HandleFunc("GET /api/search", deps.HandleSearch)
	mux.HandleFunc("GET /api/cashback", deps.HandleCashback)
	mux.HandleFunc("GET /api/roundup", deps.HandleRoundUp)
	mux.HandleFunc("GET /api/phones", deps.HandlePhones)
	mux.HandleFunc("GET /api/reports", deps.HandleListReports)

	mux.HandleFunc("GET /api/settings", deps.HandleSettings)
	mux.HandleFunc("POST /api/settings", deps.HandleSettings)

	// Functions host bindings
	mux.HandleFunc("/HttpTrigger", deps.HandleHttpTrigger(mux))
	mux.HandleFunc("/ProcessQueue", deps.ProcessQueue)
	mux.HandleFunc("/MonthlyDigest", deps.HandleMonthlyDigest)

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		headers := make(map[string]string)
		for k, v := range r.Header {
			headers[k] = strings.Join(v, ", ")
		}
		slog.Warn("unmatched request",
			"method", r.Method,
			"path", r.URL.Path,
			"headers", headers,
			"content_length", r.ContentLength,
		)
		http.NotFound(w, r)
	})

	slog.Info("starting server", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, loggingMiddleware(mux)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start),
			"user_agent", r.UserAgent(),
		)
	})
}
