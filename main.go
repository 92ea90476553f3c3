package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collaudo-tracker/internal/alerts"
	alertapp "collaudo-tracker/internal/alerts/application"
	alerthttp "collaudo-tracker/internal/alerts/interfaces/http"
	"collaudo-tracker/internal/alerts/metrics"
	alertnotify "collaudo-tracker/internal/alerts/notify"
	apihttp "collaudo-tracker/internal/api/http"
	"collaudo-tracker/internal/auth"
	valveapp "collaudo-tracker/internal/valves/application"
	valves "collaudo-tracker/internal/valves/domain"
	valvepg "collaudo-tracker/internal/valves/infrastructure/postgres"
	valvesqlite "collaudo-tracker/internal/valves/infrastructure/sqlite"
	valvehttp "collaudo-tracker/internal/valves/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	repo, closeRepo, err := openRepository(cfg, logger)
	if err != nil {
		logger.Fatalf("store open error: %v", err)
	}
	defer closeRepo()

	service, err := valveapp.NewService(repo)
	if err != nil {
		logger.Fatalf("valve service error: %v", err)
	}

	alertCfg, err := alertapp.LoadConfig()
	if err != nil {
		logger.Fatalf("alerts config error: %v", err)
	}

	policy := alerts.NewPolicy()
	notifier, err := buildNotifier(alertCfg, logger)
	if err != nil {
		logger.Fatalf("notifier error: %v", err)
	}

	bundle := metrics.New()
	scheduler, err := alertapp.NewScheduler(repo, policy, notifier, logger,
		alertapp.WithInterval(alertCfg.CheckInterval),
		alertapp.WithMetrics(bundle),
	)
	if err != nil {
		logger.Fatalf("scheduler error: %v", err)
	}
	go scheduler.Start(context.Background())

	valveHandler, err := valvehttp.NewHandler(service, scheduler)
	if err != nil {
		logger.Fatalf("valve handler error: %v", err)
	}
	alertHandler, err := alerthttp.NewHandler(policy, scheduler)
	if err != nil {
		logger.Fatalf("alert handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/valves", valveHandler)
	mux.Handle("/api/v1/valves/", valveHandler)
	mux.Handle("/api/v1/alerts", alertHandler)
	mux.Handle("/api/v1/alerts/", alertHandler)
	for format, path := range map[string]string{
		"csv":  "/api/v1/exports/valves.csv",
		"xlsx": "/api/v1/exports/valves.xlsx",
		"pdf":  "/api/v1/exports/valves.pdf",
	} {
		exportHandler, err := apihttp.NewExportValvesHandler(service, format)
		if err != nil {
			logger.Fatalf("export handler error: %v", err)
		}
		mux.Handle(path, exportHandler)
	}
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	authPolicy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), authPolicy)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatalf("http server error: %v", err)
	case sig := <-sigCh:
		logger.Printf("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("http shutdown error: %v", err)
	}
	scheduler.Stop()
}

func openRepository(cfg config, logger *log.Logger) (valves.Repository, func(), error) {
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, err
		}
		repo := valvepg.NewRepository(db)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Printf("using postgres store")
		return repo, func() { db.Close() }, nil
	}
	repo, err := valvesqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	logger.Printf("using sqlite store at %s", cfg.SQLitePath)
	return repo, func() { repo.Close() }, nil
}

func buildNotifier(cfg alertapp.Config, logger *log.Logger) (alertnotify.Notifier, error) {
	notifiers := []alertnotify.Notifier{alertnotify.NewLogNotifier(logger)}
	if cfg.WebhookURL != "" {
		tpl, err := alertnotify.NewTemplate(cfg.NotifyTemplate)
		if err != nil {
			return nil, err
		}
		channel, err := alertnotify.NewWebhookChannel(cfg.WebhookURL)
		if err != nil {
			return nil, err
		}
		webhook, err := alertnotify.NewWebhookNotifier(channel, tpl, logger,
			alertnotify.WithRequestTimeout(cfg.NotifyTimeout))
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, webhook)
	}
	return alertnotify.NewMultiNotifier(notifiers...), nil
}

type config struct {
	DatabaseURL string
	SQLitePath  string
	HTTPAddr    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		SQLitePath:  getenvDefault("VALVES_DB_PATH", "valves.db"),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
