package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"libraryapi/internal/book"
	"libraryapi/internal/httpx"
	"libraryapi/internal/loan"
	"libraryapi/internal/mail"
	"libraryapi/internal/notifier"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	cfg := loadConfig()

	dbPool := mustOpenDB(cfg.DatabaseDSN)
	defer dbPool.Close()

	bookRepo := book.NewPostgresRepo(dbPool, cfg.DBTimeout)
	loanRepo := loan.NewPostgresRepo(dbPool, cfg.DBTimeout)

	bookService := book.NewService(bookRepo, loanRepo)
	loanService := loan.NewService(loanRepo)

	bookHandler := book.NewHTTPHandler(bookService)
	loanHandler := loan.NewHTTPHandler(loanService, bookService)

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := dbPool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("GET /api/books", bookHandler.List)
	mux.HandleFunc("POST /api/books", bookHandler.Create)
	mux.HandleFunc("GET /api/books/{id}", bookHandler.GetByID)
	mux.HandleFunc("PUT /api/books/{id}", bookHandler.Update)
	mux.HandleFunc("DELETE /api/books/{id}", bookHandler.Delete)
	mux.HandleFunc("GET /api/books/{id}/loans", loanHandler.ListByBook)

	mux.HandleFunc("GET /api/loans", loanHandler.List)
	mux.HandleFunc("POST /api/loans", loanHandler.Create)
	mux.HandleFunc("GET /api/loans/{id}", loanHandler.GetByID)
	mux.HandleFunc("PUT /api/loans/{id}", loanHandler.Update)
	mux.HandleFunc("POST /api/loans/{id}/finalize", loanHandler.Finalize)
	mux.HandleFunc("DELETE /api/loans/{id}", loanHandler.Delete)

	rateLimit := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)

	var handler http.Handler = mux
	handler = httpx.RequestSizeLimitMiddleware(1 << 20)(handler)
	handler = httpx.SecurityHeadersMiddleware(handler)
	handler = rateLimit.Middleware(handler)
	handler = httpx.RecoveryMiddleware(handler)
	handler = httpx.AccessLogMiddleware(handler)
	handler = httpx.RequestIDMiddleware(handler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	overdue := notifier.New(
		loanService,
		mail.NewSMTPSender(cfg.SMTP),
		cfg.NotifyInterval,
		cfg.LoanWindowDays,
		cfg.LateLoanMessage,
	)
	go overdue.Run(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("starting server addr=%s", cfg.Addr)
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}

func mustOpenDB(dsn string) *pgxpool.Pool {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("cannot create db pool: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Fatalf("cannot ping database (%s): %v", redactDSN(dsn), err)
	}
	log.Println("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
