package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpLayer "underwriting-agent/http"
	"underwriting-agent/policy"
	"underwriting-agent/repository"
	"underwriting-agent/service"
)

func main() {
	cfg := LoadConfig()

	pol, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		log.Fatalf("Error loading policy: %v", err)
	}

	var repo repository.EvaluationRepository
	if cfg.DBPath != "" {
		db, err := repository.InitDB(cfg.DBPath)
		if err != nil {
			log.Fatalf("Error opening database: %v", err)
		}
		defer db.Close()
		repo = repository.NewEvaluationRepositorySQLite(db)
	} else {
		repo = repository.NewEvaluationRepositoryMemory()
	}

	var cache repository.CacheRepository
	if cfg.RedisAddr != "" {
		cache = repository.NewRedisCache(cfg.RedisAddr, cfg.cacheTTL())
	} else {
		cache = repository.NewMockCache()
	}

	ai := service.NewAIService(cfg.OpenAIAPIKey)
	if !ai.Enabled() {
		log.Println("OPENAI_API_KEY not set; document extraction disabled, explanations use fallback text")
	}

	evaluator := service.NewEvaluator(pol)
	underwriting := service.NewUnderwritingService(evaluator, repo, cache, ai)

	evaluationHandler := httpLayer.NewEvaluationHandler(underwriting)
	extractionHandler := httpLayer.NewExtractionHandler(ai, underwriting)
	applicationHandler := httpLayer.NewApplicationHandler(underwriting)

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimitRequests, cfg.rateLimitWindow())
	defer rateLimiter.Stop()

	mux := http.NewServeMux()
	mux.Handle(
		"/underwriting/evaluate",
		httpLayer.RateLimitMiddleware(
			rateLimiter,
			http.HandlerFunc(evaluationHandler.EvaluateApplication),
		),
	)

	mux.Handle(
		"/underwriting/extract",
		httpLayer.RateLimitMiddleware(
			rateLimiter,
			http.HandlerFunc(extractionHandler.ExtractAndEvaluate),
		),
	)

	mux.Handle(
		"/underwriting/applications",
		httpLayer.RateLimitMiddleware(
			rateLimiter,
			http.HandlerFunc(applicationHandler.GetApplication),
		),
	)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("🚀 Underwriting API listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Printf("Error starting server: %v", err)
		return
	case <-quit:
		log.Println("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	log.Println("Server exited")
}
