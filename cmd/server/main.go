package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/Krimson/ecg-glove/internal/analysis"
	"github.com/Krimson/ecg-glove/internal/config"
	"github.com/Krimson/ecg-glove/internal/record"
	"github.com/Krimson/ecg-glove/internal/websocket"
)

func main() {
	log.Printf("[INFO] Starting ecg-glove server...")

	cfg := config.Load()
	log.Printf("[INFO] Configuration loaded: http_port=%s baseline_cutoff_hz=%s record_ttl_seconds=%d",
		cfg.HTTPPort, cfg.BaselineCutoffHz, cfg.RecordTTLSeconds)

	repo, err := record.NewPostgresRepositoryFromDSN(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to PostgreSQL: %v", err)
	}
	defer repo.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("[FATAL] Failed to connect to Redis: %v", err)
	}
	cache := record.NewRedisStore(redisClient)

	hub := websocket.NewHub()
	go hub.Run()

	analyzer := analysis.NewWithBaseline(cfg.BaselineVariant())
	manager := record.NewManager(cache, repo, analyzer, cfg.RecordTTLSeconds)

	router := mux.NewRouter()
	record.NewHTTPHandler(manager, hub).RegisterRoutes(router)
	router.HandleFunc("/ws", hub.HandleWebSocket)

	address := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("[INFO] HTTP server listening on %s", address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		log.Printf("[ERROR] Server error: %v", err)

	case sig := <-shutdownChan:
		log.Printf("[INFO] Received signal %v, starting graceful shutdown...", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] Graceful shutdown failed: %v", err)
		}

		log.Printf("[INFO] Graceful shutdown completed")
	}

	log.Printf("[INFO] Server stopped")
}
