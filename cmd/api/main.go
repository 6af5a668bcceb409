package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/planreasoning/internal/api"
	"example.com/planreasoning/internal/auth"
	"example.com/planreasoning/internal/cache"
	"example.com/planreasoning/internal/catalog"
	"example.com/planreasoning/internal/config"
	"example.com/planreasoning/internal/domain"
	"example.com/planreasoning/internal/engine"
	"example.com/planreasoning/internal/events"
	"example.com/planreasoning/internal/observability"
	persistence "example.com/planreasoning/internal/persistence/postgres"
	httptransport "example.com/planreasoning/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rules, err := loadRules(cfg.RulesPath)
	if err != nil {
		log.Fatalf("failed to load rule tables: %v", err)
	}
	observability.RecordRuleTableLoaded(time.Now().UTC())
	log.Printf("rule tables loaded (version=%s)", rules.Version)

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool)
	producer := events.NewKafkaProducer(cfg.KafkaBrokers)
	defer producer.Close()

	var resultCache cache.ResultCache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedis(cfg.RedisAddr, cfg.CacheTTL)
		defer redisCache.Close()
		resultCache = redisCache
	}

	eng := engine.New(rules, catalog.NewInMemory())
	service := domain.NewService(eng, repo, resultCache, producer, cfg.AssessmentTopic)

	handler := api.NewHandler(service)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Simple CORS middleware for local dev
	cors := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, authMiddleware.Wrap(logger(cors(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("plan-reasoning-service listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func loadRules(path string) (*engine.RuleSet, error) {
	if path == "" {
		return engine.DefaultRules()
	}
	return engine.LoadRulesFile(path)
}
