package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"example.com/planreasoning/internal/cache"
	"example.com/planreasoning/internal/catalog"
	"example.com/planreasoning/internal/config"
	"example.com/planreasoning/internal/consumer"
	"example.com/planreasoning/internal/domain"
	"example.com/planreasoning/internal/engine"
	"example.com/planreasoning/internal/events"
	"example.com/planreasoning/internal/observability"
	persistence "example.com/planreasoning/internal/persistence/postgres"
)

const metricsAddress = ":9102"

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
	handler := consumer.NewAssessmentHandler(service)

	metricsSrv := &http.Server{Addr: metricsAddress, Handler: promhttp.Handler()}
	go func() {
		log.Printf("consumer metrics listening on %s", metricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.KafkaBrokers,
		GroupID:         cfg.ConsumerGroup,
		Topic:           cfg.ProfileTopic,
		MinBytes:        1e3,
		MaxBytes:        10e6,
		CommitInterval:  time.Second,
		RetentionTime:   24 * time.Hour,
		ReadLagInterval: -1,
	})

	proc := consumer.NewProcessor(reader, handler)

	var wg sync.WaitGroup
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer reader.Close()

		log.Printf("consumer started (topic=%s, group=%s)", cfg.ProfileTopic, cfg.ConsumerGroup)
		if err := proc.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("consumer stopped with error: %v", err)
		}
	}()

	<-stop
	log.Println("consumer shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}

	wg.Wait()
}

func loadRules(path string) (*engine.RuleSet, error) {
	if path == "" {
		return engine.DefaultRules()
	}
	return engine.LoadRulesFile(path)
}
