package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/savorly/dish-search/internal/api"
	"github.com/savorly/dish-search/internal/cache"
	"github.com/savorly/dish-search/internal/catalog"
	"github.com/savorly/dish-search/internal/config"
	"github.com/savorly/dish-search/internal/embedding"
	"github.com/savorly/dish-search/internal/history"
	"github.com/savorly/dish-search/internal/ingest"
	"github.com/savorly/dish-search/internal/kafka"
	"github.com/savorly/dish-search/internal/observability"
	"github.com/savorly/dish-search/internal/orchestrator"
	"github.com/savorly/dish-search/internal/profile"
	"github.com/savorly/dish-search/internal/query"
	"github.com/savorly/dish-search/internal/ranking"
	"github.com/savorly/dish-search/internal/rerank"
	"github.com/savorly/dish-search/internal/retrieval"
	"github.com/savorly/dish-search/internal/spell"
	"github.com/savorly/dish-search/internal/vector"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting dish search service",
		zap.String("service", cfg.Observability.ServiceName),
	)

	tracerShutdown, err := observability.InitTracer(cfg.Observability.ServiceName)
	if err != nil {
		logger.Warn("tracing initialization failed, continuing without tracing", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage and transport clients
	redisCache, err := cache.NewRedisCache(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("initializing redis: %w", err)
	}
	defer redisCache.Close()

	esClient, err := retrieval.NewClient(cfg.Elasticsearch, cfg.Search, logger)
	if err != nil {
		return fmt.Errorf("initializing elasticsearch: %w", err)
	}
	defer esClient.Close()

	chClient, err := history.NewClient(cfg.ClickHouse, logger)
	if err != nil {
		return fmt.Errorf("initializing clickhouse: %w", err)
	}
	defer chClient.Close()
	if err := chClient.EnsureTables(ctx); err != nil {
		logger.Warn("clickhouse table creation failed", zap.Error(err))
	}

	var catalogStore catalog.Store
	var firestoreStore *catalog.FirestoreStore
	if cfg.Firestore.ProjectID != "" {
		firestoreStore, err = catalog.NewFirestoreStore(ctx, cfg.Firestore, logger)
		if err != nil {
			return fmt.Errorf("initializing firestore catalog: %w", err)
		}
		defer firestoreStore.Close()
		catalogStore = firestoreStore
	} else {
		logger.Warn("no firestore project configured, using in-memory catalog")
		memStore, err := catalog.NewMemoryStore(nil)
		if err != nil {
			return fmt.Errorf("initializing in-memory catalog: %w", err)
		}
		catalogStore = memStore
	}

	// Query understanding built from the live catalog
	items, err := catalogStore.All(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	lexicon := query.BuildCuisineLexicon(items)

	var names, cuisines []string
	for _, item := range items {
		names = append(names, item.Name)
		cuisines = append(cuisines, item.Cuisine)
	}
	vocab := spell.VocabularyFromNames(names, cuisines)

	understander, err := query.NewUnderstander(
		spell.NewDictionaryCorrector(vocab, cfg.Query.SpellMaxEdits),
		query.NewIntentClassifierWithDefault(cfg.Query.DefaultIntent),
		query.NewExtractor(cfg.Query),
		lexicon,
	)
	if err != nil {
		return fmt.Errorf("initializing query understander: %w", err)
	}

	// Profiles: store plus background refresher fed by interaction history
	profileStore := profile.NewStore()
	refresher := profile.NewRefresher(chClient, catalogStore, profileStore, cfg.Profile, logger)
	if err := refresher.Rebuild(ctx); err != nil {
		logger.Warn("initial profile rebuild failed, serving with empty profiles", zap.Error(err))
	}
	go refresher.Run(ctx)

	// Vector search backend
	embedder := embedding.NewHashingEmbedder(cfg.Vector.Dimensions)
	vectorSearcher, err := vector.New(cfg.Vector, retrieval.KNNSearcher{Client: esClient})
	if err != nil {
		return fmt.Errorf("initializing vector backend: %w", err)
	}
	if idx, ok := vectorSearcher.(*vector.MemoryIndex); ok {
		for _, item := range items {
			text := strings.Join([]string{item.Name, item.Cuisine, item.Description}, " ")
			if err := idx.Add(item.ItemID, embedder.Embed(text)); err != nil {
				logger.Warn("indexing dish vector failed",
					zap.String("item_id", item.ItemID), zap.Error(err))
			}
		}
		logger.Info("in-memory vector index built", zap.Int("vectors", idx.Len()))
	}

	slowQueryDetector := observability.NewSlowQueryDetector(
		cfg.Search.SlowQuery.WarningThreshold,
		cfg.Search.SlowQuery.CriticalThreshold,
		logger,
		chClient,
	)

	orch := orchestrator.New(
		understander,
		esClient,
		catalogStore,
		redisCache,
		profileStore,
		ranking.NewPersonalizer(cfg.Personalize),
		rerank.New(cfg.Rerank),
		slowQueryDetector,
		cfg.Search,
		logger,
	)
	orch.EnableSemanticFallback(embedder, vectorSearcher)

	// Interaction ingest: Kafka consumer feeding history, cache invalidation
	// and profile rebuilds
	processor := ingest.NewProcessor(chClient, redisCache, refresher, logger)
	consumer := kafka.NewConsumer(cfg.Kafka, processor.Handle, logger)
	if err := consumer.Start(ctx); err != nil {
		logger.Warn("kafka consumer start failed, ingest pipeline will be unavailable", zap.Error(err))
	} else {
		defer consumer.Stop()
	}

	producer := kafka.NewProducer(cfg.Kafka, logger)
	defer producer.Close()

	// HTTP server
	handler := api.NewHandler(orch, understander, profileStore, chClient, producer, logger)

	healthHandler := api.NewHealthHandler(logger)
	healthHandler.Register("redis", redisCache)
	healthHandler.Register("clickhouse", chClient)
	if firestoreStore != nil {
		healthHandler.Register("firestore", firestoreStore)
	}
	healthHandler.Register("kafka", consumer)
	healthHandler.RegisterES(esClient)

	router := api.NewRouter(handler, healthHandler, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		return err
	}

	logger.Info("starting graceful shutdown", zap.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	cancel()

	if tracerShutdown != nil {
		if err := tracerShutdown(shutdownCtx); err != nil {
			logger.Error("tracer shutdown error", zap.Error(err))
		}
	}

	logger.Info("shutdown complete")
	return nil
}
