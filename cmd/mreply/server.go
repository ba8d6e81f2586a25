package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/mreply/internal/ai"
	"github.com/xxxsen/mreply/internal/config"
	"github.com/xxxsen/mreply/internal/db"
	"github.com/xxxsen/mreply/internal/embedcache"
	"github.com/xxxsen/mreply/internal/filestore"
	"github.com/xxxsen/mreply/internal/handler"
	"github.com/xxxsen/mreply/internal/job"
	"github.com/xxxsen/mreply/internal/middleware"
	"github.com/xxxsen/mreply/internal/repo"
	"github.com/xxxsen/mreply/internal/repo/memstore"
	"github.com/xxxsen/mreply/internal/schedule"
	"github.com/xxxsen/mreply/internal/service"
	"github.com/xxxsen/mreply/internal/style"
)

const shutdownTimeout = 20 * time.Second

type cacheStore interface {
	embedcache.Store
	job.CacheCleaner
}

type stores struct {
	exchanges    service.ExchangeStore
	chunks       service.ChunkStore
	fingerprints service.FingerprintStore
	cache        cacheStore
	db           *sql.DB
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Database.Driver == "memory" {
		logutil.GetLogger(ctx).Warn("using in-memory stores, data is lost on restart")
		return &stores{
			exchanges:    memstore.NewExchangeStore(),
			chunks:       memstore.NewChunkStore(),
			fingerprints: memstore.NewFingerprintStore(),
			cache:        memstore.NewEmbeddingCacheStore(),
		}, nil
	}
	sqlDB, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return &stores{
		exchanges:    repo.NewExchangeRepo(sqlDB),
		chunks:       repo.NewDocumentChunkRepo(sqlDB),
		fingerprints: repo.NewStyleFingerprintRepo(sqlDB),
		cache:        repo.NewEmbeddingCacheRepo(sqlDB),
		db:           sqlDB,
	}, nil
}

// buildEmbedder returns the embedder chain and the in-memory query cache at
// its front, which is nil when disabled.
func buildEmbedder(cfg *config.Config, cache embedcache.Store) (ai.IEmbedder, *embedcache.QueryCache, error) {
	embedder, err := ai.BuildEmbedder(cfg.AI)
	if err != nil {
		return nil, nil, fmt.Errorf("init embedder: %w", err)
	}
	if cfg.EmbedCache.DBEnabled {
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, cache)
	}
	queries := embedcache.NewQueryCache(embedder, embedcache.QueryCacheOptions{
		Size:      cfg.EmbedCache.LRUSize,
		TTL:       time.Duration(cfg.EmbedCache.LRUTTLSeconds) * time.Second,
		TaskTypes: cfg.EmbedCache.LRUTaskTypes,
	})
	if queries != nil {
		return queries, queries, nil
	}
	return embedder, nil, nil
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := logutil.GetLogger(ctx)
	logger.Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("file_store", cfg.FileStore.Type),
	)

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer st.db.Close()
	}
	files, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	embedder, queryCache, err := buildEmbedder(cfg, st.cache)
	if err != nil {
		return err
	}
	generator, err := ai.BuildGenerator(cfg.AI)
	if err != nil {
		return fmt.Errorf("init generator: %w", err)
	}
	manager := ai.NewManager(generator, ai.ManagerConfig{Timeout: cfg.AI.Timeout})

	retrieval := service.NewRetrievalService(st.exchanges, st.chunks, embedder, service.RetrievalConfig{
		Threshold:     cfg.Retrieval.Threshold,
		ExchangeLimit: cfg.Retrieval.ExchangeLimit,
		DocumentLimit: cfg.Retrieval.DocumentLimit,
		Timeout:       time.Duration(cfg.Retrieval.TimeoutSeconds) * time.Second,
		Dimensions:    cfg.Database.EmbeddingDim,
	})
	recorder := service.NewRecorder(st.exchanges, embedder, service.RecorderConfig{
		Timeout:    time.Duration(cfg.Recorder.TimeoutSeconds) * time.Second,
		MinWords:   cfg.Recorder.MinWords,
		Dimensions: cfg.Database.EmbeddingDim,
	})
	replies := service.NewReplyService(st.fingerprints, retrieval, recorder, manager, service.Limits{
		Exchanges:       cfg.Retrieval.ExchangeLimit,
		Documents:       cfg.Retrieval.DocumentLimit,
		MaxExcerptRunes: cfg.Retrieval.MaxExcerptRunes,
	})
	styles := service.NewStyleService(st.exchanges, st.fingerprints, style.NewBuilder(style.Options{
		TopTopics:  cfg.Style.TopTopics,
		TopPhrases: cfg.Style.TopPhrases,
	}), cfg.Style.DraftWindow)
	knowledge := service.NewKnowledgeService(st.chunks, st.exchanges, files, embedder, service.KnowledgeConfig{
		ChunkSize:      cfg.Document.ChunkSize,
		MaxUploadBytes: cfg.Document.MaxUploadBytes,
		Dimensions:     cfg.Database.EmbeddingDim,
	})

	deps := handler.RouterDeps{
		Replies:   handler.NewReplyHandler(replies),
		Exchanges: handler.NewExchangeHandler(service.NewExchangeService(st.exchanges)),
		Styles:    handler.NewStyleHandler(styles),
		Knowledge: handler.NewKnowledgeHandler(knowledge, cfg.Document.MaxUploadBytes),
		JWTSecret: []byte(cfg.JWTSecret),
		RateLimit: time.Duration(cfg.RateLimitMS) * time.Millisecond,
	}

	scheduler := schedule.NewCronScheduler()
	if cfg.EmbedCache.DBEnabled {
		cleanup := job.NewEmbeddingCacheCleanupJob(st.cache, cfg.EmbedCache.MaxAgeDays)
		if err := scheduler.AddJob(cleanup, cfg.Schedule.EmbedCacheCleanup); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logger.Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler stop timed out", zap.Error(err))
	}
	if err := recorder.Close(shutdownCtx); err != nil {
		logger.Warn("pending exchange records abandoned", zap.Error(err))
	}
	if queryCache != nil {
		stats := queryCache.Stats()
		logger.Info("query embedding cache",
			zap.Uint64("hits", stats.Hits), zap.Uint64("misses", stats.Misses), zap.Int("entries", stats.Len))
	}
	return nil
}
