package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/secondbrain/engine/branch"
	"github.com/secondbrain/engine/config"
	"github.com/secondbrain/engine/conversation"
	"github.com/secondbrain/engine/embedding"
	"github.com/secondbrain/engine/fallback"
	"github.com/secondbrain/engine/ingestreport"
	"github.com/secondbrain/engine/internal/metrics"
	"github.com/secondbrain/engine/internal/server"
	"github.com/secondbrain/engine/memory"
	"github.com/secondbrain/engine/planner"
	"github.com/secondbrain/engine/recall"
	"github.com/secondbrain/engine/rerank"
	"github.com/secondbrain/engine/router"
	"github.com/secondbrain/engine/trace"
	"github.com/secondbrain/engine/vectorstore"
)

// Server wires every C1-C12 component named in SPEC_FULL.md §4 into one
// running engine and exposes it over cmd/secondbrain-server's HTTP API.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager
	metrics        *metrics.Collector
	db             *sql.DB
	redisStore     *router.RedisStore

	wg sync.WaitGroup
}

// NewServer builds an unstarted Server from a loaded Config.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Start constructs the retrieval/chat pipeline and begins serving HTTP.
func (s *Server) Start() error {
	s.metrics = metrics.NewCollector("secondbrain", s.logger)

	embedder := s.buildEmbedder()
	store, err := s.buildVectorStore()
	if err != nil {
		return fmt.Errorf("build vector store: %w", err)
	}
	providers := s.buildMemoryProviders(embedder, store)

	policies := router.DefaultPolicies(s.cfg.Providers.VectorName, s.cfg.Providers.MemoryName)
	cooldown := time.Duration(s.cfg.ProviderStatus.CooldownSeconds) * time.Second
	rtr, err := s.buildRouter(policies, cooldown)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	reranker := rerank.NewMock()
	fallbackEmitter := fallback.New(nil)
	collector := trace.New(s.cfg.Trace.MaxEvents)

	orchestrator := recall.New(rtr, providers, reranker, fallbackEmitter, collector, recall.Timeouts{
		Provider:        s.cfg.Timeouts.Vector,
		Rerank:          s.cfg.Timeouts.Rerank,
		RequestFast:     s.cfg.Timeouts.RequestFast,
		RequestAccurate: s.cfg.Timeouts.RequestAccurate,
	})

	sessions, err := conversation.New(s.cfg.Conversation.MaxTurns, s.cfg.Conversation.MaxSessions)
	if err != nil {
		return fmt.Errorf("build conversation store: %w", err)
	}
	policy := branch.New(branch.Thresholds{
		Proceed:       s.cfg.Thresholds.Proceed,
		LowConfidence: s.cfg.Thresholds.LowConfidence,
	})

	var llm planner.LLMPort
	if s.cfg.LLM.Enabled && s.cfg.LLM.Provider == "anthropic" {
		llm = planner.NewAnthropic(planner.AnthropicConfig{
			BaseURL:   s.cfg.LLM.BaseURL,
			APIKey:    s.cfg.Secrets.LLMAPIKey,
			Model:     s.cfg.LLM.Model,
			MaxTokens: s.cfg.LLM.MaxTokens,
			Timeout:   s.cfg.LLM.Timeout,
		})
	}
	p := planner.New(orchestrator, policy, sessions, llm)

	ingestStore, err := s.buildIngestStore()
	if err != nil {
		s.logger.Warn("ingest report persistence disabled", zap.Error(err))
	}

	handlers := &engineHandlers{orchestrator: orchestrator, planner: p, ingest: ingestStore, logger: s.logger, metrics: s.metrics}

	if err := s.startHTTPServer(handlers); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("start metrics server: %w", err)
	}

	s.logger.Info("secondbrain-server started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
	)
	return nil
}

func (s *Server) buildEmbedder() embedding.Port {
	if s.cfg.Embedding.Provider == "mock" || s.cfg.Embedding.Provider == "" {
		return embedding.NewMockProvider(s.cfg.Embedding.Dimension)
	}
	return embedding.NewHTTPProvider(embedding.HTTPConfig{
		Name:       s.cfg.Embedding.Provider,
		Model:      s.cfg.Embedding.Model,
		Dimensions: s.cfg.Embedding.Dimension,
		APIKey:     s.cfg.Secrets.EmbeddingAPIKey,
		Timeout:    s.cfg.Timeouts.Embed,
	})
}

// buildRouter selects the in-process or Redis-backed StatusStore per
// provider_status.backend. A Redis backend lets every replica behind a load
// balancer see the same provider cooldown state.
func (s *Server) buildRouter(policies map[router.Mode]router.Policy, cooldown time.Duration) (*router.Router, error) {
	if s.cfg.ProviderStatus.Backend != "redis" {
		return router.New(policies, cooldown), nil
	}

	store, err := router.NewRedisStore(router.RedisConfig{
		Addr:         s.cfg.ProviderStatus.RedisAddr,
		Password:     s.cfg.Redis.Password,
		DB:           s.cfg.Redis.DB,
		KeyPrefix:    s.cfg.ProviderStatus.RedisKeyPrefix,
		PoolSize:     s.cfg.Redis.PoolSize,
		MinIdleConns: s.cfg.Redis.MinIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connect provider status redis: %w", err)
	}
	s.redisStore = store
	return router.NewWithStore(policies, cooldown, store), nil
}

func (s *Server) buildVectorStore() (vectorstore.Port, error) {
	switch s.cfg.Vectorstore.Backend {
	case "qdrant":
		return vectorstore.NewQdrant(vectorstore.QdrantConfig{
			Host:       s.cfg.Vectorstore.Host,
			Port:       s.cfg.Vectorstore.Port,
			APIKey:     s.cfg.Vectorstore.APIKey,
			Collection: s.cfg.Vectorstore.Collection,
			Timeout:    s.cfg.Timeouts.Vector,
		}), nil
	case "postgres":
		gdb, err := gorm.Open(postgres.Open(s.cfg.Database.DSN()), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open postgres vectorstore: %w", err)
		}
		return vectorstore.NewPostgres(gdb)
	case "sqlite":
		gdb, err := gorm.Open(sqlite.Open(s.cfg.Database.Name), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open sqlite vectorstore: %w", err)
		}
		return vectorstore.NewSQLite(gdb)
	case "memory", "":
		return vectorstore.NewInMemory(), nil
	default:
		return vectorstore.NewInMemory(), nil
	}
}

func (s *Server) buildMemoryProviders(embedder embedding.Port, store vectorstore.Port) map[string]memory.Provider {
	providers := make(map[string]memory.Provider)
	for _, name := range s.cfg.Providers.Enabled {
		switch name {
		case "vector":
			providers[s.cfg.Providers.VectorName] = memory.NewVectorProvider(embedder, store)
		case "memory":
			providers[s.cfg.Providers.MemoryName] = memory.NewExternalProvider(memory.ExternalConfig{
				Name:    s.cfg.Providers.MemoryName,
				BaseURL: s.cfg.Providers.MemoryBaseURL,
				APIKey:  s.cfg.Secrets.MemoryAPIKey,
				Timeout: s.cfg.Timeouts.Memory,
			})
		}
	}
	return providers
}

func (s *Server) buildIngestStore() (*ingestreport.Store, error) {
	if s.cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("ingest report persistence requires database.driver=postgres, got %q", s.cfg.Database.Driver)
	}
	db, err := sql.Open("postgres", s.cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(s.cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.Database.ConnMaxLifetime)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := ingestreport.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ingest_reports: %w", err)
	}
	s.db = db
	return ingestreport.New(db), nil
}

func (s *Server) startHTTPServer(h *engineHandlers) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/v1/recall_search", h.handleRecallSearch)
	mux.HandleFunc("/v1/chat", h.handleChat)
	mux.HandleFunc("/v1/ingest", h.handleIngest)

	ctx := context.Background()
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		RateLimiter(ctx, 50, 100),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}
	s.httpManager = server.NewManager(handler, serverConfig, s.logger)
	return s.httpManager.Start()
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}
	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)
	return s.metricsManager.Start()
}

// WaitForShutdown blocks until an OS signal arrives, then shuts everything
// down gracefully.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown releases every resource Start acquired.
func (s *Server) Shutdown() {
	ctx := context.Background()
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("http server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", zap.Error(err))
		}
	}
	if s.redisStore != nil {
		if err := s.redisStore.Close(); err != nil {
			s.logger.Error("provider status redis close error", zap.Error(err))
		}
	}
	s.wg.Wait()
	s.logger.Info("graceful shutdown completed")
}
