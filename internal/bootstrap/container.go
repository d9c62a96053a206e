package bootstrap

import (
	"context"
	"fmt"
	"log"

	"ai-tutor-be/internal/config"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/docstore"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/internal/service"
	"ai-tutor-be/pkg/database"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/events"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/llm/factory"
	"ai-tutor-be/pkg/llm/mock"
	pktNats "ai-tutor-be/pkg/nats"
	"ai-tutor-be/pkg/rag"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/retrieval"
	"ai-tutor-be/pkg/tutor/session"
	"ai-tutor-be/pkg/tutor/struggle"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	Config *config.Config
	Logger logger.ILogger

	Tutor service.ITutorService
	Docs  store.DocumentStore

	// Background Services (nil when struggle analysis runs inline)
	ConsumerService service.IConsumerService

	closers []func()
}

func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c.Logger = sysLogger
	c.onClose(func() { _ = sysLogger.Sync() })

	// 2. Storage, retrieval and model backends
	var (
		docs      store.DocumentStore
		retriever rag.Retriever
		provider  llm.LLMProvider
	)
	if cfg.Tutor.DevMode {
		devDocs := memory.NewDocumentStore()
		SeedDevCourse(devDocs)
		docs = devDocs
		retriever = rag.NewMemoryRetriever(DevCourseChunks())
		provider = mock.NewProvider()
		log.Printf("[INFO] Developer mode: in-memory store, offline tutor")
	} else {
		db, err := database.Open(cfg.Database.Connection, database.Options{
			Verbose:      cfg.App.Environment != "production",
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			c.onClose(func() { _ = sqlDB.Close() })
		}
		uowFactory := unitofwork.NewRepositoryFactory(db)

		courseCache := memory.NewCourseCache(cfg.Cache.L1TTL, cfg.Cache.L2TTL, newRedisClient(cfg.Cache, c), sysLogger)
		docs = docstore.NewGormDocumentStore(uowFactory, courseCache, sysLogger)

		if cfg.Ai.EmbeddingProvider != "ollama" {
			return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Ai.EmbeddingProvider)
		}
		embedder := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
		retriever = rag.NewVectorRetriever(embedder, uowFactory, sysLogger)

		provider, err = factory.NewLLMProvider(
			cfg.Ai.LLMProvider,
			cfg.Ai.LLMModel,
			cfg.Ai.LLMBaseURL,
			cfg.Ai.LLMApiKey,
		)
		if err != nil {
			return nil, fmt.Errorf("initialize LLM provider: %w", err)
		}
		log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	}
	c.Docs = docs

	// 3. Event Bus
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Nats.URL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Nats.URL, cfg.Nats.Stream, cfg.Nats.Subject)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publisher = natsPub
			c.onClose(natsPub.Close)
		}
	}

	// 4. Services
	analyzer := struggle.NewAnalyzer(docs, provider, publisher, cfg.Tutor.AnalysisThreshold, sysLogger)

	var dispatcher service.IAnalysisDispatcher
	if cfg.Tutor.AnalysisAsync {
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
		c.onClose(func() { _ = pubSub.Close() })
		dispatcher = service.NewQueueAnalysisDispatcher(pubSub, service.AnalysisTopic)
		c.ConsumerService = service.NewConsumerService(pubSub, service.AnalysisTopic, analyzer, sysLogger)
	}

	sessions := session.NewStore(
		docs,
		provider,
		cfg.Tutor.InactivityWindow,
		sysLogger,
		session.WithRemovalHook(service.NewSessionEventHook(publisher, sysLogger)),
	)
	gateway := retrieval.NewGateway(docs, retriever, sysLogger)

	c.Tutor = service.NewTutorService(cfg.Tutor, sessions, gateway, analyzer, dispatcher, docs, publisher, sysLogger)
	c.onClose(c.Tutor.Shutdown)

	return c, nil
}

// Close releases resources in reverse order of acquisition
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func (c *Container) onClose(fn func()) {
	c.closers = append(c.closers, fn)
}

// newRedisClient returns nil when no URL is configured or the server is unreachable
func newRedisClient(cfg config.CacheConfig, c *Container) redis.UniversalClient {
	if cfg.RedisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis, course cache stays in-process: %v", err)
		_ = rdb.Close()
		return nil
	}
	c.onClose(func() { _ = rdb.Close() })
	return rdb
}
