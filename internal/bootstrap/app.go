package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kataras/golog"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"memoryai/internal/ai"
	"memoryai/internal/cache"
	"memoryai/internal/config"
	"memoryai/internal/model"
	databaseClient "memoryai/internal/platform/database"
	rabbitmqClient "memoryai/internal/platform/rabbitmq"
	redisClient "memoryai/internal/platform/redis"
	"memoryai/internal/repository"
	"memoryai/internal/vectorindex"
	"memoryai/internal/worker"
)

// App holds the process-lifetime resource handles. Everything here is
// constructed once at startup and injected into the services; nothing holds
// global state.
type App struct {
	Config *config.Config
	DB     *gorm.DB

	// Optional handles, nil when disabled in config.
	Redis        *redis.Client
	MQConn       *amqp.Connection
	SessionCache *cache.SessionCache
	Publisher    *rabbitmqClient.DocumentPublisher

	Index          vectorindex.Index
	Embedder       ai.Embedder
	Synthesizer    *ai.Synthesizer
	DocumentWorker *worker.DocumentRecordWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	db, err := databaseClient.New(ctx, cfg.Database, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.Entity{}, &model.Relation{}, &model.Session{}, &model.Document{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	app := &App{
		Config:    cfg,
		DB:        db,
		StartedAt: time.Now(),
	}

	if cfg.Redis.Enabled {
		redisCli, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		app.Redis = redisCli
		app.SessionCache = cache.NewSessionCache(redisCli, time.Duration(cfg.Redis.SessionTTLSeconds)*time.Second)
	} else {
		golog.Info("redis disabled, session context reads go to the database")
	}

	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
		app.MQConn = mqConn
		app.Publisher = rabbitmqClient.NewDocumentPublisher(mqConn, cfg.RabbitMQ.DocumentQueue)

		documentRepo := repository.NewDocumentRepository(db)
		documentWorker := worker.NewDocumentRecordWorker(mqConn, documentRepo, cfg.RabbitMQ.DocumentQueue)
		if err := documentWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start document worker failed: %w", err)
		}
		app.DocumentWorker = documentWorker
	} else {
		golog.Info("rabbitmq disabled, document catalog rows are written inline")
	}

	index, err := newVectorIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Index = index

	aiClient := ai.NewOpenAICompatibleClient()
	app.Embedder = ai.NewEmbeddingService(aiClient, ai.EmbeddingConfig{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	}, cfg.Embedding.BatchSize)
	app.Synthesizer = newSynthesizer(cfg, aiClient)

	return app, nil
}

func newVectorIndex(ctx context.Context, cfg *config.Config) (vectorindex.Index, error) {
	switch cfg.Vector.Backend {
	case "qdrant":
		index := vectorindex.NewQdrant(vectorindex.QdrantConfig{
			URL:        cfg.Vector.URL,
			APIKey:     cfg.Vector.APIKey,
			Collection: cfg.Vector.Collection,
		})
		if err := index.Init(ctx, cfg.Embedding.Dimension); err != nil {
			return nil, fmt.Errorf("init qdrant collection failed: %w", err)
		}
		return index, nil
	case "memory", "":
		return vectorindex.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}
}

// newSynthesizer builds the answer chain in preference order: Anthropic,
// then OpenAI, then the built-in retrieval-only fallback. Running with no
// key configured is a supported mode.
func newSynthesizer(cfg *config.Config, aiClient *ai.OpenAICompatibleClient) *ai.Synthesizer {
	var strategies []ai.Strategy
	if cfg.Synthesis.AnthropicAPIKey != "" {
		strategies = append(strategies, ai.AnthropicStrategy{
			Client: ai.NewAnthropicClient(),
			Config: ai.AnthropicConfig{
				BaseURL:   cfg.Synthesis.AnthropicBaseURL,
				APIKey:    cfg.Synthesis.AnthropicAPIKey,
				Model:     cfg.Synthesis.AnthropicModel,
				MaxTokens: cfg.Synthesis.MaxTokens,
			},
		})
	}
	if cfg.Synthesis.OpenAIAPIKey != "" {
		strategies = append(strategies, ai.OpenAIStrategy{
			Client: aiClient,
			Config: ai.ChatConfig{
				BaseURL: cfg.Synthesis.OpenAIBaseURL,
				APIKey:  cfg.Synthesis.OpenAIAPIKey,
				Model:   cfg.Synthesis.OpenAIModel,
			},
		})
	}
	if len(strategies) == 0 {
		golog.Info("no synthesis key configured, running in retrieval-only mode")
	}
	return ai.NewSynthesizer(strategies...)
}

func (a *App) Close() error {
	var closeErr error
	if a.DocumentWorker != nil {
		a.DocumentWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
