package bootstrap

import (
	"context"
	"os"
	"time"

	"napoleon_server/adapter/out/messaging"
	"napoleon_server/adapter/out/mongodb"
	"napoleon_server/adapter/out/persistence"
	"napoleon_server/config"
	"napoleon_server/core/agent/llm"
	"napoleon_server/core/domain"
	"napoleon_server/core/port/out"
	"napoleon_server/core/service/analysis"
	"napoleon_server/core/service/delegation"
	"napoleon_server/core/service/digest"
	"napoleon_server/core/service/notification"
	"napoleon_server/core/service/priority"
	"napoleon_server/core/service/vip"
	"napoleon_server/infra/database"
	"napoleon_server/pkg/cache"
	"napoleon_server/pkg/logger"
	"napoleon_server/pkg/ratelimit"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies wires every adapter and service the API needs.
type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Repositories
	MessageRepo  domain.MessageRepository
	AnalysisRepo domain.MessageAnalysisRepository
	ActionRepo   domain.ActionItemRepository
	VipRepo      domain.VipContactRepository
	BatchRepo    domain.BatchRecordRepository
	BodyRepo     domain.MessageBodyRepository

	NotificationRepo domain.SmartNotificationRepository
	PreferencesRepo  domain.NotificationPreferencesRepository
	RuleRepo         domain.NotificationRuleRepository

	MemberRepo domain.TeamMemberRepository
	TaskRepo   domain.DelegationTaskRepository

	// Messaging
	NotifySender out.NotificationSender

	// LLM
	LLMClient *llm.Client

	// Services
	Processor           *analysis.Processor
	NotificationService *notification.Service
	DelegationService   *delegation.Service
	DigestService       *digest.Service
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	// Database (pgxpool, used for health checks and pool stats)
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	// Database (sqlx for the persistence adapters)
	sqlDB, err := database.NewSQLX(cfg.DatabaseURL)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })

	// Redis (rate limiting, prompt cache, delivery streams); optional
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed: %v", err)
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { redisClient.Close() })
		}
	}

	// MongoDB (full message bodies); optional
	if cfg.MongoDBURL != "" {
		mongoClient, err := database.NewMongo(cfg.MongoDBURL)
		if err != nil {
			logger.Warn("MongoDB connection failed: %v", err)
		} else {
			deps.MongoDB = mongoClient
			cleanups = append(cleanups, func() {
				mongoClient.Disconnect(context.Background())
			})

			bodyAdapter := mongodb.NewMessageBodyAdapter(mongoClient.Database(cfg.MongoDBName))
			if err := bodyAdapter.EnsureIndexes(context.Background()); err != nil {
				logger.Warn("Failed to ensure MongoDB indexes: %v", err)
			}
			deps.BodyRepo = bodyAdapter
		}
	}

	// Postgres repositories
	deps.MessageRepo = persistence.NewMessageAdapter(sqlDB)
	deps.AnalysisRepo = persistence.NewMessageAnalysisAdapter(sqlDB)
	deps.ActionRepo = persistence.NewActionItemAdapter(sqlDB)
	deps.VipRepo = persistence.NewVipContactAdapter(sqlDB)
	deps.BatchRepo = persistence.NewBatchRecordAdapter(sqlDB)
	deps.NotificationRepo = persistence.NewSmartNotificationAdapter(sqlDB)
	deps.PreferencesRepo = persistence.NewNotificationPreferencesAdapter(sqlDB)
	deps.RuleRepo = persistence.NewNotificationRuleAdapter(sqlDB)
	deps.MemberRepo = persistence.NewTeamMemberAdapter(sqlDB)
	deps.TaskRepo = persistence.NewDelegationTaskAdapter(sqlDB)

	// Delivery fan-out over Redis Streams
	if deps.Redis != nil {
		zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
		deps.NotifySender = messaging.NewStreamSender(deps.Redis, zlog)
	} else {
		logger.Warn("Redis not available, notifications will not be delivered")
	}

	// LLM client; every service that takes it also carries a deterministic
	// fallback, so a missing API key degrades rather than breaks.
	if cfg.OpenAIAPIKey != "" {
		client := llm.NewClientWithConfig(llm.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
		})
		if deps.Redis != nil {
			prompts := llm.NewPromptCache(cache.NewRedisCache(deps.Redis)).
				WithTTL(time.Duration(cfg.PromptCacheTTLMin) * time.Minute)
			client = client.WithPromptCache(prompts)
		}
		deps.LLMClient = client
	} else {
		logger.Warn("OPENAI_API_KEY not set, all scoring uses rule-based fallbacks")
	}

	var llmPort out.LLMClient
	if deps.LLMClient != nil {
		llmPort = deps.LLMClient
	}

	// Notification service (decision engine + delivery)
	deps.NotificationService = notification.NewService(
		notification.NewEngine(llmPort),
		deps.NotificationRepo,
		deps.PreferencesRepo,
		deps.RuleRepo,
		deps.NotifySender,
	)

	// Analysis pipeline
	limiter := ratelimit.NewBatchLimiter(deps.Redis, cfg.BatchRateLimit, time.Hour)
	deps.Processor = analysis.NewProcessor(analysis.ProcessorDeps{
		MessageRepo:  deps.MessageRepo,
		BodyRepo:     deps.BodyRepo,
		VipRepo:      deps.VipRepo,
		AnalysisRepo: deps.AnalysisRepo,
		ActionRepo:   deps.ActionRepo,
		BatchRepo:    deps.BatchRepo,
		Classifier:   vip.NewClassifier(),
		Scorer:       priority.NewScorer(llmPort),
		Extractor:    analysis.NewExtractor(llmPort),
		Limiter:      limiter,
		Notify: func(ctx context.Context, msg *domain.Message) {
			if _, err := deps.NotificationService.Notify(ctx, msg); err != nil {
				logger.WithError(err).WithField("message_id", msg.ID).Warn("notification decision failed")
			}
		},
	})

	// Delegation
	deps.DelegationService = delegation.NewService(delegation.NewMatcher(), deps.MemberRepo, deps.TaskRepo)

	// Executive digest
	deps.DigestService = digest.NewService(deps.MessageRepo, llmPort)

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	return deps, cleanup, nil
}

func (d *Dependencies) HealthCheck(ctx context.Context) error {
	if err := d.DB.Ping(ctx); err != nil {
		return err
	}

	if d.Redis != nil {
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}

	return nil
}
