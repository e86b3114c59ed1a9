package bootstrap

import (
	"go_qa_assistant/config"
	"go_qa_assistant/pkg/logging"
	"go_qa_assistant/platform/api"
	"go_qa_assistant/platform/cache"
	"go_qa_assistant/platform/database"
	"go_qa_assistant/platform/events"
	"go_qa_assistant/platform/redis"
)

type Infrastructure struct {
	DB    *database.DB
	Redis *redis.Service
	Cache cache.CacheService
	Bus   *events.Bus
	API   *api.Client
}

func NewInfrastructure(cfg *config.Config) (*Infrastructure, error) {
	infra := &Infrastructure{}

	// database, only when versions and questions live in our own tables
	if cfg.PersistenceMode == config.PersistencePostgres {
		db, err := database.InitPostgres(cfg)
		if err != nil {
			return nil, err
		}
		infra.DB = db
		if err := infra.DB.AutoMigrate(); err != nil {
			return nil, err
		}
	}

	// redis is optional; without it the cache is in-process only
	l1CacheService := cache.InitL1Cache()
	var mirrors []events.Publisher
	if cfg.RedisURL != "" {
		redisService, err := redis.InitRedis(cfg)
		if err != nil {
			logging.Logger.Error("fail Initializing Redis", "error", err)
			return nil, err
		}
		infra.Redis = redisService
		infra.Cache = cache.NewCacheService(l1CacheService, redisService)
		mirrors = append(mirrors, events.NewRedisEvents(redisService.Rdb))
	} else {
		logging.Logger.Info("Redis disabled, using in-process cache only")
		infra.Cache = cache.NewCacheService(l1CacheService, nil)
	}

	infra.Bus = events.NewBus(logging.Logger, mirrors...)
	infra.API = api.NewClient(cfg.APIBaseURL, api.StaticToken(cfg.APIToken), cfg.RequestTimeout)
	return infra, nil
}

func (infra *Infrastructure) Shutdown() error {
	if infra.Bus != nil {
		if err := infra.Bus.Close(); err != nil {
			logging.Logger.Error("fail closing event bus", "error", err)
			return err
		}
	}
	if infra.DB != nil {
		if err := infra.DB.Close(); err != nil {
			logging.Logger.Error("fail closing database", "error", err)
			return err
		}
	}
	if infra.Redis != nil {
		if err := infra.Redis.Close(); err != nil {
			logging.Logger.Error("fail closing redis", "error", err)
			return err
		}
	}
	return nil
}
