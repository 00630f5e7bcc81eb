package config

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"task-manager/configs"
	"task-manager/internal/auth"
	"task-manager/internal/cache"
	"task-manager/internal/repository"
	"task-manager/internal/service"
	"task-manager/pkg/crypto"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
)

// Dependencies dibangun sekali di main lalu dibagikan ke handler dan route.
type Dependencies struct {
	Config      configs.Config
	DB          *sql.DB
	RedisClient *redis.Client
	Validate    *validator.Validate

	Tokens   *auth.TokenManager
	Resolver *auth.Resolver
	Users    *service.UserService
	Tasks    *service.TaskService
}

// NewDependencies merangkai repository, service, dan auth dari config.
// redisClient boleh nil; cache task akan dimatikan.
func NewDependencies(cfg configs.Config, db *sql.DB, dialect repository.Dialect, redisClient *redis.Client) (*Dependencies, error) {
	hasher, err := crypto.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenManager([]byte(cfg.SecretKey), cfg.Algorithm, time.Now)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	var taskCache service.TaskCache = service.NopCache{}
	if redisClient != nil {
		taskCache = cache.NewTaskCache(redisClient, cfg.CacheTTL)
	}

	userRepo := repository.NewUserRepository(db, dialect)
	taskRepo := repository.NewTaskRepository(db, dialect)
	rules := service.RulesFromConfig(cfg)

	return &Dependencies{
		Config:      cfg,
		DB:          db,
		RedisClient: redisClient,
		Validate:    newValidator(),
		Tokens:      tokens,
		Resolver:    auth.NewResolver(tokens, userRepo),
		Users:       service.NewUserService(userRepo, hasher, taskCache, rules),
		Tasks:       service.NewTaskService(taskRepo, taskCache, rules),
	}, nil
}

// newValidator melaporkan nama field sesuai tag json.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
