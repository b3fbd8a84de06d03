package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"observatory-backend/internal/config"
	infraCache "observatory-backend/internal/infrastructure/cache"
	"observatory-backend/internal/infrastructure/database"
	"observatory-backend/internal/infrastructure/weather"
	"observatory-backend/pkg/cache"
	"observatory-backend/pkg/jwt"
	"observatory-backend/pkg/metrics"
	"observatory-backend/pkg/password"

	// User domain imports
	"observatory-backend/internal/domains/user"
	userHandler "observatory-backend/internal/domains/user/handler"
	userRepo "observatory-backend/internal/domains/user/repository"
	userService "observatory-backend/internal/domains/user/service"

	// Record domain imports
	recordHandler "observatory-backend/internal/domains/record/handler"
	recordRepo "observatory-backend/internal/domains/record/repository"
	recordService "observatory-backend/internal/domains/record/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa TẤT CẢ dependencies của application.
// Store handle được mở một lần ở đây và truyền xuống repositories; không có global.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config     *config.Config
	SQLite     *database.SQLiteDB   // set khi DB_DRIVER=sqlite
	Postgres   *database.PostgresDB // set khi DB_DRIVER=postgres
	Cache      cache.Cache
	Hasher     password.Hasher
	JWTManager *jwt.Manager
	Metrics    *metrics.Metrics
	Weather    *weather.Enricher

	// ========================================
	// REPOSITORY LAYER (DATA ACCESS)
	// ========================================
	UserRepo   user.Repository
	RecordRepo recordRepo.RecordRepository

	// ========================================
	// SERVICE LAYER (BUSINESS LOGIC)
	// ========================================
	UserService   user.Service
	RecordService recordService.ServiceInterface

	// ========================================
	// HANDLER LAYER (HTTP)
	// ========================================
	UserHandler   *userHandler.UserHandler
	RecordHandler *recordHandler.RecordHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer tạo và initialize toàn bộ dependency graph.
// Thứ tự: infrastructure -> repositories -> services -> handlers.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	log.Info().Msg("Initializing DI container...")

	c := &Container{Config: cfg}

	// ========================================
	// STEP 1: INITIALIZE DATABASE
	// ========================================
	if err := c.initDatabase(ctx); err != nil {
		return nil, err
	}

	// ========================================
	// STEP 2: INITIALIZE CACHE
	// ========================================
	c.initCache(ctx)

	// ========================================
	// STEP 3: SECURITY + OBSERVABILITY
	// ========================================
	hasher, err := password.New(cfg.Password.Algorithm)
	if err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init password hasher: %w", err)
	}
	c.Hasher = hasher
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	c.Metrics = metrics.New()
	c.Weather = weather.NewEnricher(c.weatherProvider(), cfg.Weather.Timeout, c.Metrics)

	// ========================================
	// STEP 4-6: REPOSITORIES, SERVICES, HANDLERS
	// ========================================
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Info().
		Str("driver", cfg.Database.Driver).
		Str("password_hasher", c.Hasher.Name()).
		Str("weather_provider", cfg.Weather.Provider).
		Msg("DI container initialized")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initDatabase(ctx context.Context) error {
	switch c.Config.Database.Driver {
	case config.DriverPostgres:
		db := database.NewPostgresDB(c.Config.Database.PostgresDBConfig())

		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := db.Connect(connectCtx); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.Postgres = db

	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, c.Config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		c.SQLite = db

	default:
		return fmt.Errorf("unsupported database driver %q", c.Config.Database.Driver)
	}
	return nil
}

// initCache: Redis khi được bật, fallback về in-memory nếu Redis không kết nối được
func (c *Container) initCache(ctx context.Context) {
	if !c.Config.Redis.Enabled {
		c.Cache = cache.NewMemoryCache()
		return
	}

	rc := infraCache.NewRedisCache(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := rc.Connect(ctx); err != nil {
		// Redis failure không critical - log warning và continue
		log.Warn().Err(err).Msg("Redis connection failed (non-critical), using in-memory cache")
		_ = rc.Close()
		c.Cache = cache.NewMemoryCache()
		return
	}
	c.Cache = rc
}

func (c *Container) weatherProvider() weather.Provider {
	if c.Config.Weather.Provider == config.WeatherProviderHTTP {
		return weather.NewHTTPProvider(c.Config.Weather.URL, c.Config.Weather.Timeout)
	}
	return weather.MockProvider{}
}

func (c *Container) initRepositories() {
	ttl := c.Config.Redis.NicknameTTL

	if c.Postgres != nil {
		c.UserRepo = userRepo.NewPostgresRepository(c.Postgres.Pool, c.Cache, ttl)
		c.RecordRepo = recordRepo.NewPostgresRepository(c.Postgres.Pool)
		return
	}
	c.UserRepo = userRepo.NewSQLiteRepository(c.SQLite.DB, c.Cache, ttl)
	c.RecordRepo = recordRepo.NewSQLiteRepository(c.SQLite.DB)
}

func (c *Container) initServices() {
	c.UserService = userService.NewUserService(c.UserRepo, c.Hasher, c.JWTManager)

	// UserService là NicknameResolver của record domain
	c.RecordService = recordService.NewRecordService(
		c.RecordRepo,
		c.UserService,
		c.Weather,
		c.Metrics,
		recordService.WithEnrichBudget(c.Config.Weather.Budget),
	)
}

func (c *Container) initHandlers() {
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.RecordHandler = recordHandler.NewRecordHandler(c.RecordService)
}

// ========================================
// HEALTH + CLEANUP
// ========================================

// HealthCheck ping store (bắt buộc) và cache (chỉ báo cáo)
func (c *Container) HealthCheck(ctx context.Context) (storeErr, cacheErr error) {
	switch {
	case c.Postgres != nil:
		storeErr = c.Postgres.HealthCheck(ctx)
	case c.SQLite != nil:
		storeErr = c.SQLite.HealthCheck(ctx)
	default:
		storeErr = errors.New("no database configured")
	}

	if c.Cache != nil {
		cacheErr = c.Cache.Ping(ctx)
	}
	return storeErr, cacheErr
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	log.Info().Msg("Cleaning up container resources...")

	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close PostgreSQL")
		}
	}
	if c.SQLite != nil {
		if err := c.SQLite.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close SQLite")
		}
	}

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}

	log.Info().Msg("Container cleanup completed")
}
