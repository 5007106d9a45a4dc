package container

import (
	"context"

	"evote-api/internal/config"
	"evote-api/internal/repository"
	"evote-api/internal/service"
	"evote-api/pkg/database"
	"evote-api/pkg/googleauth"
	"evote-api/pkg/logger"
	"evote-api/pkg/redis"
	"evote-api/pkg/votetoken"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *database.PostgresDB
	RedisClient  *redis.Client
	Repositories *repository.Repositories
	Services     *service.Services
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Redis is optional; everything degrades to direct database reads.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	pseudonymizer, err := votetoken.New(cfg.VoteTokenSecret)
	if err != nil {
		db.Close()
		return nil, err
	}

	repos := &repository.Repositories{
		User:         repository.NewUserRepository(db),
		Organization: repository.NewOrganizationRepository(db),
		Election:     repository.NewElectionRepository(db),
		Candidate:    repository.NewCandidateRepository(db),
		Vote:         repository.NewVoteRepository(db),
	}

	cacheService := service.NewCacheService(redisClient, log.Logger)

	var googleVerifier service.GoogleVerifier
	if cfg.GoogleClientID != "" {
		googleVerifier = googleauth.NewVerifier(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}

	services := &service.Services{
		Auth:         service.NewAuthService(repos.User, googleVerifier, cfg, log.Logger),
		Organization: service.NewOrganizationService(repos.Organization, repos.Election, log.Logger),
		Election:     service.NewElectionService(repos.Election, repos.Candidate, repos.Organization, cacheService, log.Logger),
		Voting:       service.NewVotingService(repos.Election, repos.Candidate, repos.User, repos.Vote, pseudonymizer, cacheService, log.Logger),
		Cache:        cacheService,
	}

	return &Container{
		Config:       cfg,
		Logger:       log,
		DB:           db,
		RedisClient:  redisClient,
		Repositories: repos,
		Services:     services,
	}, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetDB returns the database handle
func (c *Container) GetDB() *database.PostgresDB {
	return c.DB
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// GetServices returns the application services
func (c *Container) GetServices() *service.Services {
	return c.Services
}

// Close releases the container's external connections
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.WithError(err).Error("Failed to close Redis client")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
