package service

import (
	"context"
	"encoding/json"

	"evote-api/internal/domain"
	"evote-api/pkg/redis"

	"go.uber.org/zap"
)

// CacheService fronts Redis for the read-heavy paths: election records,
// candidate lists, closed-election tallies and has-voted flags. Every method
// is safe on a nil receiver so the application degrades to database-only
// operation when Redis is not configured. Cache failures are logged and
// swallowed; the database stays authoritative.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	if redisClient == nil {
		return nil
	}
	return &CacheService{redis: redisClient, logger: logger}
}

// GetElection returns a cached election, or nil on miss
func (c *CacheService) GetElection(ctx context.Context, electionID string) *domain.Election {
	if c == nil {
		return nil
	}

	data, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyElection(electionID))
	if err != nil || data == "" {
		return nil
	}

	var election domain.Election
	if err := json.Unmarshal([]byte(data), &election); err != nil {
		c.logger.Warn("failed to decode cached election",
			zap.String("election_id", electionID),
			zap.Error(err))
		return nil
	}

	return &election
}

// SetElection caches an election record
func (c *CacheService) SetElection(ctx context.Context, election *domain.Election) {
	if c == nil {
		return
	}

	data, err := json.Marshal(election)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyElection(election.ID), string(data), redis.TTLElection); err != nil {
		c.logger.Warn("failed to cache election",
			zap.String("election_id", election.ID),
			zap.Error(err))
	}
}

// InvalidateElection drops every cached view of an election
func (c *CacheService) InvalidateElection(ctx context.Context, electionID string) {
	if c == nil {
		return
	}

	err := c.redis.Delete(ctx,
		c.redis.KeyBuilder.KeyElection(electionID),
		c.redis.KeyBuilder.KeyElectionCandidates(electionID),
		c.redis.KeyBuilder.KeyElectionResults(electionID),
	)
	if err != nil {
		c.logger.Warn("failed to invalidate election cache",
			zap.String("election_id", electionID),
			zap.Error(err))
	}
}

// GetCandidates returns the cached candidate list, or nil on miss
func (c *CacheService) GetCandidates(ctx context.Context, electionID string) []domain.Candidate {
	if c == nil {
		return nil
	}

	data, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyElectionCandidates(electionID))
	if err != nil || data == "" {
		return nil
	}

	var candidates []domain.Candidate
	if err := json.Unmarshal([]byte(data), &candidates); err != nil {
		return nil
	}

	return candidates
}

// SetCandidates caches an election's candidate list
func (c *CacheService) SetCandidates(ctx context.Context, electionID string, candidates []domain.Candidate) {
	if c == nil {
		return
	}

	data, err := json.Marshal(candidates)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyElectionCandidates(electionID), string(data), redis.TTLCandidates); err != nil {
		c.logger.Warn("failed to cache candidates",
			zap.String("election_id", electionID),
			zap.Error(err))
	}
}

// GetResults returns the cached tally for a closed election, or nil on miss
func (c *CacheService) GetResults(ctx context.Context, electionID string) *domain.ElectionResults {
	if c == nil {
		return nil
	}

	data, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyElectionResults(electionID))
	if err != nil || data == "" {
		return nil
	}

	var results domain.ElectionResults
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		return nil
	}

	return &results
}

// SetResults caches a closed election's tally
func (c *CacheService) SetResults(ctx context.Context, results *domain.ElectionResults) {
	if c == nil {
		return
	}

	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyElectionResults(results.ElectionID), string(data), redis.TTLResults); err != nil {
		c.logger.Warn("failed to cache results",
			zap.String("election_id", results.ElectionID),
			zap.Error(err))
	}
}

// HasVotedToken reports whether a hashed token is cached as voted. False
// means unknown; only the ledger can say no.
func (c *CacheService) HasVotedToken(ctx context.Context, electionID, hashedToken string) bool {
	if c == nil {
		return false
	}

	n, err := c.redis.Exists(ctx, c.redis.KeyBuilder.KeyTokenVoted(electionID, hashedToken))
	return err == nil && n > 0
}

// MarkVotedToken records a hashed token as voted. SetNX keeps the first
// write's TTL under concurrent casts.
func (c *CacheService) MarkVotedToken(ctx context.Context, electionID, hashedToken string) {
	if c == nil {
		return
	}

	if _, err := c.redis.SetNX(ctx, c.redis.KeyBuilder.KeyTokenVoted(electionID, hashedToken), "1", redis.TTLTokenVoted); err != nil {
		c.logger.Warn("failed to cache vote status", zap.Error(err))
	}
}

// HealthCheck pings the cache backend
func (c *CacheService) HealthCheck(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.redis.Health(ctx)
}
