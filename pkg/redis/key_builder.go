package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// Election key builders

func (kb *KeyBuilder) KeyElection(electionID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyElection, electionID))
}

func (kb *KeyBuilder) KeyElectionCandidates(electionID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyElectionCandidates, electionID))
}

func (kb *KeyBuilder) KeyElectionResults(electionID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyElectionResults, electionID))
}

// KeyTokenVoted builds the vote-status key for a hashed token. The key is
// derived from the pseudonymized token, never from a user identifier, so the
// cache leaks nothing the ledger doesn't already hold.
func (kb *KeyBuilder) KeyTokenVoted(electionID, hashedToken string) string {
	return kb.BuildKey(fmt.Sprintf(KeyTokenVoted, electionID, hashedToken))
}

// KeyCustom builds a key from an arbitrary pattern
func (kb *KeyBuilder) KeyCustom(pattern string, args ...interface{}) string {
	key := fmt.Sprintf(pattern, args...)
	return kb.BuildKey(key)
}
