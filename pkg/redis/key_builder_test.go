package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKeyBuilder(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "Production environment",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "Development environment",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "Staging environment",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "Test environment",
			environment:    "test",
			expectedPrefix: "staging",
		},
		{
			name:           "Unknown environment defaults to prod",
			environment:    "something-else",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			assert.Equal(t, tt.expectedPrefix, kb.GetPrefix())
		})
	}
}

func TestKeyBuilder_ElectionKeys(t *testing.T) {
	kb := NewKeyBuilder("production")

	assert.Equal(t, "prod:election:e1", kb.KeyElection("e1"))
	assert.Equal(t, "prod:election:e1:candidates", kb.KeyElectionCandidates("e1"))
	assert.Equal(t, "prod:election:e1:results", kb.KeyElectionResults("e1"))
	assert.Equal(t, "prod:election:e1:token:abc123:voted", kb.KeyTokenVoted("e1", "abc123"))
}

func TestKeyBuilder_KeyCustom(t *testing.T) {
	kb := NewKeyBuilder("staging")

	assert.Equal(t, "staging:idem:user-1:e1", kb.KeyCustom("idem:%s:%s", "user-1", "e1"))
}
