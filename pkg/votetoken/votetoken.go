// Package votetoken derives the anonymous per-election voter tokens that make
// "one person, one vote" enforceable without persisting who voted.
//
// A token is HMAC-SHA256(secret, voterID ":" electionID) rendered as hex. The
// same voter always maps to the same token within an election, tokens for the
// same voter differ across elections, and the voter identifier cannot be
// recovered from a token without the secret key. Only an unkeyed SHA-256
// digest of the token is ever stored, so a leaked database plus a leaked key
// still requires a per-identifier dictionary walk to confirm a voter. The
// process operator holds the key and can run that walk; that is an accepted
// trust boundary, not a gap this package tries to close.
//
// Rotating the secret key makes previously cast votes unrecognizable as
// duplicates for any election still open at rotation time.
package votetoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// MinKeyLen is the minimum accepted secret key length in bytes.
const MinKeyLen = 32

// Pseudonymizer derives deterministic, unlinkable vote tokens. It is
// immutable after construction and safe for concurrent use.
type Pseudonymizer struct {
	key []byte
}

// New creates a Pseudonymizer from the process-wide secret key.
func New(key []byte) (*Pseudonymizer, error) {
	if len(key) < MinKeyLen {
		return nil, fmt.Errorf("vote token secret must be at least %d bytes, got %d", MinKeyLen, len(key))
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Pseudonymizer{key: k}, nil
}

// Derive computes the anonymous token for a voter identifier and election.
// The voter identifier must be the caller-selected stable identifier for one
// human (employee ID when present, account ID otherwise).
func (p *Pseudonymizer) Derive(voterID, electionID string) string {
	mac := hmac.New(sha256.New, p.key)
	mac.Write([]byte(voterID))
	mac.Write([]byte(":"))
	mac.Write([]byte(electionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Digest hashes a token once more before storage so the ledger never holds
// the raw token either.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
