package domain

import "time"

// VoteRecord is one row of the append-only ledger. It carries the hashed
// anonymous token and never a user reference; records are created once and
// only ever removed by cascading deletion of the parent election.
type VoteRecord struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"election_id"`
	CandidateID string    `json:"candidate_id"`
	HashedToken string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// VoteRequest is the payload for casting a vote
type VoteRequest struct {
	ElectionID  string `json:"election_id"`
	CandidateID string `json:"candidate_id"`
}

// VoteReceipt confirms a cast without revealing the vote or the token
type VoteReceipt struct {
	ElectionID string    `json:"election_id"`
	VotedAt    time.Time `json:"voted_at"`
	Message    string    `json:"message"`
}

// VoteStatusResponse answers "has this account already voted here"
type VoteStatusResponse struct {
	ElectionID string `json:"election_id"`
	HasVoted   bool   `json:"has_voted"`
}

// CandidateResult is one tally line. Zero-vote candidates are included.
type CandidateResult struct {
	CandidateID   string `json:"candidate_id"`
	CandidateName string `json:"candidate_name"`
	VoteCount     int    `json:"vote_count"`
}

// ElectionResults is the full tally for a closed election, ordered by
// descending vote count with ties broken by candidate creation order.
type ElectionResults struct {
	ElectionID string            `json:"election_id"`
	Title      string            `json:"title"`
	Status     ElectionStatus    `json:"status"`
	TotalVotes int               `json:"total_votes"`
	Results    []CandidateResult `json:"results"`
}
