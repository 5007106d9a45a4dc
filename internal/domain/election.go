package domain

import "time"

// ElectionStatus is the election lifecycle phase. Transitions are monotonic:
// draft -> active -> closed, no skipping, no reopening.
type ElectionStatus string

const (
	StatusDraft  ElectionStatus = "draft"
	StatusActive ElectionStatus = "active"
	StatusClosed ElectionStatus = "closed"
)

// MinCandidatesToActivate is the smallest field an election may go live with.
const MinCandidatesToActivate = 2

// Election is a contest owned by an organization
type Election struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	Title          string         `json:"title"`
	Description    *string        `json:"description,omitempty"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	Status         ElectionStatus `json:"status"`
	CreatedBy      string         `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
}

// IsOpenAt reports whether t falls inside the voting window
func (e *Election) IsOpenAt(t time.Time) bool {
	return !t.Before(e.StartTime) && !t.After(e.EndTime)
}

// Candidate is a choice within an election
type Candidate struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"election_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateElectionRequest is the payload for election creation
type CreateElectionRequest struct {
	OrganizationID string    `json:"organization_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
}

// ElectionUpdate names each editable attribute explicitly; a nil field is
// left untouched. Only draft elections accept updates.
type ElectionUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u *ElectionUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.StartTime == nil && u.EndTime == nil
}

// AddCandidateRequest is the payload for adding a candidate to a draft election
type AddCandidateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
