package domain

import "time"

// Organization owns elections. Deleting an organization cascades to its
// elections and their ledgers.
type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateOrganizationRequest is the payload for organization creation
type CreateOrganizationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
