package domain

import "time"

// System roles
const (
	RoleSuperAdmin      = "SUPER_ADMIN"
	RoleOrgAdmin        = "ORG_ADMIN"
	RoleElectionManager = "ELECTION_MANAGER"
	RoleVoter           = "VOTER"
)

// User represents a registered account. EmployeeID is the organization-issued
// identifier; when present it is the voter identity used by the ledger so one
// human cannot multiply their vote weight by registering several accounts.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	EmployeeID   *string   `json:"employee_id,omitempty"`
	PasswordHash string    `json:"-"`
	FullName     *string   `json:"full_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// VoterIdentifier returns the stable identifier the pseudonymizer should see:
// the employee ID when the account has one, the account ID otherwise.
func (u *User) VoterIdentifier() string {
	if u.EmployeeID != nil && *u.EmployeeID != "" {
		return *u.EmployeeID
	}
	return u.ID
}

// AuthClaims carries the validated identity extracted from an access token
type AuthClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

// HasAnyRole reports whether the claims carry at least one of the given roles
func (c *AuthClaims) HasAnyRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range c.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// RegisterRequest is the payload for account registration
type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name,omitempty"`
	EmployeeID string `json:"employee_id,omitempty"`
}

// LoginRequest is the payload for password login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest carries a Google ID token obtained by the frontend
type GoogleLoginRequest struct {
	IDToken string `json:"id_token"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenPair is returned by login and refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// UserProfile is the user view returned to the account owner
type UserProfile struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	EmployeeID *string  `json:"employee_id,omitempty"`
	FullName   *string  `json:"full_name,omitempty"`
	Roles      []string `json:"roles"`
}

// UpdateRolesRequest replaces a user's role set
type UpdateRolesRequest struct {
	Roles []string `json:"roles"`
}
