package service

import (
	"context"
	"strings"
	"time"

	"evote-api/internal/config"
	"evote-api/internal/domain"
	"evote-api/internal/repository"
	apperrors "evote-api/pkg/errors"
	"evote-api/pkg/googleauth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// GoogleVerifier covers both Google sign-in flows: the frontend-driven one
// where the client already holds an ID token, and the server-driven one where
// the backend hands out a consent URL and later exchanges the callback code.
type GoogleVerifier interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*googleauth.Identity, error)
	VerifyIDToken(ctx context.Context, rawIDToken string) (*googleauth.Identity, error)
}

// AuthService handles registration, login and token issuance. Access and
// refresh tokens are signed with separate secrets and carry a "typ" claim so
// one can never be replayed as the other.
type AuthService struct {
	userRepo repository.UserRepository
	google   GoogleVerifier
	cfg      *config.Config
	logger   *zap.Logger
}

// NewAuthService creates a new auth service. google may be nil when Google
// sign-in is not configured.
func NewAuthService(userRepo repository.UserRepository, google GoogleVerifier, cfg *config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		google:   google,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register creates a new account with the VOTER role
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserProfile, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("A valid email is required", nil)
	}
	if len(req.Password) < 8 {
		return nil, apperrors.NewValidationError("Password must be at least 8 characters", nil)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to check email", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("Email is already registered")
	}

	if req.EmployeeID != "" {
		existing, err = s.userRepo.GetByEmployeeID(ctx, req.EmployeeID)
		if err != nil {
			return nil, apperrors.NewInternalError("Failed to check employee ID", err)
		}
		if existing != nil {
			return nil, apperrors.NewConflictError("Employee ID is already registered")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to hash password", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if req.EmployeeID != "" {
		user.EmployeeID = &req.EmployeeID
	}
	if req.FullName != "" {
		user.FullName = &req.FullName
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperrors.NewInternalError("Failed to create user", err)
	}
	if err := s.userRepo.AssignRole(ctx, user.ID, domain.RoleVoter); err != nil {
		return nil, apperrors.NewInternalError("Failed to assign role", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))

	return &domain.UserProfile{
		ID:         user.ID,
		Email:      user.Email,
		EmployeeID: user.EmployeeID,
		FullName:   user.FullName,
		Roles:      []string{domain.RoleVoter},
	}, nil
}

// Login verifies email and password and issues a token pair
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load user", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, apperrors.NewAuthenticationError("Incorrect email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.NewAuthenticationError("Incorrect email or password")
	}
	if !user.IsActive {
		return nil, apperrors.NewAuthenticationError("Account is deactivated")
	}

	return s.issueTokens(ctx, user)
}

// GoogleAuthURL returns the Google consent page URL for the server-driven
// sign-in flow. The state value is echoed back on the callback.
func (s *AuthService) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", apperrors.NewAuthenticationError("Google sign-in is not configured")
	}
	return s.google.AuthCodeURL(state), nil
}

// LoginWithGoogleCode completes the server-driven flow: it exchanges the
// callback authorization code for a verified identity, provisioning an
// account on first sign-in, and issues a token pair.
func (s *AuthService) LoginWithGoogleCode(ctx context.Context, code string) (*domain.TokenPair, error) {
	if s.google == nil {
		return nil, apperrors.NewAuthenticationError("Google sign-in is not configured")
	}

	identity, err := s.google.ExchangeCode(ctx, code)
	if err != nil {
		return nil, apperrors.NewAuthenticationError("Invalid authorization code")
	}

	return s.loginWithIdentity(ctx, identity)
}

// LoginWithGoogle validates a Google ID token obtained by the frontend,
// provisioning an account on first sign-in, and issues a token pair.
func (s *AuthService) LoginWithGoogle(ctx context.Context, req *domain.GoogleLoginRequest) (*domain.TokenPair, error) {
	if s.google == nil {
		return nil, apperrors.NewAuthenticationError("Google sign-in is not configured")
	}

	identity, err := s.google.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return nil, apperrors.NewAuthenticationError("Invalid Google token")
	}

	return s.loginWithIdentity(ctx, identity)
}

func (s *AuthService) loginWithIdentity(ctx context.Context, identity *googleauth.Identity) (*domain.TokenPair, error) {
	if !identity.EmailVerified {
		return nil, apperrors.NewAuthenticationError("Google account email is not verified")
	}

	email := strings.ToLower(identity.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load user", err)
	}

	if user == nil {
		user = &domain.User{
			ID:       uuid.New().String(),
			Email:    email,
			IsActive: true,
		}
		if identity.Name != "" {
			user.FullName = &identity.Name
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, apperrors.NewInternalError("Failed to create user", err)
		}
		if err := s.userRepo.AssignRole(ctx, user.ID, domain.RoleVoter); err != nil {
			return nil, apperrors.NewInternalError("Failed to assign role", err)
		}
		s.logger.Info("user provisioned from google sign-in", zap.String("user_id", user.ID))
	}

	if !user.IsActive {
		return nil, apperrors.NewAuthenticationError("Account is deactivated")
	}

	return s.issueTokens(ctx, user)
}

// Refresh exchanges a valid refresh token for a fresh token pair
func (s *AuthService) Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.TokenPair, error) {
	claims, err := s.parseToken(req.RefreshToken, s.cfg.JWTRefreshSecret, "refresh")
	if err != nil {
		return nil, err
	}

	userID, _ := claims["sub"].(string)
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load user", err)
	}
	if user == nil || !user.IsActive {
		return nil, apperrors.NewAuthenticationError("Account is deactivated")
	}

	return s.issueTokens(ctx, user)
}

// ValidateAccessToken parses and validates an access token, returning the
// identity it asserts.
func (s *AuthService) ValidateAccessToken(tokenString string) (*domain.AuthClaims, error) {
	claims, err := s.parseToken(tokenString, s.cfg.JWTSecret, "access")
	if err != nil {
		return nil, err
	}

	userID, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)

	var roles []string
	if raw, ok := claims["roles"].([]interface{}); ok {
		for _, r := range raw {
			if role, ok := r.(string); ok {
				roles = append(roles, role)
			}
		}
	}

	return &domain.AuthClaims{
		UserID: userID,
		Email:  email,
		Roles:  roles,
	}, nil
}

// GetProfile returns the profile of the given account
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load user", err)
	}
	if user == nil {
		return nil, apperrors.NewNotFoundError("User not found")
	}

	roles, err := s.userRepo.GetRoles(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load roles", err)
	}

	return &domain.UserProfile{
		ID:         user.ID,
		Email:      user.Email,
		EmployeeID: user.EmployeeID,
		FullName:   user.FullName,
		Roles:      roles,
	}, nil
}

// UpdateRoles replaces an account's role set
func (s *AuthService) UpdateRoles(ctx context.Context, userID string, req *domain.UpdateRolesRequest) error {
	valid := map[string]bool{
		domain.RoleSuperAdmin:      true,
		domain.RoleOrgAdmin:        true,
		domain.RoleElectionManager: true,
		domain.RoleVoter:           true,
	}
	for _, role := range req.Roles {
		if !valid[role] {
			return apperrors.NewValidationError("Unknown role: "+role, nil)
		}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperrors.NewInternalError("Failed to load user", err)
	}
	if user == nil {
		return apperrors.NewNotFoundError("User not found")
	}

	if err := s.userRepo.ReplaceRoles(ctx, userID, req.Roles); err != nil {
		return apperrors.NewInternalError("Failed to update roles", err)
	}

	s.logger.Info("user roles updated",
		zap.String("user_id", userID),
		zap.Strings("roles", req.Roles))
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	roles, err := s.userRepo.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load roles", err)
	}

	now := time.Now().UTC()

	access, err := s.signToken(jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"roles": roles,
		"typ":   "access",
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.AccessTokenTTL).Unix(),
	}, s.cfg.JWTSecret)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to sign access token", err)
	}

	refresh, err := s.signToken(jwt.MapClaims{
		"sub": user.ID,
		"typ": "refresh",
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.RefreshTokenTTL).Unix(),
	}, s.cfg.JWTRefreshSecret)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to sign refresh token", err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	}, nil
}

func (s *AuthService) signToken(claims jwt.MapClaims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (s *AuthService) parseToken(tokenString, secret, wantType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.NewAuthenticationError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.NewAuthenticationError("Invalid token claims")
	}
	if typ, _ := claims["typ"].(string); typ != wantType {
		return nil, apperrors.NewAuthenticationError("Invalid token type")
	}

	return claims, nil
}
