package service

import (
	"context"
	"testing"
	"time"

	"evote-api/internal/config"
	"evote-api/internal/domain"
	apperrors "evote-api/pkg/errors"
	"evote-api/pkg/googleauth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type MockGoogleVerifier struct {
	mock.Mock
}

func (m *MockGoogleVerifier) AuthCodeURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockGoogleVerifier) ExchangeCode(ctx context.Context, code string) (*googleauth.Identity, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*googleauth.Identity), args.Error(1)
}

func (m *MockGoogleVerifier) VerifyIDToken(ctx context.Context, rawIDToken string) (*googleauth.Identity, error) {
	args := m.Called(ctx, rawIDToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*googleauth.Identity), args.Error(1)
}

func authTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "access-secret-for-tests",
		JWTRefreshSecret: "refresh-secret-for-tests",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  7 * 24 * time.Hour,
	}
}

func newAuthService(userRepo *MockUserRepository, google GoogleVerifier) *AuthService {
	return NewAuthService(userRepo, google, authTestConfig(), zap.NewNop())
}

func hashedPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRegister(t *testing.T) {
	t.Run("success assigns voter role", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo, nil)
		ctx := context.Background()

		userRepo.On("GetByEmail", ctx, "new@example.com").Return(nil, nil)
		userRepo.On("GetByEmployeeID", ctx, "EMP-1").Return(nil, nil)
		userRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "new@example.com" && u.IsActive && u.PasswordHash != "password123"
		})).Return(nil)
		userRepo.On("AssignRole", ctx, mock.Anything, domain.RoleVoter).Return(nil)

		profile, err := svc.Register(ctx, &domain.RegisterRequest{
			Email:      "New@Example.com",
			Password:   "password123",
			EmployeeID: "EMP-1",
		})

		require.NoError(t, err)
		assert.Equal(t, []string{domain.RoleVoter}, profile.Roles)
		userRepo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo, nil)
		ctx := context.Background()

		userRepo.On("GetByEmail", ctx, "taken@example.com").Return(&domain.User{ID: "u1"}, nil)

		_, err := svc.Register(ctx, &domain.RegisterRequest{
			Email:    "taken@example.com",
			Password: "password123",
		})

		assertErrorType(t, err, apperrors.ErrorTypeConflict)
	})

	t.Run("duplicate employee id", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo, nil)
		ctx := context.Background()

		userRepo.On("GetByEmail", ctx, "new@example.com").Return(nil, nil)
		userRepo.On("GetByEmployeeID", ctx, "EMP-1").Return(&domain.User{ID: "u1"}, nil)

		_, err := svc.Register(ctx, &domain.RegisterRequest{
			Email:      "new@example.com",
			Password:   "password123",
			EmployeeID: "EMP-1",
		})

		assertErrorType(t, err, apperrors.ErrorTypeConflict)
	})

	t.Run("short password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo, nil)

		_, err := svc.Register(context.Background(), &domain.RegisterRequest{
			Email:    "new@example.com",
			Password: "short",
		})

		assertErrorType(t, err, apperrors.ErrorTypeValidation)
	})
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo, nil)
		ctx := context.Background()

		user := &domain.User{
			ID:           "u1",
			Email:        "voter@example.com",
			PasswordHash: hashedPassword(t, "password123"),
			IsActive:     true,
		}
		userRepo.On("GetByEmail", ctx, "voter@example.com").Return(user, nil)
		userRepo.On("GetRoles", ctx, "u1").Return([]string{domain.RoleVoter}, nil)

		pair, err := svc.Login(ctx, &domain.LoginRequest{
			Email:    "voter@example.com",
			Password: "password123",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, "Bearer", pair.TokenType)

		claims, err := svc.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		assert.Equal(t, []string{domain.RoleVoter}, claims.Roles)
	})

	t.Run("wrong password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo, nil)
		ctx := context.Background()

		user := &domain.User{
			ID:           "u1",
			Email:        "voter@example.com",
			PasswordHash: hashedPassword(t, "password123"),
			IsActive:     true,
		}
		userRepo.On("GetByEmail", ctx, "voter@example.com").Return(user, nil)

		_, err := svc.Login(ctx, &domain.LoginRequest{
			Email:    "voter@example.com",
			Password: "wrong",
		})

		assertErrorType(t, err, apperrors.ErrorTypeAuthentication)
		assert.Contains(t, err.Error(), "Incorrect email or password")
	})

	t.Run("unknown email uses the same message", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo, nil)
		ctx := context.Background()

		userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, nil)

		_, err := svc.Login(ctx, &domain.LoginRequest{
			Email:    "ghost@example.com",
			Password: "password123",
		})

		assertErrorType(t, err, apperrors.ErrorTypeAuthentication)
		assert.Contains(t, err.Error(), "Incorrect email or password")
	})

	t.Run("deactivated account", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo, nil)
		ctx := context.Background()

		user := &domain.User{
			ID:           "u1",
			Email:        "voter@example.com",
			PasswordHash: hashedPassword(t, "password123"),
			IsActive:     false,
		}
		userRepo.On("GetByEmail", ctx, "voter@example.com").Return(user, nil)

		_, err := svc.Login(ctx, &domain.LoginRequest{
			Email:    "voter@example.com",
			Password: "password123",
		})

		assertErrorType(t, err, apperrors.ErrorTypeAuthentication)
		assert.Contains(t, err.Error(), "Account is deactivated")
	})
}

func TestRefresh(t *testing.T) {
	t.Run("refresh token cannot be used as access token", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo, nil)
		ctx := context.Background()

		user := &domain.User{
			ID:           "u1",
			Email:        "voter@example.com",
			PasswordHash: hashedPassword(t, "password123"),
			IsActive:     true,
		}
		userRepo.On("GetByEmail", ctx, "voter@example.com").Return(user, nil)
		userRepo.On("GetByID", ctx, "u1").Return(user, nil)
		userRepo.On("GetRoles", ctx, "u1").Return([]string{domain.RoleVoter}, nil)

		pair, err := svc.Login(ctx, &domain.LoginRequest{Email: "voter@example.com", Password: "password123"})
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(pair.RefreshToken)
		assertErrorType(t, err, apperrors.ErrorTypeAuthentication)

		fresh, err := svc.Refresh(ctx, &domain.RefreshRequest{RefreshToken: pair.RefreshToken})
		require.NoError(t, err)
		assert.NotEmpty(t, fresh.AccessToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo, nil)

		_, err := svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: "not-a-jwt"})

		assertErrorType(t, err, apperrors.ErrorTypeAuthentication)
	})
}

func TestLoginWithGoogle(t *testing.T) {
	t.Run("provisions account on first sign-in", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		google := new(MockGoogleVerifier)
		svc := newAuthService(userRepo, google)
		ctx := context.Background()

		google.On("VerifyIDToken", ctx, "id-token").Return(&googleauth.Identity{
			Subject:       "google-sub",
			Email:         "g@example.com",
			EmailVerified: true,
			Name:          "G User",
		}, nil)
		userRepo.On("GetByEmail", ctx, "g@example.com").Return(nil, nil)
		userRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "g@example.com" && u.IsActive && u.PasswordHash == ""
		})).Return(nil)
		userRepo.On("AssignRole", ctx, mock.Anything, domain.RoleVoter).Return(nil)
		userRepo.On("GetRoles", ctx, mock.Anything).Return([]string{domain.RoleVoter}, nil)

		pair, err := svc.LoginWithGoogle(ctx, &domain.GoogleLoginRequest{IDToken: "id-token"})

		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		userRepo.AssertExpectations(t)
	})

	t.Run("unverified email rejected", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		google := new(MockGoogleVerifier)
		svc := newAuthService(userRepo, google)
		ctx := context.Background()

		google.On("VerifyIDToken", ctx, "id-token").Return(&googleauth.Identity{
			Email:         "g@example.com",
			EmailVerified: false,
		}, nil)

		_, err := svc.LoginWithGoogle(ctx, &domain.GoogleLoginRequest{IDToken: "id-token"})

		assertErrorType(t, err, apperrors.ErrorTypeAuthentication)
	})

	t.Run("not configured", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo, nil)

		_, err := svc.LoginWithGoogle(context.Background(), &domain.GoogleLoginRequest{IDToken: "id-token"})

		assertErrorType(t, err, apperrors.ErrorTypeAuthentication)
	})
}

func TestGoogleAuthURL(t *testing.T) {
	t.Run("returns consent url", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		google := new(MockGoogleVerifier)
		svc := newAuthService(userRepo, google)

		google.On("AuthCodeURL", "state-1").Return("https://accounts.google.com/o/oauth2/auth?state=state-1")

		url, err := svc.GoogleAuthURL("state-1")

		require.NoError(t, err)
		assert.Contains(t, url, "state=state-1")
	})

	t.Run("not configured", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo, nil)

		_, err := svc.GoogleAuthURL("state-1")

		assertErrorType(t, err, apperrors.ErrorTypeAuthentication)
	})
}

func TestLoginWithGoogleCode(t *testing.T) {
	t.Run("exchanges code and provisions account", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		google := new(MockGoogleVerifier)
		svc := newAuthService(userRepo, google)
		ctx := context.Background()

		google.On("ExchangeCode", ctx, "auth-code").Return(&googleauth.Identity{
			Subject:       "google-sub",
			Email:         "g@example.com",
			EmailVerified: true,
			Name:          "G User",
		}, nil)
		userRepo.On("GetByEmail", ctx, "g@example.com").Return(nil, nil)
		userRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "g@example.com" && u.IsActive && u.PasswordHash == ""
		})).Return(nil)
		userRepo.On("AssignRole", ctx, mock.Anything, domain.RoleVoter).Return(nil)
		userRepo.On("GetRoles", ctx, mock.Anything).Return([]string{domain.RoleVoter}, nil)

		pair, err := svc.LoginWithGoogleCode(ctx, "auth-code")

		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		userRepo.AssertExpectations(t)
	})

	t.Run("rejected exchange", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		google := new(MockGoogleVerifier)
		svc := newAuthService(userRepo, google)
		ctx := context.Background()

		google.On("ExchangeCode", ctx, "bad-code").Return(nil, assert.AnError)

		_, err := svc.LoginWithGoogleCode(ctx, "bad-code")

		assertErrorType(t, err, apperrors.ErrorTypeAuthentication)
	})
}

func TestUpdateRoles_UnknownRole(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newAuthService(userRepo, nil)

	err := svc.UpdateRoles(context.Background(), "u1", &domain.UpdateRolesRequest{
		Roles: []string{"WIZARD"},
	})

	assertErrorType(t, err, apperrors.ErrorTypeValidation)
}
