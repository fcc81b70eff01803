package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Anaqqa/supfile/logger"
	"github.com/Anaqqa/supfile/models"
	"github.com/Anaqqa/supfile/repositories"
	"github.com/Anaqqa/supfile/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes and x/crypto now rejects it.
	maxPasswordLength = 72
)

type RegisterInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type OAuthIdentity struct {
	Provider   string
	ProviderID string
	Email      string
	FullName   string
}

type AuthOutput struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (AuthOutput, error)
	Login(ctx context.Context, in LoginInput) (AuthOutput, error)
	ResolveUser(ctx context.Context, token string) (models.User, error)
	FindOrCreateOAuthUser(ctx context.Context, identity OAuthIdentity) (AuthOutput, error)
}

type authService struct {
	txManager    TxManager
	users        repositories.UserRepository
	jwt          *utils.JWTManager
	defaultQuota int64
	validate     *validator.Validate
}

func NewAuthService(txManager TxManager, users repositories.UserRepository, jwt *utils.JWTManager, defaultQuota int64) AuthService {
	return &authService{
		txManager:    txManager,
		users:        users,
		jwt:          jwt,
		defaultQuota: defaultQuota,
		validate:     validator.New(),
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (AuthOutput, error) {
	email, err := s.normalizeEmail(in.Email)
	if err != nil {
		return AuthOutput{}, err
	}
	if err := checkPassword(in.Password); err != nil {
		return AuthOutput{}, err
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return AuthOutput{}, internalError("failed to hash password", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: &hashed,
		FullName:     strings.TrimSpace(in.FullName),
		IsActive:     true,
		StorageQuota: s.defaultQuota,
	}
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		count, err := s.users.CountByEmail(ctx, tx, email)
		if err != nil {
			return internalError("failed to check email", err)
		}
		if count > 0 {
			return newAppError(KindConflict, "email already registered", nil)
		}
		if err := s.users.Create(ctx, tx, &user); err != nil {
			return internalError("failed to create user", err)
		}
		return nil
	})
	if err != nil {
		return AuthOutput{}, err
	}

	logger.WithFields(logger.Fields{"user_id": user.ID}).Info("user registered")
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, in LoginInput) (AuthOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	user, err := s.users.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthOutput{}, newAppError(KindUnauthorized, "invalid email or password", nil)
		}
		return AuthOutput{}, internalError("failed to query user", err)
	}

	if !user.HasPassword() || !utils.CheckPassword(in.Password, *user.PasswordHash) {
		return AuthOutput{}, newAppError(KindUnauthorized, "invalid email or password", nil)
	}
	if !user.IsActive {
		return AuthOutput{}, newAppError(KindUnauthorized, "account is disabled", nil)
	}
	return s.issue(user)
}

func (s *authService) ResolveUser(ctx context.Context, token string) (models.User, error) {
	claims, err := s.jwt.ParseToken(token)
	if err != nil {
		return models.User{}, newAppError(KindUnauthorized, "invalid or expired token", err)
	}

	user, err := s.users.GetByID(ctx, nil, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, newAppError(KindUnauthorized, "invalid or expired token", nil)
		}
		return models.User{}, internalError("failed to query user", err)
	}
	if !user.IsActive {
		return models.User{}, newAppError(KindUnauthorized, "account is disabled", nil)
	}
	return user, nil
}

// FindOrCreateOAuthUser matches by provider identity first, then links an
// existing account with the same email, and finally creates a new account
// without a password.
func (s *authService) FindOrCreateOAuthUser(ctx context.Context, identity OAuthIdentity) (AuthOutput, error) {
	provider := strings.ToLower(strings.TrimSpace(identity.Provider))
	providerID := strings.TrimSpace(identity.ProviderID)
	if provider == "" || providerID == "" {
		return AuthOutput{}, invalidOperation("oauth provider and id are required")
	}
	email, err := s.normalizeEmail(identity.Email)
	if err != nil {
		return AuthOutput{}, err
	}

	var user models.User
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		found, err := s.users.GetByOAuth(ctx, tx, provider, providerID)
		if err == nil {
			user = found
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return internalError("failed to query user", err)
		}

		found, err = s.users.GetByEmail(ctx, tx, email)
		switch {
		case err == nil:
			if err := s.users.UpdateByID(ctx, tx, found.ID, map[string]interface{}{
				"oauth_provider":    provider,
				"oauth_provider_id": providerID,
			}); err != nil {
				return internalError("failed to link oauth account", err)
			}
			user, err = s.users.GetByID(ctx, tx, found.ID)
			if err != nil {
				return internalError("failed to reload user", err)
			}
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{
				Email:           email,
				FullName:        strings.TrimSpace(identity.FullName),
				IsActive:        true,
				StorageQuota:    s.defaultQuota,
				OAuthProvider:   &provider,
				OAuthProviderID: &providerID,
			}
			if err := s.users.Create(ctx, tx, &user); err != nil {
				return internalError("failed to create user", err)
			}
			return nil
		default:
			return internalError("failed to query user", err)
		}
	})
	if err != nil {
		return AuthOutput{}, err
	}
	if !user.IsActive {
		return AuthOutput{}, newAppError(KindUnauthorized, "account is disabled", nil)
	}
	return s.issue(user)
}

func (s *authService) issue(user models.User) (AuthOutput, error) {
	token, expiresAt, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return AuthOutput{}, internalError("failed to generate token", err)
	}
	return AuthOutput{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email,max=255"); err != nil {
		return "", newAppError(KindInvalidOperation, "a valid email is required", err)
	}
	return email, nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return invalidOperation("password must be at least 8 characters")
	}
	if len(password) > maxPasswordLength {
		return invalidOperation("password must be at most 72 bytes")
	}
	return nil
}
