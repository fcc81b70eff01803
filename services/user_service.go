package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Anaqqa/supfile/logger"
	"github.com/Anaqqa/supfile/models"
	"github.com/Anaqqa/supfile/repositories"
	"github.com/Anaqqa/supfile/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type UpdateProfileInput struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID uint) (models.User, error)
	UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (models.User, error)
	ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error
	DisconnectOAuth(ctx context.Context, userID uint) (models.User, error)
	DeleteAccount(ctx context.Context, userID uint) error
	Usage(ctx context.Context, userID uint) (StorageUsage, error)
}

type userService struct {
	txManager  TxManager
	users      repositories.UserRepository
	folders    repositories.FolderRepository
	files      repositories.FileRepository
	accountant StorageAccountant
	purger     nodePurger
	validate   *validator.Validate
}

func NewUserService(
	txManager TxManager,
	users repositories.UserRepository,
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	accountant StorageAccountant,
	purger nodePurger,
) UserService {
	return &userService{
		txManager:  txManager,
		users:      users,
		folders:    folders,
		files:      files,
		accountant: accountant,
		purger:     purger,
		validate:   validator.New(),
	}
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return models.User{}, userLookupError(err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (models.User, error) {
	var result models.User
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		user, err := s.users.GetByID(ctx, tx, userID)
		if err != nil {
			return userLookupError(err)
		}

		updates := map[string]interface{}{}
		if in.FullName != nil {
			updates["full_name"] = strings.TrimSpace(*in.FullName)
		}
		if in.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*in.Email))
			if err := s.validate.Var(email, "required,email,max=255"); err != nil {
				return newAppError(KindInvalidOperation, "a valid email is required", err)
			}
			if email != user.Email {
				count, err := s.users.CountByEmail(ctx, tx, email)
				if err != nil {
					return internalError("failed to check email", err)
				}
				if count > 0 {
					return newAppError(KindConflict, "email already registered", nil)
				}
				updates["email"] = email
			}
		}

		if len(updates) > 0 {
			if err := s.users.UpdateByID(ctx, tx, userID, updates); err != nil {
				return internalError("failed to update profile", err)
			}
		}
		result, err = s.users.GetByID(ctx, tx, userID)
		if err != nil {
			return internalError("failed to reload user", err)
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return result, nil
}

// ChangePassword is only available to accounts that already have a password;
// OAuth-only accounts authenticate through their provider.
func (s *userService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return userLookupError(err)
	}
	if !user.HasPassword() {
		return invalidOperation("account signs in through an oauth provider and has no password")
	}
	if !utils.CheckPassword(in.CurrentPassword, *user.PasswordHash) {
		return newAppError(KindUnauthorized, "current password is incorrect", nil)
	}
	if err := checkPassword(in.NewPassword); err != nil {
		return err
	}

	hashed, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return internalError("failed to hash password", err)
	}
	if err := s.users.UpdateByID(ctx, nil, userID, map[string]interface{}{"password_hash": hashed}); err != nil {
		return internalError("failed to update password", err)
	}
	return nil
}

func (s *userService) DisconnectOAuth(ctx context.Context, userID uint) (models.User, error) {
	var result models.User
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		user, err := s.users.GetByID(ctx, tx, userID)
		if err != nil {
			return userLookupError(err)
		}
		if user.OAuthProvider == nil {
			return invalidOperation("no oauth provider is connected")
		}
		if !user.HasPassword() {
			return invalidOperation("set a password before disconnecting the oauth provider")
		}

		if err := s.users.UpdateByID(ctx, tx, userID, map[string]interface{}{
			"oauth_provider":    nil,
			"oauth_provider_id": nil,
		}); err != nil {
			return internalError("failed to disconnect oauth provider", err)
		}
		result, err = s.users.GetByID(ctx, tx, userID)
		if err != nil {
			return internalError("failed to reload user", err)
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return result, nil
}

// DeleteAccount removes the user and everything they own: blobs, shares,
// access logs, files, and folders.
func (s *userService) DeleteAccount(ctx context.Context, userID uint) error {
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.users.GetByID(ctx, tx, userID); err != nil {
			return userLookupError(err)
		}

		files, err := s.files.ListByUser(ctx, tx, userID)
		if err != nil {
			return internalError("failed to list files", err)
		}
		if err := s.purger.purgeFiles(ctx, tx, files); err != nil {
			return err
		}
		if err := s.folders.DeleteByUser(ctx, tx, userID); err != nil {
			return internalError("failed to delete folders", err)
		}
		if err := s.users.DeleteByID(ctx, tx, userID); err != nil {
			return internalError("failed to delete user", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.WithFields(logger.Fields{"user_id": userID}).Info("account deleted")
	return nil
}

func (s *userService) Usage(ctx context.Context, userID uint) (StorageUsage, error) {
	return s.accountant.Usage(ctx, userID)
}

func userLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("user not found")
	}
	return internalError("failed to load user", err)
}
