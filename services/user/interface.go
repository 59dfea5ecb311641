package user

import (
	"context"
	"io"
	"time"

	userRepo "tourbook/database/repository/user"
	"tourbook/models"
	"tourbook/services/storage"
	"tourbook/services/tasks"
	"tourbook/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService interface {
	// Authentication
	Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	// Authenticate resolves a bearer token to the caller's cached state.
	Authenticate(ctx context.Context, token string) (*utils.AuthEntry, error)

	// Passwords
	UpdatePassword(ctx context.Context, userID primitive.ObjectID, req UpdatePasswordRequest) (*AuthResponse, error)
	ForgotPassword(ctx context.Context, email, resetURLBase string) error
	ResetPassword(ctx context.Context, token string, req ResetPasswordRequest) (*AuthResponse, error)

	// Own profile
	GetMe(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateMe(ctx context.Context, userID primitive.ObjectID, patch map[string]any) (*models.User, error)
	UpdatePhoto(ctx context.Context, userID primitive.ObjectID, file io.Reader) (*models.User, error)
	UpdateAvatar(ctx context.Context, userID primitive.ObjectID, imageURL string) (*models.User, error)
	DeleteMe(ctx context.Context, userID primitive.ObjectID) error

	// EvictAfterWrite drops cached auth state after any stored change.
	EvictAfterWrite(ctx context.Context, before, after *models.User) error
}

// DefaultUserService is the production implementation.
type DefaultUserService struct {
	Repo         userRepo.UserRepository
	Cache        utils.AuthCache
	Mail         tasks.Dispatcher
	Storage      storage.StorageService
	TokenTTL     time.Duration
	AvatarFolder string
	ClientURL    string
	Now          func() time.Time
}

// AuthResponse is returned by every flow that issues a token.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type SignupRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (s *DefaultUserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
