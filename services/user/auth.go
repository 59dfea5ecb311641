package user

import (
	"context"
	"errors"
	"strings"

	"tourbook/database/repository"
	"tourbook/models"
	"tourbook/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

func (s *DefaultUserService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if err := repository.Validate(req); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, utils.Internal("Failed to secure password", err)
	}

	u := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Role:         models.RoleUser,
		PasswordHash: string(hash),
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if s.Mail != nil {
		payload := models.EmailPayload{To: u.Email, Name: u.Name, URL: strings.TrimRight(s.ClientURL, "/") + "/me"}
		if err := s.Mail.SendWelcome(ctx, payload); err != nil {
			utils.GetLogger().Error("Failed to queue welcome email", zap.String("userId", u.ID.Hex()), zap.Error(err))
		}
	}
	return s.issue(u)
}

func (s *DefaultUserService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	u, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return s.issue(u)
}

func (s *DefaultUserService) Authenticate(ctx context.Context, token string) (*utils.AuthEntry, error) {
	claims, err := utils.ParseToken(token)
	if err != nil {
		return nil, err
	}
	logger := utils.GetLogger()

	var entry *utils.AuthEntry
	if s.Cache != nil {
		entry, err = s.Cache.Get(ctx, claims.UserID)
		if err != nil {
			logger.Warn("Auth cache read failed", zap.Error(err))
		}
	}
	if entry == nil {
		u, err := s.Repo.FindByID(ctx, claims.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserGone
		}
		if err != nil {
			return nil, err
		}
		entry = entryFor(u)
		if s.Cache != nil {
			if err := s.Cache.Set(ctx, *entry); err != nil {
				logger.Warn("Auth cache write failed", zap.Error(err))
			}
		}
	}

	if entry.PasswordChangedAt != nil && entry.PasswordChangedAt.Unix() > claims.IssuedAt {
		return nil, ErrPasswordChanged
	}
	return entry, nil
}

func (s *DefaultUserService) EvictAfterWrite(ctx context.Context, before, after *models.User) error {
	u := before
	if u == nil {
		u = after
	}
	if u != nil {
		s.evict(ctx, u.ID.Hex())
	}
	return nil
}

func (s *DefaultUserService) evict(ctx context.Context, userID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Evict(ctx, userID); err != nil {
		utils.GetLogger().Warn("Auth cache eviction failed", zap.String("userId", userID), zap.Error(err))
	}
}

func (s *DefaultUserService) issue(u *models.User) (*AuthResponse, error) {
	token, err := utils.GenerateToken(u.ID.Hex(), s.TokenTTL)
	if err != nil {
		return nil, utils.Internal("Failed to sign token", err)
	}
	return &AuthResponse{Token: token, User: u}, nil
}

func entryFor(u *models.User) *utils.AuthEntry {
	return &utils.AuthEntry{
		UserID:            u.ID.Hex(),
		Name:              u.Name,
		Email:             u.Email,
		Photo:             u.Photo,
		Role:              string(u.Role),
		PasswordChangedAt: u.PasswordChangedAt,
	}
}
