package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"tourbook/database/repository"
	"tourbook/models"
	"tourbook/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func (s *DefaultUserService) UpdatePassword(ctx context.Context, userID primitive.ObjectID, req UpdatePasswordRequest) (*AuthResponse, error) {
	if err := repository.Validate(req); err != nil {
		return nil, err
	}
	u, err := s.Repo.FindByID(ctx, userID.Hex())
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.PasswordCurrent)) != nil {
		return nil, ErrWrongPassword
	}
	if err := s.setPassword(ctx, u, req.Password); err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *DefaultUserService) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	if strings.TrimSpace(email) == "" {
		return utils.BadRequest("Please provide your email address")
	}
	u, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNoUserWithEmail
	}
	if err != nil {
		return err
	}

	plain, hashed, err := utils.NewResetToken()
	if err != nil {
		return utils.Internal("There was an error sending the email. Try again later!", err)
	}
	if err := s.Repo.SetResetToken(ctx, u.ID, hashed, s.now().Add(utils.PasswordResetTTL)); err != nil {
		return err
	}

	payload := models.EmailPayload{To: u.Email, Name: u.Name, URL: strings.TrimRight(resetURLBase, "/") + "/" + plain}
	if s.Mail == nil {
		return nil
	}
	if err := s.Mail.SendPasswordReset(ctx, payload, utils.PasswordResetTTL); err != nil {
		if clearErr := s.Repo.ClearResetToken(ctx, u.ID); clearErr != nil {
			utils.GetLogger().Error("Failed to clear reset token", zap.Error(clearErr))
		}
		return utils.Internal("There was an error sending the email. Try again later!", err)
	}
	return nil
}

func (s *DefaultUserService) ResetPassword(ctx context.Context, token string, req ResetPasswordRequest) (*AuthResponse, error) {
	u, err := s.Repo.GetByResetToken(ctx, utils.HashToken(token), s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrResetTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	if err := repository.Validate(req); err != nil {
		return nil, err
	}
	if err := s.setPassword(ctx, u, req.Password); err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *DefaultUserService) setPassword(ctx context.Context, u *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return utils.Internal("Failed to secure password", err)
	}
	// Back-date by a second so the token issued right after stays valid.
	changedAt := s.now().Add(-time.Second).UTC()
	if err := s.Repo.SetPassword(ctx, u.ID, string(hash), changedAt); err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.PasswordChangedAt = &changedAt
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
	s.evict(ctx, u.ID.Hex())
	return nil
}
