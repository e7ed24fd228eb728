// internal/services/auth_service.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ShriviCTO/shrivi/internal/apperrors"
	"github.com/ShriviCTO/shrivi/internal/config"
	"github.com/ShriviCTO/shrivi/internal/models"
	"github.com/ShriviCTO/shrivi/internal/utils"
)

// AuthService handles registration, login with lockout, token refresh and
// email verification.
type AuthService struct {
	db                  *gorm.DB
	notificationService *NotificationService
	cfg                 *config.Config
}

func NewAuthService(db *gorm.DB, notificationService *NotificationService, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                  db,
		notificationService: notificationService,
		cfg:                 cfg,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthTokens struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// Register creates a customer account and sends the verification email. When
// the email cannot be sent the account is removed again, so a user is never
// stranded with an unverifiable registration.
func (s *AuthService) Register(req *RegisterRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationErrors(err)
	}

	token, err := utils.GenerateVerificationToken()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to generate verification token")
	}

	user := &models.User{
		Name:              req.Name,
		Email:             req.Email,
		Role:              models.RoleCustomer,
		Status:            models.UserStatusActive,
		VerificationToken: utils.HashString(token),
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to hash password")
	}

	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.New(apperrors.KindDuplicateName, "an account with this email already exists")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to create user")
	}

	if err := s.notificationService.SendVerificationEmail(user, token); err != nil {
		// Compensating action: the account only exists if the verification
		// email went out.
		if delErr := s.db.Unscoped().Delete(user).Error; delErr != nil {
			logrus.WithError(delErr).WithField("user_id", user.ID).
				Error("Failed to roll back user after email failure")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to send verification email")
	}

	return user, nil
}

// Login verifies credentials. Five consecutive failures lock the account for
// the configured window; a success resets the counter.
func (s *AuthService) Login(req *LoginRequest) (*AuthTokens, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationErrors(err)
	}

	var user models.User
	if err := s.db.First(&user, "email = ?", req.Email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindUnauthorized, "invalid email or password")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}

	now := time.Now()
	if user.Locked(now) {
		return nil, apperrors.New(apperrors.KindUnauthorized,
			"account temporarily locked due to repeated failed logins")
	}
	if user.Status == models.UserStatusDeactivated {
		return nil, apperrors.New(apperrors.KindUnauthorized, "account is deactivated")
	}

	if err := user.CheckPassword(req.Password); err != nil {
		s.recordFailedLogin(&user, now)
		return nil, apperrors.New(apperrors.KindUnauthorized, "invalid email or password")
	}

	updates := map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to record login")
	}

	return s.issueTokens(&user)
}

// RefreshToken exchanges a valid refresh token for a fresh token pair.
func (s *AuthService) RefreshToken(refreshToken string) (*AuthTokens, error) {
	userID, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.New(apperrors.KindUnauthorized, "invalid refresh token")
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindUnauthorized, "invalid refresh token")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}
	if user.Status == models.UserStatusDeactivated {
		return nil, apperrors.New(apperrors.KindUnauthorized, "account is deactivated")
	}

	return s.issueTokens(&user)
}

// VerifyEmail marks the account verified when the token matches.
func (s *AuthService) VerifyEmail(token string) error {
	hashed := utils.HashString(token)

	var user models.User
	if err := s.db.First(&user, "verification_token = ?", hashed).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("verification token")
		}
		return apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}

	now := time.Now()
	updates := map[string]interface{}{
		"email_verified_at":  now,
		"verification_token": "",
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "failed to verify email")
	}
	return nil
}

func (s *AuthService) GetUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}
	return &user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthTokens, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Name, string(user.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to generate access token")
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to generate refresh token")
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

func (s *AuthService) recordFailedLogin(user *models.User, now time.Time) {
	attempts := user.FailedLoginAttempts + 1
	updates := map[string]interface{}{"failed_login_attempts": attempts}
	if attempts >= s.cfg.Auth.MaxLoginAttempts {
		lockedUntil := now.Add(time.Duration(s.cfg.Auth.LockoutMinutes) * time.Minute)
		updates["locked_until"] = lockedUntil
		updates["failed_login_attempts"] = 0
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).
			Error("Failed to record failed login attempt")
	}
}
