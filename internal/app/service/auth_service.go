package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/UzukeeIA/ROBUXFREE/internal/common"
	"github.com/UzukeeIA/ROBUXFREE/internal/common/security"
	"github.com/UzukeeIA/ROBUXFREE/internal/domain/model"
	"github.com/UzukeeIA/ROBUXFREE/internal/domain/repository"
)

const (
	// bcrypt ignores input past this many bytes.
	passwordMaxBytes = 72
	avatarURLMaxLen  = 2048
)

type AuthService struct {
	userRepo repository.UserRepository
	logger   *slog.Logger
}

func NewAuthService(userRepo repository.UserRepository, logger *slog.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, logger: logger}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpdateAvatarRequest struct {
	AvatarURL string `json:"avatarUrl"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.Identity, error) {
	username := strings.TrimSpace(req.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if len(req.Password) < model.PasswordMinLength {
		return nil, common.Validationf("password must be at least %d characters", model.PasswordMinLength)
	}
	if len(req.Password) > passwordMaxBytes {
		return nil, common.Validationf("password must be at most %d bytes", passwordMaxBytes)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict for a taken username
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user.Identity(), nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*model.Identity, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.InvalidCredentials()
	}

	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.InvalidCredentials() // same answer as a wrong password
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, common.InvalidCredentials()
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return user.Identity(), nil
}

// UpdateAvatar stores avatarURL on the user's record. userID 0 means the
// caller has no session.
func (s *AuthService) UpdateAvatar(ctx context.Context, userID int64, req UpdateAvatarRequest) (*model.Identity, error) {
	if userID == 0 {
		return nil, common.AuthRequired()
	}
	avatarURL := strings.TrimSpace(req.AvatarURL)
	if err := validateAvatarURL(avatarURL); err != nil {
		return nil, err
	}

	user, err := s.userRepo.UpdateAvatar(ctx, userID, avatarURL)
	if err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}
	return user.Identity(), nil
}

// CurrentUser returns nil without error for anonymous callers, including a
// session whose user has since disappeared.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.Identity, error) {
	if userID == 0 {
		return nil, nil
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load current user: %w", err)
	}
	return user.Identity(), nil
}

func validateUsername(username string) error {
	if len(username) < model.UsernameMinLength {
		return common.Validationf("username must be at least %d characters", model.UsernameMinLength)
	}
	if len(username) > model.UsernameMaxLength {
		return common.Validationf("username must be at most %d characters", model.UsernameMaxLength)
	}
	if !model.UsernamePattern.MatchString(username) {
		return common.Validationf("username may only contain letters, digits, underscore and hyphen")
	}
	return nil
}

func validateAvatarURL(raw string) error {
	if raw == "" {
		return common.Validationf("avatarUrl is required")
	}
	if len(raw) > avatarURLMaxLen {
		return common.Validationf("avatarUrl must be at most %d characters", avatarURLMaxLen)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return common.Validationf("avatarUrl must be an http or https URL")
	}
	return nil
}
