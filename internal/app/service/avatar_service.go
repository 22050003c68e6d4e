package service

import (
	"context"
	"log/slog"
	"strings"
)

// AvatarResolver is the upstream avatar directory. avatar.Client implements it.
type AvatarResolver interface {
	ResolveID(ctx context.Context, username string) (int64, error)
	ResolveThumbnail(ctx context.Context, id int64) (string, error)
}

type AvatarService struct {
	resolver AvatarResolver
	logger   *slog.Logger
}

func NewAvatarService(resolver AvatarResolver, logger *slog.Logger) *AvatarService {
	return &AvatarService{resolver: resolver, logger: logger}
}

type AvatarResponse struct {
	Username string `json:"username"`
	ImageURL string `json:"imageUrl"`
}

// Resolve looks up the headshot image of username. Nothing is cached and
// failed lookups are not retried.
func (s *AvatarService) Resolve(ctx context.Context, username string) (*AvatarResponse, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	id, err := s.resolver.ResolveID(ctx, username)
	if err != nil {
		s.logger.WarnContext(ctx, "avatar id lookup failed", "username", username, "error", err)
		return nil, err
	}
	imageURL, err := s.resolver.ResolveThumbnail(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "avatar thumbnail lookup failed", "username", username, "upstream_id", id, "error", err)
		return nil, err
	}
	return &AvatarResponse{Username: username, ImageURL: imageURL}, nil
}
