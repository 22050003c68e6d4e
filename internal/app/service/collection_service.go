package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UzukeeIA/ROBUXFREE/internal/common"
	"github.com/UzukeeIA/ROBUXFREE/internal/domain/model"
	"github.com/UzukeeIA/ROBUXFREE/internal/domain/repository"
)

// CollectionService appends survey responses and login audit records and
// exports both collections.
type CollectionService struct {
	responseRepo repository.ResponseRepository
	loginRepo    repository.LoginRecordRepository
	logger       *slog.Logger
	now          func() time.Time
}

func NewCollectionService(responseRepo repository.ResponseRepository, loginRepo repository.LoginRecordRepository, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		responseRepo: responseRepo,
		loginRepo:    loginRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// LoginRecordRequest holds the only fields a login audit may carry. Anything
// else the client sends, passwords included, is dropped on decode.
type LoginRecordRequest struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

type ExportResponse struct {
	Responses []model.SurveyResponse `json:"responses"`
	Logins    []model.LoginRecord    `json:"logins"`
}

// SubmitResponse stamps answers with the server time and appends them.
func (s *CollectionService) SubmitResponse(ctx context.Context, answers map[string]any) (*model.SurveyResponse, error) {
	if answers == nil {
		return nil, common.Validationf("response body must be a JSON object")
	}
	resp := model.SurveyResponse{Answers: answers, Timestamp: s.now().UTC()}
	if err := s.responseRepo.Append(ctx, resp); err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}
	s.logger.DebugContext(ctx, "survey response stored", "fields", len(answers))
	return &resp, nil
}

func (s *CollectionService) SubmitLogin(ctx context.Context, req LoginRecordRequest) (*model.LoginRecord, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, common.Validationf("username is required")
	}
	rec := model.LoginRecord{
		Username:  username,
		AvatarURL: strings.TrimSpace(req.AvatarURL),
		Timestamp: s.now().UTC(),
	}
	if err := s.loginRepo.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save login record: %w", err)
	}
	return &rec, nil
}

func (s *CollectionService) Export(ctx context.Context) (*ExportResponse, error) {
	responses, err := s.responseRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	logins, err := s.loginRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list login records: %w", err)
	}
	return &ExportResponse{Responses: responses, Logins: logins}, nil
}
