package service

import (
	"context"

	"shoptrack/internal/model"
	"shoptrack/internal/repository"
)

type AuditService interface {
	ListLogs(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) ListLogs(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	return s.repo.List(ctx, page, limit)
}
