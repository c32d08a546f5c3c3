package service

import (
	"context"

	"fleet/internal/model"
	"fleet/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

// AuditService exposes the fleet audit trail, including the assignment
// records used to reconcile the vehicle/document pointer pair.
type AuditService interface {
	GetAuditLogs(ctx context.Context, offset, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	audit repository.AuditRepository
}

// NewAuditService creates a new AuditService instance.
func NewAuditService(audit repository.AuditRepository) AuditService {
	return &auditService{audit: audit}
}

func (s *auditService) GetAuditLogs(ctx context.Context, offset, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.audit.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		email := "system"
		userID := ""
		if l.User != nil {
			email = l.User.Email
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			Email:      email,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format(model.AuditTimeFormat),
		})
	}

	return res, total, nil
}
