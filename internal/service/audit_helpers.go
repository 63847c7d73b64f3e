package service

import (
	"context"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

func userIDPtr(actor *models.JWTClaims) *string {
	if actor == nil || actor.UserID == "" {
		return nil
	}
	id := actor.UserID
	return &id
}

func strPtr(value string) *string {
	if value == "" {
		return nil
	}
	result := value
	return &result
}
