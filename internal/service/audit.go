package service

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"

	"go.uber.org/zap"
)

// auditor appends audit rows. Failures are logged and never fail the caller.
type auditor struct {
	storage repository.Storage
	log     *zap.Logger
}

func (a auditor) record(ctx context.Context, userID *int64, action, entity, entityID string, metadata map[string]any) {
	entry := &domain.AuditLog{
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Metadata: domain.NewMetadata(metadata),
	}
	if err := a.storage.CreateAuditLog(ctx, entry); err != nil {
		a.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("entity", entity),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

func int64Ptr(v int64) *int64 { return &v }
