package services

import (
	"encoding/json"

	apperrors "tripbudget/internal/errors"
	"tripbudget/internal/logger"
	"tripbudget/internal/models"

	"gorm.io/gorm"
)

const maxAuditEntries = 500

// auditService handles audit log recording. Without a database it only
// writes log lines.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer. db may be nil.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	if s.db == nil {
		logger.Named("audit").Infow(action,
			"resource_type", resourceType,
			"resource_id", resourceID,
			"ip_address", ipAddress,
			"changes", changesJSON,
		)
		return
	}

	entry := &models.AuditLog{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

// Recent returns the newest audit entries, at most limit of them.
func (s *auditService) Recent(limit int) ([]models.AuditLog, error) {
	entries := []models.AuditLog{}
	if s.db == nil {
		return entries, nil
	}
	if limit <= 0 || limit > maxAuditEntries {
		limit = maxAuditEntries
	}
	if err := s.db.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entries, nil
}
