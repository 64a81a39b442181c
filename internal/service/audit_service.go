package service

import (
	"github.com/rehanhussain-dev/rural-health-app/internal/domain/entity"
	"github.com/rehanhussain-dev/rural-health-app/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService records who did what to the audit trail. Writes happen on the
// caller's transaction so the audit entry commits or rolls back together
// with the mutation it describes.
type AuditService interface {
	LogAction(tx *gorm.DB, userID *uuid.UUID, action string, metadata entity.JSON) error
	LogStatusChange(tx *gorm.DB, userID *uuid.UUID, action string, appointmentID uuid.UUID, oldStatus, newStatus entity.AppointmentStatus) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) LogAction(tx *gorm.DB, userID *uuid.UUID, action string, metadata entity.JSON) error {
	auditLog := &entity.AuditLog{
		UserID:   userID,
		Action:   action,
		Metadata: metadata,
	}

	if err := s.auditRepo.Create(tx, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}

// LogStatusChange records an appointment lifecycle transition with the old
// and new status.
func (s *auditService) LogStatusChange(tx *gorm.DB, userID *uuid.UUID, action string, appointmentID uuid.UUID, oldStatus, newStatus entity.AppointmentStatus) error {
	metadata := entity.JSON{
		"appointment_id": appointmentID.String(),
		"old_status":     string(oldStatus),
		"new_status":     string(newStatus),
	}

	return s.LogAction(tx, userID, action, metadata)
}
