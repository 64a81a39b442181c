package service_test

import (
	"testing"

	"github.com/rehanhussain-dev/rural-health-app/internal/domain/entity"
	"github.com/rehanhussain-dev/rural-health-app/internal/repository"
	"github.com/rehanhussain-dev/rural-health-app/internal/service"

	"github.com/google/uuid"
)

func TestLogActionCommitsWithTransaction(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewAuditService(quietLogger(), repository.NewAuditLogRepository())
	user := seedUser(t, db, "pat@example.com", entity.RolePatient)

	tx := db.Begin()
	if err := svc.LogAction(tx, &user.ID, entity.AuditActionUserLogin, nil); err != nil {
		t.Fatalf("log action: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	var count int64
	if err := db.Model(&entity.AuditLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 audit entry, got %d", count)
	}
}

func TestLogActionRollsBackWithTransaction(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewAuditService(quietLogger(), repository.NewAuditLogRepository())
	user := seedUser(t, db, "pat@example.com", entity.RolePatient)

	tx := db.Begin()
	if err := svc.LogAction(tx, &user.ID, entity.AuditActionUserLogin, nil); err != nil {
		t.Fatalf("log action: %v", err)
	}
	tx.Rollback()

	var count int64
	if err := db.Model(&entity.AuditLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no audit entries after rollback, got %d", count)
	}
}

func TestLogStatusChangeMetadata(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewAuditService(quietLogger(), repository.NewAuditLogRepository())
	user := seedUser(t, db, "doc@example.com", entity.RoleDoctor)
	appointmentID := uuid.New()

	err := svc.LogStatusChange(db, &user.ID, entity.AuditActionAppointmentConfirm, appointmentID,
		entity.AppointmentStatusPending, entity.AppointmentStatusConfirmed)
	if err != nil {
		t.Fatalf("log status change: %v", err)
	}

	var entry entity.AuditLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}
	if entry.Action != entity.AuditActionAppointmentConfirm {
		t.Errorf("unexpected action %q", entry.Action)
	}
	if entry.Metadata["appointment_id"] != appointmentID.String() {
		t.Errorf("unexpected appointment id %v", entry.Metadata["appointment_id"])
	}
	if entry.Metadata["old_status"] != "pending" || entry.Metadata["new_status"] != "confirmed" {
		t.Errorf("unexpected status metadata %v", entry.Metadata)
	}
}
