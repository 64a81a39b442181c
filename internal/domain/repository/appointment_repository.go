package repository

import (
	"github.com/rehanhussain-dev/rural-health-app/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error)
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error)
	FindAll(db *gorm.DB) ([]entity.Appointment, error)
	// TransitionStatus updates the status only when the current status is one
	// of from. Returns affected rows: 0 means another writer got there first
	// or the appointment is already terminal.
	TransitionStatus(db *gorm.DB, id uuid.UUID, to entity.AppointmentStatus, from ...entity.AppointmentStatus) (int64, error)
	CountByStatus(db *gorm.DB) (map[entity.AppointmentStatus]int64, error)
}
