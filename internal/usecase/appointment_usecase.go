package usecase

import (
	"context"
	"errors"

	"github.com/rehanhussain-dev/rural-health-app/internal/converter"
	"github.com/rehanhussain-dev/rural-health-app/internal/delivery/dto"
	"github.com/rehanhussain-dev/rural-health-app/internal/domain/entity"
	"github.com/rehanhussain-dev/rural-health-app/internal/domain/repository"
	"github.com/rehanhussain-dev/rural-health-app/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrDoctorNotFound       = errors.New("doctor not found")
	ErrNotAppointmentDoctor = errors.New("appointment does not belong to this doctor")
	ErrNotAppointmentParty  = errors.New("caller is not a party to this appointment")
	ErrInvalidTransition    = errors.New("appointment status does not allow this transition")
)

// AppointmentUsecase owns the appointment lifecycle. The acting identity is
// passed by value into every operation so the rules are enforceable and
// testable without any request-scoped globals.
type AppointmentUsecase interface {
	Book(ctx context.Context, actor entity.Identity, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error)
	Confirm(ctx context.Context, actor entity.Identity, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, actor entity.Identity, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	ListAppointments(ctx context.Context, actor entity.Identity) (*dto.AppointmentListResponse, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	userRepo        repository.UserRepository
	auditService    service.AuditService
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	auditService service.AuditService,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		userRepo:        userRepo,
		auditService:    auditService,
	}
}

// Book creates a pending appointment between the acting patient and the
// referenced doctor. The doctor reference must resolve to an account with
// the doctor role at creation time. Overlapping appointments for the same
// doctor and time slot are permitted.
func (u *appointmentUsecase) Book(ctx context.Context, actor entity.Identity, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	doctor, err := u.userRepo.FindByID(tx, req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", req.DoctorID, err)
		return nil, err
	}
	if doctor == nil || doctor.Role != entity.RoleDoctor {
		return nil, ErrDoctorNotFound
	}

	appointment := &entity.Appointment{
		PatientID: actor.ID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Reason:    req.Reason,
		Status:    entity.AppointmentStatusPending,
	}

	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogStatusChange(tx, &actor.ID, entity.AuditActionAppointmentBook, appointment.ID, "", appointment.Status); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	// Reload with both profiles for the response
	full, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointment.ID)
	if err != nil || full == nil {
		u.log.Warnf("Failed to reload appointment %s: %+v", appointment.ID, err)
		return converter.AppointmentToResponse(appointment), nil
	}

	u.log.Infof("Appointment booked: id=%s, patient=%s, doctor=%s", appointment.ID, actor.ID, req.DoctorID)
	return converter.AppointmentToResponse(full), nil
}

// Confirm moves a pending appointment to confirmed. Only the doctor named
// on the appointment may confirm it.
func (u *appointmentUsecase) Confirm(ctx context.Context, actor entity.Identity, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.findAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if appointment.DoctorID != actor.ID {
		return nil, ErrNotAppointmentDoctor
	}
	if !appointment.IsPending() {
		return nil, ErrInvalidTransition
	}

	return u.transition(ctx, actor, appointment, entity.AppointmentStatusConfirmed,
		entity.AuditActionAppointmentConfirm, entity.AppointmentStatusPending)
}

// Cancel moves a pending or confirmed appointment to cancelled. Either party
// to the appointment may cancel; a terminal appointment stays where it is.
func (u *appointmentUsecase) Cancel(ctx context.Context, actor entity.Identity, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.findAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if !appointment.IsParty(actor.ID) {
		return nil, ErrNotAppointmentParty
	}
	if appointment.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	return u.transition(ctx, actor, appointment, entity.AppointmentStatusCancelled,
		entity.AuditActionAppointmentCancel,
		entity.AppointmentStatusPending, entity.AppointmentStatusConfirmed)
}

// ListAppointments returns the appointments visible to the actor: patients
// and doctors see their own (with the counterparty profile attached), admins
// see everything. The dispatch is an exhaustive match over the role set.
func (u *appointmentUsecase) ListAppointments(ctx context.Context, actor entity.Identity) (*dto.AppointmentListResponse, error) {
	db := u.db.WithContext(ctx)

	var appointments []entity.Appointment
	var err error

	switch actor.Role {
	case entity.RolePatient:
		appointments, err = u.appointmentRepo.FindByPatientID(db, actor.ID)
	case entity.RoleDoctor:
		appointments, err = u.appointmentRepo.FindByDoctorID(db, actor.ID)
	case entity.RoleAdmin:
		appointments, err = u.appointmentRepo.FindAll(db)
	default:
		return nil, ErrInvalidRole
	}

	if err != nil {
		u.log.Warnf("Failed to list appointments for %s (%s): %+v", actor.ID, actor.Role, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

func (u *appointmentUsecase) findAppointment(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return appointment, nil
}

// transition applies a guarded status change. The conditional update means a
// concurrent writer racing on the same appointment loses with
// ErrInvalidTransition instead of silently overwriting.
func (u *appointmentUsecase) transition(ctx context.Context, actor entity.Identity, appointment *entity.Appointment, to entity.AppointmentStatus, auditAction string, from ...entity.AppointmentStatus) (*dto.AppointmentResponse, error) {
	oldStatus := appointment.Status

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	rows, err := u.appointmentRepo.TransitionStatus(tx, appointment.ID, to, from...)
	if err != nil {
		u.log.Warnf("Failed to update appointment %s status: %+v", appointment.ID, err)
		return nil, err
	}
	if rows == 0 {
		return nil, ErrInvalidTransition
	}

	if err := u.auditService.LogStatusChange(tx, &actor.ID, auditAction, appointment.ID, oldStatus, to); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	appointment.Status = to
	u.log.Infof("Appointment %s: %s -> %s by %s", appointment.ID, oldStatus, to, actor.ID)
	return converter.AppointmentToResponse(appointment), nil
}
