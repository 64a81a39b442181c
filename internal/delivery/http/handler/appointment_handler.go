package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rehanhussain-dev/rural-health-app/internal/delivery/dto"
	"github.com/rehanhussain-dev/rural-health-app/internal/delivery/http/middleware"
	"github.com/rehanhussain-dev/rural-health-app/internal/domain/entity"
	"github.com/rehanhussain-dev/rural-health-app/internal/usecase"
	"github.com/rehanhussain-dev/rural-health-app/pkg/response"
	"github.com/rehanhussain-dev/rural-health-app/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

// BookAppointment creates a pending appointment for the acting patient
func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.Book(r.Context(), identity, &req)
	if err != nil {
		switch err {
		case usecase.ErrDoctorNotFound:
			response.NotFound(w, "Doctor not found")
		default:
			response.InternalServerError(w, "Failed to book appointment")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Appointment booked successfully", appointment)
}

// GetMyAppointments lists the appointments visible to the caller
func (h *AppointmentHandler) GetMyAppointments(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	appointments, err := h.appointmentUsecase.ListAppointments(r.Context(), identity)
	if err != nil {
		switch err {
		case usecase.ErrInvalidRole:
			response.Forbidden(w, "Invalid user role")
		default:
			response.InternalServerError(w, "Failed to get appointments")
		}
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

// ConfirmAppointment moves a pending appointment to confirmed
func (h *AppointmentHandler) ConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appointmentUsecase.Confirm, "Appointment confirmed successfully")
}

// CancelAppointment moves a pending or confirmed appointment to cancelled
func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appointmentUsecase.Cancel, "Appointment cancelled successfully")
}

func (h *AppointmentHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, actor entity.Identity, id uuid.UUID) (*dto.AppointmentResponse, error),
	successMessage string,
) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	vars := mux.Vars(r)
	appointmentID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return
	}

	appointment, err := op(r.Context(), identity, appointmentID)
	if err != nil {
		switch err {
		case usecase.ErrAppointmentNotFound:
			response.NotFound(w, "Appointment not found")
		case usecase.ErrNotAppointmentDoctor, usecase.ErrNotAppointmentParty:
			response.Forbidden(w, "You are not authorized to modify this appointment")
		case usecase.ErrInvalidTransition:
			response.Error(w, http.StatusBadRequest, "Appointment status does not allow this transition", nil)
		default:
			response.InternalServerError(w, "Failed to update appointment")
		}
		return
	}

	response.Success(w, http.StatusOK, successMessage, appointment)
}
