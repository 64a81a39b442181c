package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type BookAppointmentRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" validate:"required"`
	Date     time.Time `json:"date" validate:"required"`
	Reason   string    `json:"reason" validate:"required"`
}

// Response DTOs

type AppointmentResponse struct {
	ID        uuid.UUID     `json:"id"`
	PatientID uuid.UUID     `json:"patient_id"`
	DoctorID  uuid.UUID     `json:"doctor_id"`
	Date      time.Time     `json:"date"`
	Reason    string        `json:"reason"`
	Status    string        `json:"status"`
	Patient   *UserResponse `json:"patient,omitempty"`
	Doctor    *UserResponse `json:"doctor,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
