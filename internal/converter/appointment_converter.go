package converter

import (
	"github.com/rehanhussain-dev/rural-health-app/internal/delivery/dto"
	"github.com/rehanhussain-dev/rural-health-app/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse
// DTO. Patient and doctor profiles are included only when preloaded.
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:        appointment.ID,
		PatientID: appointment.PatientID,
		DoctorID:  appointment.DoctorID,
		Date:      appointment.Date,
		Reason:    appointment.Reason,
		Status:    string(appointment.Status),
		CreatedAt: appointment.CreatedAt,
		UpdatedAt: appointment.UpdatedAt,
	}

	if appointment.Patient != nil {
		response.Patient = UserToResponse(appointment.Patient)
	}
	if appointment.Doctor != nil {
		response.Doctor = UserToResponse(appointment.Doctor)
	}

	return response
}

// AppointmentsToResponses converts a slice of Appointment entities to
// AppointmentResponse DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i, appointment := range appointments {
		resp := AppointmentToResponse(&appointment)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
