package dto

// CreatePatientRequest creates a patient.
type CreatePatientRequest struct {
	Name        string `json:"name" binding:"required"`
	YearOfBirth int    `json:"yearOfBirth"`
}

// UpdatePatientRequest updates a patient under version check.
type UpdatePatientRequest struct {
	Name        *string `json:"name"`
	YearOfBirth *int    `json:"yearOfBirth"`
	Version     int     `json:"version" binding:"required,min=1"`
}

// CreateDoctorRequest creates a doctor.
type CreateDoctorRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateDoctorRequest updates a doctor under version check.
type UpdateDoctorRequest struct {
	Name    *string `json:"name"`
	Version int     `json:"version" binding:"required,min=1"`
}

// CreateTicketRequest opens a support ticket.
type CreateTicketRequest struct {
	Subject  string `json:"subject" binding:"required"`
	Body     string `json:"body"`
	Priority string `json:"priority"`
}

// TicketTransitionRequest moves a ticket between statuses.
type TicketTransitionRequest struct {
	CurrentStatus string `json:"currentStatus" binding:"required"`
	To            string `json:"to" binding:"required"`
}

// OnboardClinicRequest registers a new clinic.
type OnboardClinicRequest struct {
	ClinicName string `json:"clinicName" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
}

// CheckoutRequest starts a subscription checkout for a plan.
type CheckoutRequest struct {
	Plan string `json:"plan" binding:"required"`
}
