package flow

import "time"

// Step identifies where a booking session stands. The controller advances a
// session through these steps one submitted payload at a time.
type Step string

const (
	StepIdentify           Step = "identify"
	StepClientForm         Step = "client_form"
	StepManageExisting     Step = "manage_existing"
	StepAttendanceType     Step = "attendance_type"
	StepServiceSelect      Step = "service_select"
	StepProfessionalSelect Step = "professional_select"
	StepTimeSelect         Step = "time_select"
	StepConfirm            Step = "confirm"
	StepCompleted          Step = "completed"
)

// Actions accepted by specific steps.
const (
	ActionCancel    = "cancel"
	ActionEdit      = "edit"
	ActionStartOver = "start_over"
)

// Session is one client's pass through the booking flow. It lives only in
// the session store; abandoning the flow simply lets it expire.
type Session struct {
	ID         string `json:"id"`
	BusinessID string `json:"businessId"`
	Step       Step   `json:"step"`

	Phone      string `json:"phone,omitempty"`
	ClientID   string `json:"clientId,omitempty"`
	ClientName string `json:"clientName,omitempty"`
	HealthPlan string `json:"healthPlan,omitempty"`

	AttendanceType string `json:"attendanceType,omitempty"`
	ServiceID      string `json:"serviceId,omitempty"`
	ProfessionalID string `json:"professionalId,omitempty"`
	Date           string `json:"date,omitempty"`
	Time           string `json:"time,omitempty"`

	// EditingAppointmentID marks the session as a modification of an
	// existing appointment rather than a fresh booking.
	EditingAppointmentID string `json:"editingAppointmentId,omitempty"`
	// ActiveAppointmentID is the appointment that routed the client to
	// manage_existing.
	ActiveAppointmentID string `json:"activeAppointmentId,omitempty"`
	// AppointmentID is set once the reservation commits.
	AppointmentID string `json:"appointmentId,omitempty"`

	// LastError carries a user-facing re-selection hint after a failed
	// confirmation. Cleared on the next successful transition.
	LastError string `json:"lastError,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Input is the payload submitted for one step. Each step reads only the
// fields it cares about.
type Input struct {
	Phone          string `json:"phone,omitempty"`
	Name           string `json:"name,omitempty"`
	BirthDate      string `json:"birthDate,omitempty"`
	HealthPlan     string `json:"healthPlan,omitempty"`
	Action         string `json:"action,omitempty"`
	AttendanceType string `json:"attendanceType,omitempty"`
	ServiceID      string `json:"serviceId,omitempty"`
	ProfessionalID string `json:"professionalId,omitempty"`
	Date           string `json:"date,omitempty"`
	Time           string `json:"time,omitempty"`
}

// Editing reports whether the session modifies an existing appointment.
func (s Session) Editing() bool {
	return s.EditingAppointmentID != ""
}

// predecessor returns the single step Back navigates to. Completed sessions
// and the entry step have no predecessor.
func (s Session) predecessor() (Step, bool) {
	switch s.Step {
	case StepClientForm, StepManageExisting:
		return StepIdentify, true
	case StepAttendanceType:
		return StepClientForm, true
	case StepServiceSelect:
		if s.AttendanceType != "" {
			return StepAttendanceType, true
		}
		return StepClientForm, true
	case StepProfessionalSelect:
		return StepServiceSelect, true
	case StepTimeSelect:
		if s.Editing() {
			return StepManageExisting, true
		}
		return StepProfessionalSelect, true
	case StepConfirm:
		return StepTimeSelect, true
	default:
		return "", false
	}
}
