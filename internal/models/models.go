package models

import "time"

const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCanceled  = "canceled"

	EntityStatusActive   = "active"
	EntityStatusInactive = "inactive"

	AttendanceTypePrivate    = "private"
	AttendanceTypeHealthPlan = "health_plan"

	BusinessCategoryClinic = "clinic"

	UserRoleAdmin = "admin"
)

// WorkInterval is a half-open [Start, End) range in minutes of day.
type WorkInterval struct {
	Start int `bson:"start" json:"start"`
	End   int `bson:"end" json:"end"`
}

// DaySchedule is one weekday's opening configuration. A disabled day has no
// bookable time regardless of its intervals.
type DaySchedule struct {
	Enabled   bool           `bson:"enabled" json:"enabled"`
	Intervals []WorkInterval `bson:"intervals,omitempty" json:"intervals,omitempty"`
}

// WeekSchedule holds one DaySchedule per weekday, indexed by time.Weekday
// (0 = Sunday).
type WeekSchedule [7]DaySchedule

type Business struct {
	ID                  string       `bson:"_id,omitempty" json:"id"`
	Name                string       `bson:"name" json:"name"`
	Category            string       `bson:"category" json:"category"`
	AcceptedHealthPlans []string     `bson:"acceptedHealthPlans,omitempty" json:"acceptedHealthPlans,omitempty"`
	ClientLimit         int          `bson:"clientLimit" json:"clientLimit"`
	Schedule            WeekSchedule `bson:"schedule" json:"schedule"`
	CreatedAt           time.Time    `bson:"createdAt" json:"createdAt"`
}

// AcceptsHealthPlans reports whether the business bills through at least one
// health plan. Only clinic-category businesses offer plan billing.
func (b Business) AcceptsHealthPlans() bool {
	return b.Category == BusinessCategoryClinic && len(b.AcceptedHealthPlans) > 0
}

type Professional struct {
	ID         string        `bson:"_id,omitempty" json:"id"`
	BusinessID string        `bson:"businessId" json:"businessId"`
	Name       string        `bson:"name" json:"name"`
	Status     string        `bson:"status" json:"status"`
	WorkHours  *WeekSchedule `bson:"workHours,omitempty" json:"workHours,omitempty"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
}

// BlockedRange closes a wall-clock interval for booking. An empty
// ProfessionalID makes the block business-wide. Blocks never expire on their
// own; they are removed explicitly.
type BlockedRange struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	BusinessID     string    `bson:"businessId" json:"businessId"`
	ProfessionalID string    `bson:"professionalId,omitempty" json:"professionalId,omitempty"`
	StartAt        time.Time `bson:"startAt" json:"startAt"`
	EndAt          time.Time `bson:"endAt" json:"endAt"`
	Reason         string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

type Service struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	BusinessID      string    `bson:"businessId" json:"businessId"`
	Name            string    `bson:"name" json:"name"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`
	Price           int       `bson:"price" json:"price"`
	Status          string    `bson:"status" json:"status"`
	ProfessionalIDs []string  `bson:"professionalIds,omitempty" json:"professionalIds,omitempty"`
	HealthPlans     []string  `bson:"healthPlans,omitempty" json:"healthPlans,omitempty"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}

func (s Service) EligibleFor(professionalID string) bool {
	if len(s.ProfessionalIDs) == 0 {
		return true
	}
	for _, id := range s.ProfessionalIDs {
		if id == professionalID {
			return true
		}
	}
	return false
}

func (s Service) AcceptsPlan(plan string) bool {
	for _, p := range s.HealthPlans {
		if p == plan {
			return true
		}
	}
	return false
}

// Client is identified by its normalized phone number, unique per business.
type Client struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	BusinessID string    `bson:"businessId" json:"businessId"`
	Name       string    `bson:"name" json:"name"`
	Phone      string    `bson:"phone" json:"phone"`
	BirthDate  string    `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	HealthPlan string    `bson:"healthPlan,omitempty" json:"healthPlan,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Appointment struct {
	ID             string     `bson:"_id,omitempty" json:"id"`
	BusinessID     string     `bson:"businessId" json:"businessId"`
	ClientID       string     `bson:"clientId" json:"clientId"`
	ServiceID      string     `bson:"serviceId" json:"serviceId"`
	ProfessionalID string     `bson:"professionalId" json:"professionalId"`
	Date           string     `bson:"date" json:"date"`
	Time           string     `bson:"time" json:"time"`
	Duration       int        `bson:"duration" json:"duration"`
	Price          int        `bson:"price" json:"price"`
	Status         string     `bson:"status" json:"status"`
	CreatedAt      time.Time  `bson:"createdAt" json:"createdAt"`
	CanceledAt     *time.Time `bson:"canceledAt,omitempty" json:"canceledAt,omitempty"`
}

type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
