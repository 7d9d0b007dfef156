package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/models"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/schedule"
)

// Notifier is the outbound hook to the reminder subsystem. Calls are
// best-effort; the booking core never fails a reservation because a
// notification could not be delivered.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, appt models.Appointment) error
	ReservationCanceled(ctx context.Context, appointmentID string) error
}

type Policy struct {
	// SlotGranularityMin is the step between candidate start times.
	SlotGranularityMin int
	// ClientLimit caps a client's simultaneous scheduled appointments.
	// A business document may override it; zero falls back to 1.
	ClientLimit int
	// NextAvailabilityDays bounds the next-open-date search horizon.
	NextAvailabilityDays int
}

func (p Policy) granularity() int {
	if p.SlotGranularityMin > 0 {
		return p.SlotGranularityMin
	}
	return schedule.DefaultGranularity
}

func (p Policy) clientLimit(business models.Business) int {
	if business.ClientLimit > 0 {
		return business.ClientLimit
	}
	if p.ClientLimit > 0 {
		return p.ClientLimit
	}
	return 1
}

func (p Policy) horizon() int {
	if p.NextAvailabilityDays > 0 {
		return p.NextAvailabilityDays
	}
	return 30
}

type Service struct {
	store    Store
	policy   Policy
	location *time.Location
	notifier Notifier
	log      *slog.Logger

	// now supplies the wall clock; tests swap it for a fixed instant.
	now func() time.Time
}

func NewService(store Store, policy Policy, location *time.Location, notifier Notifier, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		policy:   policy,
		location: location,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// GetAvailableTimes computes the bookable start times for one professional,
// service and date. The result is advisory: correctness is re-established at
// commit time by Reserve. Past dates and closed days yield an empty list,
// never an error.
func (s *Service) GetAvailableTimes(ctx context.Context, businessID, professionalID, serviceID, date string, now time.Time) ([]string, error) {
	if _, err := schedule.ParseDate(date, s.location); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	past, err := schedule.IsDatePast(date, s.location, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if past {
		return []string{}, nil
	}

	business, svc, professional, err := s.loadReferences(ctx, businessID, serviceID, professionalID)
	if err != nil {
		return nil, err
	}

	slots, err := s.computeSlots(ctx, business, svc, professional, date)
	if err != nil {
		return nil, err
	}
	return schedule.FilterPast(date, slots, s.location, now)
}

// NextAvailableDate walks forward from the given date and returns the first
// date and time with at least one open slot, or ErrNotFound when the horizon
// is exhausted.
func (s *Service) NextAvailableDate(ctx context.Context, businessID, professionalID, serviceID, from string, now time.Time) (string, string, error) {
	start, err := schedule.ParseDate(from, s.location)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	for i := 0; i < s.policy.horizon(); i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		slots, err := s.GetAvailableTimes(ctx, businessID, professionalID, serviceID, date, now)
		if err != nil {
			return "", "", err
		}
		if len(slots) > 0 {
			return date, slots[0], nil
		}
	}
	return "", "", ErrNotFound
}

type ReserveInput struct {
	BusinessID     string
	ClientID       string
	ServiceID      string
	ProfessionalID string
	Date           string
	Time           string
}

// Reserve converts a chosen slot into a scheduled appointment. The slot list
// previously shown to the client is only a hint: everything is re-derived
// inside one transaction, so of any number of concurrent attempts on
// overlapping slots at most one commits. Losers receive ErrSlotUnavailable.
func (s *Service) Reserve(ctx context.Context, in ReserveInput) (models.Appointment, error) {
	if err := s.validateSlotInput(in.Date, in.Time); err != nil {
		return models.Appointment{}, err
	}

	var appt models.Appointment
	err := s.store.InTransaction(ctx, func(txCtx context.Context) error {
		created, err := s.reserveTx(txCtx, in, nil)
		if err != nil {
			return err
		}
		appt = created
		return nil
	})
	if err != nil {
		return models.Appointment{}, err
	}

	s.notifyConfirmed(appt)
	return appt, nil
}

// Cancel marks the appointment canceled. History is kept; the record is
// never deleted. Canceling a non-scheduled appointment is rejected.
func (s *Service) Cancel(ctx context.Context, appointmentID string) error {
	appt, err := s.store.AppointmentByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appt.Status != models.AppointmentStatusScheduled {
		return fmt.Errorf("%w: appointment is %s", ErrInvalidInput, appt.Status)
	}

	now := s.now().In(s.location)
	if err := s.store.UpdateAppointmentStatus(ctx, appointmentID, models.AppointmentStatusCanceled, &now); err != nil {
		return err
	}

	s.notifyCanceled(appointmentID)
	return nil
}

// Reschedule moves a scheduled appointment to a new date and time as one
// atomic cancel-old-plus-reserve-new. Service and professional carry over
// from the original appointment.
func (s *Service) Reschedule(ctx context.Context, appointmentID, date, timeStr string) (models.Appointment, error) {
	if err := s.validateSlotInput(date, timeStr); err != nil {
		return models.Appointment{}, err
	}

	var created models.Appointment
	err := s.store.InTransaction(ctx, func(txCtx context.Context) error {
		old, err := s.store.AppointmentByID(txCtx, appointmentID)
		if err != nil {
			return err
		}
		if old.Status != models.AppointmentStatusScheduled {
			return fmt.Errorf("%w: appointment is %s", ErrInvalidInput, old.Status)
		}

		now := s.now().In(s.location)
		if err := s.store.UpdateAppointmentStatus(txCtx, appointmentID, models.AppointmentStatusCanceled, &now); err != nil {
			return err
		}

		in := ReserveInput{
			BusinessID:     old.BusinessID,
			ClientID:       old.ClientID,
			ServiceID:      old.ServiceID,
			ProfessionalID: old.ProfessionalID,
			Date:           date,
			Time:           timeStr,
		}
		created, err = s.reserveTx(txCtx, in, &old)
		return err
	})
	if err != nil {
		return models.Appointment{}, err
	}

	s.notifyCanceled(appointmentID)
	s.notifyConfirmed(created)
	return created, nil
}

func (s *Service) GetActiveAppointment(ctx context.Context, clientID string) (*models.Appointment, error) {
	return s.store.ActiveAppointmentByClient(ctx, clientID)
}

func (s *Service) GetAppointment(ctx context.Context, appointmentID string) (models.Appointment, error) {
	return s.store.AppointmentByID(ctx, appointmentID)
}

// reserveTx is the shared commit path of Reserve and Reschedule. It must run
// inside a transaction context. replaced, when set, is the appointment being
// rescheduled; it is already canceled in this transaction and therefore does
// not count against the client limit.
func (s *Service) reserveTx(ctx context.Context, in ReserveInput, replaced *models.Appointment) (models.Appointment, error) {
	business, svc, professional, err := s.loadReferences(ctx, in.BusinessID, in.ServiceID, in.ProfessionalID)
	if err != nil {
		return models.Appointment{}, err
	}

	if replaced == nil {
		count, err := s.store.CountScheduledByClient(ctx, in.ClientID)
		if err != nil {
			return models.Appointment{}, err
		}
		if count >= int64(s.policy.clientLimit(business)) {
			return models.Appointment{}, ErrClientLimitExceeded
		}
	}

	now := s.now().In(s.location)
	past, err := schedule.IsSlotPast(in.Date, in.Time, s.location, now)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if past {
		return models.Appointment{}, ErrSlotUnavailable
	}

	slots, err := s.computeSlots(ctx, business, svc, professional, in.Date)
	if err != nil {
		return models.Appointment{}, err
	}
	if !schedule.ContainsSlot(slots, in.Time) {
		return models.Appointment{}, ErrSlotUnavailable
	}

	appt := models.Appointment{
		ID:             primitive.NewObjectID().Hex(),
		BusinessID:     in.BusinessID,
		ClientID:       in.ClientID,
		ServiceID:      in.ServiceID,
		ProfessionalID: in.ProfessionalID,
		Date:           in.Date,
		Time:           in.Time,
		Duration:       svc.DurationMinutes,
		Price:          svc.Price,
		Status:         models.AppointmentStatusScheduled,
		CreatedAt:      now,
	}

	if err := s.store.InsertAppointment(ctx, appt); err != nil {
		return models.Appointment{}, err
	}
	return appt, nil
}

func (s *Service) loadReferences(ctx context.Context, businessID, serviceID, professionalID string) (models.Business, models.Service, models.Professional, error) {
	business, err := s.store.Business(ctx, businessID)
	if err != nil {
		return models.Business{}, models.Service{}, models.Professional{}, refErr("business", err)
	}

	svc, err := s.store.ServiceByID(ctx, serviceID)
	if err != nil {
		return models.Business{}, models.Service{}, models.Professional{}, refErr("service", err)
	}
	if svc.BusinessID != businessID {
		return models.Business{}, models.Service{}, models.Professional{}, fmt.Errorf("%w: service belongs to another business", ErrInvalidInput)
	}
	if svc.Status != models.EntityStatusActive {
		return models.Business{}, models.Service{}, models.Professional{}, ErrEntityInactive
	}
	if svc.DurationMinutes <= 0 {
		return models.Business{}, models.Service{}, models.Professional{}, fmt.Errorf("%w: service has no duration", ErrInvalidInput)
	}

	professional, err := s.store.ProfessionalByID(ctx, professionalID)
	if err != nil {
		return models.Business{}, models.Service{}, models.Professional{}, refErr("professional", err)
	}
	if professional.BusinessID != businessID {
		return models.Business{}, models.Service{}, models.Professional{}, fmt.Errorf("%w: professional belongs to another business", ErrInvalidInput)
	}
	if professional.Status != models.EntityStatusActive {
		return models.Business{}, models.Service{}, models.Professional{}, ErrEntityInactive
	}
	if !svc.EligibleFor(professionalID) {
		return models.Business{}, models.Service{}, models.Professional{}, fmt.Errorf("%w: professional does not perform this service", ErrInvalidInput)
	}

	return business, svc, professional, nil
}

// computeSlots resolves open intervals, aggregates busy time and generates
// the candidate start times for the date. "Now" filtering is the caller's
// concern.
func (s *Service) computeSlots(ctx context.Context, business models.Business, svc models.Service, professional models.Professional, date string) ([]string, error) {
	day, err := schedule.ParseDate(date, s.location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	open := schedule.ResolveOpenIntervals(business.Schedule, professional.WorkHours, day)
	if len(open) == 0 {
		return []string{}, nil
	}

	busy, err := s.busyFor(ctx, business.ID, professional.ID, date, day)
	if err != nil {
		return nil, err
	}

	return schedule.GenerateSlots(open, busy, svc.DurationMinutes, s.policy.granularity())
}

// busyFor aggregates every occupied minute range of the date: scheduled
// appointments of the professional plus business-wide and
// professional-specific blocked ranges clipped to the date.
func (s *Service) busyFor(ctx context.Context, businessID, professionalID, date string, day time.Time) (*schedule.BusySet, error) {
	busy := schedule.NewBusySet()

	appointments, err := s.store.ScheduledAppointments(ctx, professionalID, date)
	if err != nil {
		return nil, err
	}
	for _, appt := range appointments {
		start, err := schedule.ParseClockToMinutes(appt.Time)
		if err != nil {
			continue
		}
		duration := appt.Duration
		if duration <= 0 {
			duration = s.policy.granularity()
		}
		busy.Add(schedule.Interval{Start: start, End: start + duration})
	}

	blocked, err := s.store.BlockedRanges(ctx, businessID, professionalID)
	if err != nil {
		return nil, err
	}
	for _, block := range blocked {
		busy.AddClipped(block.StartAt, block.EndAt, day, s.location)
	}

	return busy, nil
}

func (s *Service) validateSlotInput(date, timeStr string) error {
	if _, err := schedule.ParseDate(date, s.location); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if _, err := schedule.ParseClockToMinutes(timeStr); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	return nil
}

func refErr(entity string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: unknown %s", ErrInvalidInput, entity)
	}
	return err
}

// Notification hooks run detached from the request: a reservation must never
// wait on, or be rolled back by, the reminder subsystem.

func (s *Service) notifyConfirmed(appt models.Appointment) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		if err := s.notifier.ReservationConfirmed(ctx, appt); err != nil {
			s.log.Warn("reminder hook: confirm failed",
				slog.String("appointment_id", appt.ID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

func (s *Service) notifyCanceled(appointmentID string) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		if err := s.notifier.ReservationCanceled(ctx, appointmentID); err != nil {
			s.log.Warn("reminder hook: cancel failed",
				slog.String("appointment_id", appointmentID),
				slog.String("error", err.Error()),
			)
		}
	}()
}
