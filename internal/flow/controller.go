package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/booking"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/clients"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/models"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/schedule"
)

var (
	ErrUnexpectedInput = errors.New("input does not match the current step")
	ErrNoBackStep      = errors.New("no previous step")
)

// Booker is the slice of the reservation service the flow drives.
type Booker interface {
	Reserve(ctx context.Context, in booking.ReserveInput) (models.Appointment, error)
	Reschedule(ctx context.Context, appointmentID, date, timeStr string) (models.Appointment, error)
	Cancel(ctx context.Context, appointmentID string) error
	GetActiveAppointment(ctx context.Context, clientID string) (*models.Appointment, error)
}

// ClientDirectory resolves and registers clients by phone.
type ClientDirectory interface {
	FindByPhone(ctx context.Context, businessID, phone string) (models.Client, error)
	Upsert(ctx context.Context, businessID string, in clients.UpsertInput) (models.Client, error)
}

// Catalog exposes the reference reads the flow validates selections against.
type Catalog interface {
	Business(ctx context.Context, id string) (models.Business, error)
	ServiceByID(ctx context.Context, id string) (models.Service, error)
	ProfessionalByID(ctx context.Context, id string) (models.Professional, error)
}

// Controller drives one booking session per client through the lifecycle.
// Sessions are single-threaded by construction; all cross-session races are
// resolved by the reservation transactor, never here.
type Controller struct {
	store    Store
	booker   Booker
	clients  ClientDirectory
	catalog  Catalog
	location *time.Location
}

func NewController(store Store, booker Booker, directory ClientDirectory, catalog Catalog, location *time.Location) *Controller {
	return &Controller{
		store:    store,
		booker:   booker,
		clients:  directory,
		catalog:  catalog,
		location: location,
	}
}

// Start opens a fresh session at the identify step.
func (c *Controller) Start(ctx context.Context, businessID string) (Session, error) {
	if _, err := c.catalog.Business(ctx, businessID); err != nil {
		return Session{}, err
	}
	session := Session{
		ID:         primitive.NewObjectID().Hex(),
		BusinessID: businessID,
		Step:       StepIdentify,
		CreatedAt:  time.Now().In(c.location),
	}
	if err := c.store.Save(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

func (c *Controller) Get(ctx context.Context, sessionID string) (Session, error) {
	return c.store.Get(ctx, sessionID)
}

// Submit applies one step's input to the session and persists the result.
// A failed transition leaves the stored session untouched.
func (c *Controller) Submit(ctx context.Context, sessionID string, in Input) (Session, error) {
	session, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}

	next, err := c.advance(ctx, session, in)
	if err != nil {
		return session, err
	}

	if err := c.store.Save(ctx, next); err != nil {
		return Session{}, err
	}
	return next, nil
}

// Back moves the session to its step's single predecessor. Completed
// sessions cannot navigate backwards.
func (c *Controller) Back(ctx context.Context, sessionID string) (Session, error) {
	session, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}

	prev, ok := session.predecessor()
	if !ok {
		return session, ErrNoBackStep
	}
	session.Step = prev
	session.LastError = ""
	if err := c.store.Save(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// Abandon discards the session. There is nothing to release: committed
// appointments are never rolled back by session teardown.
func (c *Controller) Abandon(ctx context.Context, sessionID string) error {
	return c.store.Delete(ctx, sessionID)
}

func (c *Controller) advance(ctx context.Context, session Session, in Input) (Session, error) {
	switch session.Step {
	case StepIdentify:
		return c.advanceIdentify(ctx, session, in)
	case StepClientForm:
		return c.advanceClientForm(ctx, session, in)
	case StepManageExisting:
		return c.advanceManageExisting(ctx, session, in)
	case StepAttendanceType:
		return c.advanceAttendanceType(ctx, session, in)
	case StepServiceSelect:
		return c.advanceServiceSelect(ctx, session, in)
	case StepProfessionalSelect:
		return c.advanceProfessionalSelect(ctx, session, in)
	case StepTimeSelect:
		return c.advanceTimeSelect(session, in)
	case StepConfirm:
		return c.advanceConfirm(ctx, session)
	case StepCompleted:
		return c.advanceCompleted(ctx, session, in)
	default:
		return Session{}, fmt.Errorf("unknown step %q", session.Step)
	}
}

// advanceIdentify resolves the phone number. A client already holding a
// scheduled appointment is routed to manage_existing and never reaches the
// selection steps.
func (c *Controller) advanceIdentify(ctx context.Context, session Session, in Input) (Session, error) {
	phone, err := clients.NormalizePhone(in.Phone)
	if err != nil {
		return Session{}, err
	}
	session.Phone = phone
	session.LastError = ""

	client, err := c.clients.FindByPhone(ctx, session.BusinessID, phone)
	if err != nil {
		if errors.Is(err, clients.ErrClientNotFound) {
			session.Step = StepClientForm
			return session, nil
		}
		return Session{}, err
	}

	session.ClientID = client.ID
	session.ClientName = client.Name
	session.HealthPlan = client.HealthPlan

	active, err := c.booker.GetActiveAppointment(ctx, client.ID)
	if err != nil {
		return Session{}, err
	}
	if active != nil {
		session.ActiveAppointmentID = active.ID
		session.Step = StepManageExisting
		return session, nil
	}

	session.Step = StepClientForm
	return session, nil
}

func (c *Controller) advanceClientForm(ctx context.Context, session Session, in Input) (Session, error) {
	client, err := c.clients.Upsert(ctx, session.BusinessID, clients.UpsertInput{
		Name:       in.Name,
		Phone:      session.Phone,
		BirthDate:  in.BirthDate,
		HealthPlan: in.HealthPlan,
	})
	if err != nil {
		return Session{}, err
	}
	session.ClientID = client.ID
	session.ClientName = client.Name
	session.HealthPlan = client.HealthPlan
	session.LastError = ""

	business, err := c.catalog.Business(ctx, session.BusinessID)
	if err != nil {
		return Session{}, err
	}
	if business.AcceptsHealthPlans() && session.HealthPlan != "" {
		session.Step = StepAttendanceType
		return session, nil
	}
	session.Step = StepServiceSelect
	return session, nil
}

// advanceManageExisting handles the limit-reached branch: the client may
// cancel the blocking appointment or edit it. Editing jumps straight to
// time_select with service and professional carried over.
func (c *Controller) advanceManageExisting(ctx context.Context, session Session, in Input) (Session, error) {
	switch in.Action {
	case ActionCancel:
		if err := c.booker.Cancel(ctx, session.ActiveAppointmentID); err != nil {
			return Session{}, err
		}
		session.ActiveAppointmentID = ""
		session.LastError = ""
		// After freeing the slot the flow resumes where a fresh booking
		// would: plan holders of a plan-accepting business still choose
		// the attendance type first.
		business, err := c.catalog.Business(ctx, session.BusinessID)
		if err != nil {
			return Session{}, err
		}
		if business.AcceptsHealthPlans() && session.HealthPlan != "" {
			session.Step = StepAttendanceType
			return session, nil
		}
		session.Step = StepServiceSelect
		return session, nil

	case ActionEdit:
		active, err := c.booker.GetActiveAppointment(ctx, session.ClientID)
		if err != nil {
			return Session{}, err
		}
		if active == nil {
			return Session{}, fmt.Errorf("%w: no appointment left to edit", ErrUnexpectedInput)
		}
		session.EditingAppointmentID = active.ID
		session.ServiceID = active.ServiceID
		session.ProfessionalID = active.ProfessionalID
		session.LastError = ""
		session.Step = StepTimeSelect
		return session, nil

	default:
		return Session{}, fmt.Errorf("%w: action must be %q or %q", ErrUnexpectedInput, ActionCancel, ActionEdit)
	}
}

func (c *Controller) advanceAttendanceType(ctx context.Context, session Session, in Input) (Session, error) {
	switch in.AttendanceType {
	case models.AttendanceTypePrivate, models.AttendanceTypeHealthPlan:
	default:
		return Session{}, fmt.Errorf("%w: unknown attendance type", ErrUnexpectedInput)
	}
	session.AttendanceType = in.AttendanceType
	session.LastError = ""
	session.Step = StepServiceSelect
	return session, nil
}

func (c *Controller) advanceServiceSelect(ctx context.Context, session Session, in Input) (Session, error) {
	svc, err := c.catalog.ServiceByID(ctx, in.ServiceID)
	if err != nil {
		return Session{}, err
	}
	if svc.BusinessID != session.BusinessID || svc.Status != models.EntityStatusActive {
		return Session{}, fmt.Errorf("%w: service unavailable", ErrUnexpectedInput)
	}
	if session.AttendanceType == models.AttendanceTypeHealthPlan && !svc.AcceptsPlan(session.HealthPlan) {
		return Session{}, fmt.Errorf("%w: service does not accept the client's health plan", ErrUnexpectedInput)
	}
	session.ServiceID = svc.ID
	session.LastError = ""
	session.Step = StepProfessionalSelect
	return session, nil
}

func (c *Controller) advanceProfessionalSelect(ctx context.Context, session Session, in Input) (Session, error) {
	professional, err := c.catalog.ProfessionalByID(ctx, in.ProfessionalID)
	if err != nil {
		return Session{}, err
	}
	if professional.BusinessID != session.BusinessID || professional.Status != models.EntityStatusActive {
		return Session{}, fmt.Errorf("%w: professional unavailable", ErrUnexpectedInput)
	}
	svc, err := c.catalog.ServiceByID(ctx, session.ServiceID)
	if err != nil {
		return Session{}, err
	}
	if !svc.EligibleFor(professional.ID) {
		return Session{}, fmt.Errorf("%w: professional does not perform this service", ErrUnexpectedInput)
	}
	session.ProfessionalID = professional.ID
	session.LastError = ""
	session.Step = StepTimeSelect
	return session, nil
}

func (c *Controller) advanceTimeSelect(session Session, in Input) (Session, error) {
	if _, err := schedule.ParseDate(in.Date, c.location); err != nil {
		return Session{}, fmt.Errorf("%w: %s", ErrUnexpectedInput, err)
	}
	if _, err := schedule.ParseClockToMinutes(in.Time); err != nil {
		return Session{}, fmt.Errorf("%w: %s", ErrUnexpectedInput, err)
	}
	session.Date = in.Date
	session.Time = in.Time
	session.LastError = ""
	session.Step = StepConfirm
	return session, nil
}

// advanceConfirm is the commit point. Conflicts discovered here send the
// client back to re-select rather than failing the session: the slot list
// they saw was only ever advisory.
func (c *Controller) advanceConfirm(ctx context.Context, session Session) (Session, error) {
	var appt models.Appointment
	var err error
	if session.Editing() {
		appt, err = c.booker.Reschedule(ctx, session.EditingAppointmentID, session.Date, session.Time)
	} else {
		appt, err = c.booker.Reserve(ctx, booking.ReserveInput{
			BusinessID:     session.BusinessID,
			ClientID:       session.ClientID,
			ServiceID:      session.ServiceID,
			ProfessionalID: session.ProfessionalID,
			Date:           session.Date,
			Time:           session.Time,
		})
	}

	switch {
	case err == nil:
		session.AppointmentID = appt.ID
		session.LastError = ""
		session.Step = StepCompleted
		return session, nil

	case errors.Is(err, booking.ErrSlotUnavailable):
		session.Time = ""
		session.LastError = "slot no longer available, pick another time"
		session.Step = StepTimeSelect
		return session, nil

	case errors.Is(err, booking.ErrEntityInactive):
		session.ServiceID = ""
		session.ProfessionalID = ""
		session.Date = ""
		session.Time = ""
		session.LastError = "selection no longer offered, pick another service"
		session.Step = StepServiceSelect
		return session, nil

	default:
		return Session{}, err
	}
}

// advanceCompleted only accepts a restart; completed is otherwise terminal.
func (c *Controller) advanceCompleted(ctx context.Context, session Session, in Input) (Session, error) {
	if in.Action != ActionStartOver {
		return Session{}, fmt.Errorf("%w: session already completed", ErrUnexpectedInput)
	}
	return Session{
		ID:         session.ID,
		BusinessID: session.BusinessID,
		Step:       StepIdentify,
		CreatedAt:  time.Now().In(c.location),
	}, nil
}
