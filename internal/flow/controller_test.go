package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/booking"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/cache"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/clients"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/models"
)

type fakeCatalog struct {
	businesses    map[string]models.Business
	services      map[string]models.Service
	professionals map[string]models.Professional
}

func (f *fakeCatalog) Business(ctx context.Context, id string) (models.Business, error) {
	b, ok := f.businesses[id]
	if !ok {
		return models.Business{}, booking.ErrNotFound
	}
	return b, nil
}

func (f *fakeCatalog) ServiceByID(ctx context.Context, id string) (models.Service, error) {
	s, ok := f.services[id]
	if !ok {
		return models.Service{}, booking.ErrNotFound
	}
	return s, nil
}

func (f *fakeCatalog) ProfessionalByID(ctx context.Context, id string) (models.Professional, error) {
	p, ok := f.professionals[id]
	if !ok {
		return models.Professional{}, booking.ErrNotFound
	}
	return p, nil
}

type fakeDirectory struct {
	clients map[string]models.Client
}

func (f *fakeDirectory) FindByPhone(ctx context.Context, businessID, phone string) (models.Client, error) {
	c, ok := f.clients[phone]
	if !ok {
		return models.Client{}, clients.ErrClientNotFound
	}
	return c, nil
}

func (f *fakeDirectory) Upsert(ctx context.Context, businessID string, in clients.UpsertInput) (models.Client, error) {
	phone, err := clients.NormalizePhone(in.Phone)
	if err != nil {
		return models.Client{}, err
	}
	if c, ok := f.clients[phone]; ok {
		if in.HealthPlan != "" {
			c.HealthPlan = in.HealthPlan
		}
		f.clients[phone] = c
		return c, nil
	}
	if in.Name == "" {
		return models.Client{}, clients.ErrMissingName
	}
	c := models.Client{
		ID: "client-" + phone, BusinessID: businessID,
		Name: in.Name, Phone: phone, HealthPlan: in.HealthPlan,
	}
	f.clients[phone] = c
	return c, nil
}

type fakeBooker struct {
	active      map[string]*models.Appointment
	reserveErr  error
	reserved    []booking.ReserveInput
	canceled    []string
	rescheduled []string
}

func (f *fakeBooker) Reserve(ctx context.Context, in booking.ReserveInput) (models.Appointment, error) {
	if f.reserveErr != nil {
		err := f.reserveErr
		f.reserveErr = nil
		return models.Appointment{}, err
	}
	f.reserved = append(f.reserved, in)
	return models.Appointment{
		ID: "appt-new", BusinessID: in.BusinessID, ClientID: in.ClientID,
		ServiceID: in.ServiceID, ProfessionalID: in.ProfessionalID,
		Date: in.Date, Time: in.Time, Status: models.AppointmentStatusScheduled,
	}, nil
}

func (f *fakeBooker) Reschedule(ctx context.Context, appointmentID, date, timeStr string) (models.Appointment, error) {
	if f.reserveErr != nil {
		err := f.reserveErr
		f.reserveErr = nil
		return models.Appointment{}, err
	}
	f.rescheduled = append(f.rescheduled, appointmentID)
	return models.Appointment{ID: "appt-moved", Date: date, Time: timeStr}, nil
}

func (f *fakeBooker) Cancel(ctx context.Context, appointmentID string) error {
	f.canceled = append(f.canceled, appointmentID)
	for clientID, appt := range f.active {
		if appt != nil && appt.ID == appointmentID {
			f.active[clientID] = nil
		}
	}
	return nil
}

func (f *fakeBooker) GetActiveAppointment(ctx context.Context, clientID string) (*models.Appointment, error) {
	return f.active[clientID], nil
}

const (
	flowBusiness = "biz-1"
	flowPhone    = "11987654321"
)

func newTestController(t *testing.T) (*Controller, *fakeBooker, *fakeDirectory, *fakeCatalog) {
	t.Helper()

	catalog := &fakeCatalog{
		businesses: map[string]models.Business{
			flowBusiness: {ID: flowBusiness, Name: "Estudio"},
		},
		services: map[string]models.Service{
			"svc-1": {
				ID: "svc-1", BusinessID: flowBusiness, Name: "Corte",
				DurationMinutes: 30, Status: models.EntityStatusActive,
			},
		},
		professionals: map[string]models.Professional{
			"pro-1": {ID: "pro-1", BusinessID: flowBusiness, Name: "Ana", Status: models.EntityStatusActive},
		},
	}
	directory := &fakeDirectory{clients: map[string]models.Client{}}
	booker := &fakeBooker{active: map[string]*models.Appointment{}}

	store := NewCacheStore(cache.NewMemory(), time.Minute)
	return NewController(store, booker, directory, catalog, time.UTC), booker, directory, catalog
}

func mustSubmit(t *testing.T, c *Controller, id string, in Input) Session {
	t.Helper()
	session, err := c.Submit(context.Background(), id, in)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	return session
}

func startSession(t *testing.T, c *Controller) Session {
	t.Helper()
	session, err := c.Start(context.Background(), flowBusiness)
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if session.Step != StepIdentify {
		t.Fatalf("new session must start at identify, got %s", session.Step)
	}
	return session
}

func TestFullBookingFlow(t *testing.T) {
	c, booker, _, _ := newTestController(t)
	session := startSession(t, c)

	session = mustSubmit(t, c, session.ID, Input{Phone: flowPhone})
	if session.Step != StepClientForm {
		t.Fatalf("unknown phone must go to client_form, got %s", session.Step)
	}

	session = mustSubmit(t, c, session.ID, Input{Name: "Maria"})
	if session.Step != StepServiceSelect {
		t.Fatalf("expected service_select, got %s", session.Step)
	}

	session = mustSubmit(t, c, session.ID, Input{ServiceID: "svc-1"})
	if session.Step != StepProfessionalSelect {
		t.Fatalf("expected professional_select, got %s", session.Step)
	}

	session = mustSubmit(t, c, session.ID, Input{ProfessionalID: "pro-1"})
	if session.Step != StepTimeSelect {
		t.Fatalf("expected time_select, got %s", session.Step)
	}

	session = mustSubmit(t, c, session.ID, Input{Date: "2026-03-09", Time: "09:00"})
	if session.Step != StepConfirm {
		t.Fatalf("expected confirm, got %s", session.Step)
	}

	session = mustSubmit(t, c, session.ID, Input{})
	if session.Step != StepCompleted {
		t.Fatalf("expected completed, got %s", session.Step)
	}
	if session.AppointmentID != "appt-new" {
		t.Fatalf("committed appointment id missing: %+v", session)
	}
	if len(booker.reserved) != 1 || booker.reserved[0].ClientID != "client-"+flowPhone {
		t.Fatalf("unexpected reservation calls: %+v", booker.reserved)
	}
}

func TestActiveAppointmentRoutesToManageExisting(t *testing.T) {
	c, booker, directory, _ := newTestController(t)

	directory.clients[flowPhone] = models.Client{ID: "client-1", Name: "Maria", Phone: flowPhone}
	booker.active["client-1"] = &models.Appointment{
		ID: "appt-1", ClientID: "client-1", ServiceID: "svc-1", ProfessionalID: "pro-1",
		Status: models.AppointmentStatusScheduled,
	}

	session := startSession(t, c)
	session = mustSubmit(t, c, session.ID, Input{Phone: flowPhone})
	if session.Step != StepManageExisting {
		t.Fatalf("client with active appointment must land on manage_existing, got %s", session.Step)
	}
	if session.ActiveAppointmentID != "appt-1" {
		t.Fatalf("active appointment not recorded: %+v", session)
	}
}

func TestManageExistingRejectsOtherActions(t *testing.T) {
	c, booker, directory, _ := newTestController(t)
	directory.clients[flowPhone] = models.Client{ID: "client-1", Name: "Maria", Phone: flowPhone}
	booker.active["client-1"] = &models.Appointment{ID: "appt-1", ClientID: "client-1", Status: models.AppointmentStatusScheduled}

	session := startSession(t, c)
	session = mustSubmit(t, c, session.ID, Input{Phone: flowPhone})

	if _, err := c.Submit(context.Background(), session.ID, Input{Action: "book_more"}); !errors.Is(err, ErrUnexpectedInput) {
		t.Fatalf("expected ErrUnexpectedInput, got %v", err)
	}
}

func TestManageExistingCancel(t *testing.T) {
	c, booker, directory, _ := newTestController(t)
	directory.clients[flowPhone] = models.Client{ID: "client-1", Name: "Maria", Phone: flowPhone}
	booker.active["client-1"] = &models.Appointment{ID: "appt-1", ClientID: "client-1", Status: models.AppointmentStatusScheduled}

	session := startSession(t, c)
	session = mustSubmit(t, c, session.ID, Input{Phone: flowPhone})
	session = mustSubmit(t, c, session.ID, Input{Action: ActionCancel})

	if session.Step != StepServiceSelect {
		t.Fatalf("after cancel the client books fresh, got %s", session.Step)
	}
	if len(booker.canceled) != 1 || booker.canceled[0] != "appt-1" {
		t.Fatalf("cancellation not forwarded: %+v", booker.canceled)
	}
}

func TestManageExistingCancelKeepsAttendanceTypeStep(t *testing.T) {
	c, booker, directory, catalog := newTestController(t)
	catalog.businesses[flowBusiness] = models.Business{
		ID: flowBusiness, Category: models.BusinessCategoryClinic,
		AcceptedHealthPlans: []string{"unimed"},
	}
	directory.clients[flowPhone] = models.Client{
		ID: "client-1", Name: "Maria", Phone: flowPhone, HealthPlan: "unimed",
	}
	booker.active["client-1"] = &models.Appointment{ID: "appt-1", ClientID: "client-1", Status: models.AppointmentStatusScheduled}

	session := startSession(t, c)
	session = mustSubmit(t, c, session.ID, Input{Phone: flowPhone})
	session = mustSubmit(t, c, session.ID, Input{Action: ActionCancel})

	// A plan holder at a clinic rebooks through the same steps as a
	// fresh booking, attendance type included.
	if session.Step != StepAttendanceType {
		t.Fatalf("plan holder must pick attendance type after cancel, got %s", session.Step)
	}
	if len(booker.canceled) != 1 || booker.canceled[0] != "appt-1" {
		t.Fatalf("cancellation not forwarded: %+v", booker.canceled)
	}
}

func TestManageExistingEditJumpsToTimeSelect(t *testing.T) {
	c, booker, directory, _ := newTestController(t)
	directory.clients[flowPhone] = models.Client{ID: "client-1", Name: "Maria", Phone: flowPhone}
	booker.active["client-1"] = &models.Appointment{
		ID: "appt-1", ClientID: "client-1", ServiceID: "svc-1", ProfessionalID: "pro-1",
		Status: models.AppointmentStatusScheduled,
	}

	session := startSession(t, c)
	session = mustSubmit(t, c, session.ID, Input{Phone: flowPhone})
	session = mustSubmit(t, c, session.ID, Input{Action: ActionEdit})

	if session.Step != StepTimeSelect {
		t.Fatalf("edit must jump to time_select, got %s", session.Step)
	}
	if session.ServiceID != "svc-1" || session.ProfessionalID != "pro-1" {
		t.Fatalf("edit must prefill service and professional: %+v", session)
	}
	if !session.Editing() {
		t.Fatalf("session must be in edit mode")
	}

	session = mustSubmit(t, c, session.ID, Input{Date: "2026-03-10", Time: "10:00"})
	session = mustSubmit(t, c, session.ID, Input{})
	if session.Step != StepCompleted {
		t.Fatalf("expected completed, got %s", session.Step)
	}
	if len(booker.rescheduled) != 1 || booker.rescheduled[0] != "appt-1" {
		t.Fatalf("edit must reschedule, not reserve: %+v", booker.rescheduled)
	}
}

func TestHealthPlanRouting(t *testing.T) {
	c, _, _, catalog := newTestController(t)
	catalog.businesses[flowBusiness] = models.Business{
		ID: flowBusiness, Category: models.BusinessCategoryClinic,
		AcceptedHealthPlans: []string{"unimed"},
	}
	catalog.services["svc-plan"] = models.Service{
		ID: "svc-plan", BusinessID: flowBusiness, DurationMinutes: 30,
		Status: models.EntityStatusActive, HealthPlans: []string{"unimed"},
	}

	session := startSession(t, c)
	session = mustSubmit(t, c, session.ID, Input{Phone: flowPhone})
	session = mustSubmit(t, c, session.ID, Input{Name: "Maria", HealthPlan: "unimed"})
	if session.Step != StepAttendanceType {
		t.Fatalf("plan holder at a clinic must pick attendance type, got %s", session.Step)
	}

	session = mustSubmit(t, c, session.ID, Input{AttendanceType: models.AttendanceTypeHealthPlan})
	if session.Step != StepServiceSelect {
		t.Fatalf("expected service_select, got %s", session.Step)
	}

	// svc-1 does not accept the plan.
	if _, err := c.Submit(context.Background(), session.ID, Input{ServiceID: "svc-1"}); !errors.Is(err, ErrUnexpectedInput) {
		t.Fatalf("plan-billed session must reject non-plan service, got %v", err)
	}

	session = mustSubmit(t, c, session.ID, Input{ServiceID: "svc-plan"})
	if session.Step != StepProfessionalSelect {
		t.Fatalf("expected professional_select, got %s", session.Step)
	}
}

func TestConfirmConflictReturnsToTimeSelect(t *testing.T) {
	c, booker, _, _ := newTestController(t)
	session := startSession(t, c)
	session = mustSubmit(t, c, session.ID, Input{Phone: flowPhone})
	session = mustSubmit(t, c, session.ID, Input{Name: "Maria"})
	session = mustSubmit(t, c, session.ID, Input{ServiceID: "svc-1"})
	session = mustSubmit(t, c, session.ID, Input{ProfessionalID: "pro-1"})
	session = mustSubmit(t, c, session.ID, Input{Date: "2026-03-09", Time: "09:00"})

	booker.reserveErr = booking.ErrSlotUnavailable
	session = mustSubmit(t, c, session.ID, Input{})
	if session.Step != StepTimeSelect {
		t.Fatalf("conflict must return to time_select, got %s", session.Step)
	}
	if session.Time != "" {
		t.Fatalf("conflicting time must be cleared")
	}
	if session.LastError == "" {
		t.Fatalf("re-selection hint missing")
	}

	// Picking a new time succeeds.
	session = mustSubmit(t, c, session.ID, Input{Date: "2026-03-09", Time: "09:30"})
	session = mustSubmit(t, c, session.ID, Input{})
	if session.Step != StepCompleted {
		t.Fatalf("expected completed after retry, got %s", session.Step)
	}
}

func TestConfirmInactiveReturnsToServiceSelect(t *testing.T) {
	c, booker, _, _ := newTestController(t)
	session := startSession(t, c)
	session = mustSubmit(t, c, session.ID, Input{Phone: flowPhone})
	session = mustSubmit(t, c, session.ID, Input{Name: "Maria"})
	session = mustSubmit(t, c, session.ID, Input{ServiceID: "svc-1"})
	session = mustSubmit(t, c, session.ID, Input{ProfessionalID: "pro-1"})
	session = mustSubmit(t, c, session.ID, Input{Date: "2026-03-09", Time: "09:00"})

	booker.reserveErr = booking.ErrEntityInactive
	session = mustSubmit(t, c, session.ID, Input{})
	if session.Step != StepServiceSelect {
		t.Fatalf("inactive entity must return to service_select, got %s", session.Step)
	}
	if session.ServiceID != "" || session.ProfessionalID != "" {
		t.Fatalf("stale selection must be cleared: %+v", session)
	}
}

func TestBackNavigation(t *testing.T) {
	c, _, _, _ := newTestController(t)
	session := startSession(t, c)
	session = mustSubmit(t, c, session.ID, Input{Phone: flowPhone})
	session = mustSubmit(t, c, session.ID, Input{Name: "Maria"})
	session = mustSubmit(t, c, session.ID, Input{ServiceID: "svc-1"})

	session, err := c.Back(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Back error: %v", err)
	}
	if session.Step != StepServiceSelect {
		t.Fatalf("expected service_select, got %s", session.Step)
	}

	session, err = c.Back(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Back error: %v", err)
	}
	if session.Step != StepClientForm {
		t.Fatalf("expected client_form, got %s", session.Step)
	}
}

func TestNoBackFromCompleted(t *testing.T) {
	c, _, _, _ := newTestController(t)
	session := startSession(t, c)
	session = mustSubmit(t, c, session.ID, Input{Phone: flowPhone})
	session = mustSubmit(t, c, session.ID, Input{Name: "Maria"})
	session = mustSubmit(t, c, session.ID, Input{ServiceID: "svc-1"})
	session = mustSubmit(t, c, session.ID, Input{ProfessionalID: "pro-1"})
	session = mustSubmit(t, c, session.ID, Input{Date: "2026-03-09", Time: "09:00"})
	session = mustSubmit(t, c, session.ID, Input{})

	if _, err := c.Back(context.Background(), session.ID); !errors.Is(err, ErrNoBackStep) {
		t.Fatalf("expected ErrNoBackStep, got %v", err)
	}
}

func TestStartOver(t *testing.T) {
	c, _, _, _ := newTestController(t)
	session := startSession(t, c)
	session = mustSubmit(t, c, session.ID, Input{Phone: flowPhone})
	session = mustSubmit(t, c, session.ID, Input{Name: "Maria"})
	session = mustSubmit(t, c, session.ID, Input{ServiceID: "svc-1"})
	session = mustSubmit(t, c, session.ID, Input{ProfessionalID: "pro-1"})
	session = mustSubmit(t, c, session.ID, Input{Date: "2026-03-09", Time: "09:00"})
	session = mustSubmit(t, c, session.ID, Input{})

	session = mustSubmit(t, c, session.ID, Input{Action: ActionStartOver})
	if session.Step != StepIdentify {
		t.Fatalf("start over must reset to identify, got %s", session.Step)
	}
	if session.ServiceID != "" || session.AppointmentID != "" {
		t.Fatalf("start over must clear selections: %+v", session)
	}
}

func TestSessionExpiry(t *testing.T) {
	c, _, _, _ := newTestController(t)
	if _, err := c.Submit(context.Background(), "gone", Input{Phone: flowPhone}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
