package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/models"
)

// ReminderClient pushes appointment events to the reminder webhook so the
// messaging side can schedule confirmations and day-before reminders. A nil
// client is valid and drops every event, which is how unconfigured
// environments run.
type ReminderClient struct {
	webhookURL string
	apiKey     string
	httpClient *http.Client
}

func NewReminderClient(webhookURL, apiKey string) *ReminderClient {
	if strings.TrimSpace(webhookURL) == "" {
		return nil
	}
	return &ReminderClient{
		webhookURL: webhookURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 8 * time.Second},
	}
}

type reminderEvent struct {
	Event          string `json:"event"`
	AppointmentID  string `json:"appointmentId"`
	BusinessID     string `json:"businessId,omitempty"`
	ClientID       string `json:"clientId,omitempty"`
	ProfessionalID string `json:"professionalId,omitempty"`
	ServiceID      string `json:"serviceId,omitempty"`
	Date           string `json:"date,omitempty"`
	Time           string `json:"time,omitempty"`
	Duration       int    `json:"duration,omitempty"`
}

func (c *ReminderClient) ReservationConfirmed(ctx context.Context, appt models.Appointment) error {
	if c == nil {
		return nil
	}
	return c.post(ctx, reminderEvent{
		Event:          "appointment.scheduled",
		AppointmentID:  appt.ID,
		BusinessID:     appt.BusinessID,
		ClientID:       appt.ClientID,
		ProfessionalID: appt.ProfessionalID,
		ServiceID:      appt.ServiceID,
		Date:           appt.Date,
		Time:           appt.Time,
		Duration:       appt.Duration,
	})
}

func (c *ReminderClient) ReservationCanceled(ctx context.Context, appointmentID string) error {
	if c == nil {
		return nil
	}
	return c.post(ctx, reminderEvent{
		Event:         "appointment.canceled",
		AppointmentID: appointmentID,
	})
}

func (c *ReminderClient) post(ctx context.Context, event reminderEvent) error {
	if event.AppointmentID == "" {
		return errors.New("missing appointment id")
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("reminder marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("reminder create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reminder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("reminder webhook failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
