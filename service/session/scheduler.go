package session

import (
	"context"
	"errors"
	"time"

	"github.com/schedulepro/server/cmd/models"
)

// Scheduler gates booking submission and persists each accepted booking
// exactly once.
type Scheduler struct {
	store Store
	now   func() time.Time
}

func NewScheduler(store Store) *Scheduler {
	return &Scheduler{store: store, now: time.Now}
}

// SubmitBooking validates the draft and persists the resulting record. A
// draft failing validation is rejected with a ValidationError before any
// store access. A draft whose booking key is already persisted returns the
// existing record, so a retry after an ambiguous failure cannot create a
// duplicate.
func (s *Scheduler) SubmitBooking(ctx context.Context, patient PatientIdentity, practitioner PractitionerSnapshot, draft BookingDraft) (*models.SessionRecord, error) {
	if patient.ID == 0 {
		return nil, ErrAuthenticationRequired
	}

	var missing []string
	if patient.Name == "" {
		missing = append(missing, "patient")
	}
	if practitioner.Name == "" {
		missing = append(missing, "practitioner")
	}
	if draft.ScheduledDate.IsZero() {
		missing = append(missing, "scheduled_date")
	}
	if draft.Slot == "" {
		missing = append(missing, "slot")
	}
	if draft.Mode != models.SessionModeOnline && draft.Mode != models.SessionModeOffline {
		missing = append(missing, "mode")
	}
	if draft.Mode == models.SessionModeOnline && draft.OnlineMeetingRef == "" {
		missing = append(missing, "online_meeting_ref")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	existing, err := s.store.ByBookingKey(ctx, BookingKey(patient.ID, draft.ScheduledDate, draft.Slot))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, &PersistenceError{Op: "lookup", Err: err}
	}

	record := BuildSessionRecord(patient, practitioner, draft, s.now())
	if err := s.store.Create(ctx, &record); err != nil {
		return nil, &PersistenceError{Op: "create", Err: err}
	}
	return &record, nil
}
