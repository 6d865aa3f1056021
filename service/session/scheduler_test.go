package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/schedulepro/server/cmd/models"
)

var (
	testPatient      = PatientIdentity{ID: 7, Name: "Anita Rao"}
	testPractitioner = PractitionerSnapshot{
		Name:      "Dr. Asha Mehta",
		Phone:     "9876543210",
		PhotoPath: "/images/asha-mehta.png",
	}
)

func validDraft() BookingDraft {
	return BookingDraft{
		SessionType:   "Counselling",
		ScheduledDate: time.Date(2025, time.August, 10, 0, 0, 0, 0, time.UTC),
		Slot:          "10:00 AM",
		Mode:          models.SessionModeOffline,
	}
}

func newTestScheduler(store Store) *Scheduler {
	s := NewScheduler(store)
	base := time.Date(2025, time.August, 1, 9, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	return s
}

func TestSubmitBookingPersistsUpcomingRecord(t *testing.T) {
	store := newSpyStore()
	scheduler := newTestScheduler(store)

	record, err := scheduler.SubmitBooking(context.Background(), testPatient, testPractitioner, validDraft())
	if err != nil {
		t.Fatalf("SubmitBooking returned error: %v", err)
	}

	if record.Status != models.SessionStatusUpcoming {
		t.Errorf("status = %q, want %q", record.Status, models.SessionStatusUpcoming)
	}
	if record.ID == "" {
		t.Error("expected a generated session id")
	}
	if record.PractitionerName != testPractitioner.Name || record.PractitionerContact != testPractitioner.Phone {
		t.Errorf("practitioner snapshot not copied: %+v", record)
	}
	if store.creates != 1 {
		t.Errorf("store writes = %d, want 1", store.creates)
	}
}

func TestSubmitBookingGeneratesUniqueIDs(t *testing.T) {
	store := newSpyStore()
	scheduler := newTestScheduler(store)

	seen := make(map[string]bool)
	slots := []string{"8:00 AM", "9:00 AM", "10:00 AM", "11:00 AM"}
	for _, slot := range slots {
		draft := validDraft()
		draft.Slot = slot
		record, err := scheduler.SubmitBooking(context.Background(), testPatient, testPractitioner, draft)
		if err != nil {
			t.Fatalf("SubmitBooking(%s) returned error: %v", slot, err)
		}
		if seen[record.ID] {
			t.Fatalf("duplicate session id %q", record.ID)
		}
		seen[record.ID] = true
	}
}

func TestSubmitBookingMissingFieldsWritesNothing(t *testing.T) {
	store := newSpyStore()
	scheduler := newTestScheduler(store)

	draft := validDraft()
	draft.ScheduledDate = time.Time{}
	draft.Slot = ""

	_, err := scheduler.SubmitBooking(context.Background(), testPatient, testPractitioner, draft)

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	wantFields := map[string]bool{"scheduled_date": true, "slot": true}
	for _, field := range validationErr.Fields {
		if !wantFields[field] {
			t.Errorf("unexpected field %q in %v", field, validationErr.Fields)
		}
		delete(wantFields, field)
	}
	if len(wantFields) != 0 {
		t.Errorf("fields not reported: %v", wantFields)
	}
	if store.creates != 0 || store.lookups != 0 {
		t.Errorf("store touched on validation failure: creates=%d lookups=%d", store.creates, store.lookups)
	}
}

func TestSubmitBookingOnlineRequiresMeetingRef(t *testing.T) {
	store := newSpyStore()
	scheduler := newTestScheduler(store)

	draft := validDraft()
	draft.Mode = models.SessionModeOnline
	draft.OnlineMeetingRef = ""

	_, err := scheduler.SubmitBooking(context.Background(), testPatient, testPractitioner, draft)

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if store.creates != 0 {
		t.Errorf("store writes = %d, want 0", store.creates)
	}

	draft.OnlineMeetingRef = "https://meet.example.com/abc"
	record, err := scheduler.SubmitBooking(context.Background(), testPatient, testPractitioner, draft)
	if err != nil {
		t.Fatalf("SubmitBooking with meeting ref returned error: %v", err)
	}
	if record.OnlineMeetingRef != draft.OnlineMeetingRef {
		t.Errorf("online meeting ref = %q, want %q", record.OnlineMeetingRef, draft.OnlineMeetingRef)
	}
}

func TestSubmitBookingRetryReturnsExistingRecord(t *testing.T) {
	store := newSpyStore()
	scheduler := newTestScheduler(store)

	first, err := scheduler.SubmitBooking(context.Background(), testPatient, testPractitioner, validDraft())
	if err != nil {
		t.Fatalf("first SubmitBooking returned error: %v", err)
	}

	// Same patient, date and slot again, as after an ambiguous failure.
	second, err := scheduler.SubmitBooking(context.Background(), testPatient, testPractitioner, validDraft())
	if err != nil {
		t.Fatalf("retry SubmitBooking returned error: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("retry created a new record: %q vs %q", second.ID, first.ID)
	}
	if store.creates != 1 {
		t.Errorf("store writes = %d, want 1", store.creates)
	}
}

func TestSubmitBookingWithoutIdentity(t *testing.T) {
	store := newSpyStore()
	scheduler := newTestScheduler(store)

	_, err := scheduler.SubmitBooking(context.Background(), PatientIdentity{}, testPractitioner, validDraft())
	if !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
}

func TestSubmitBookingStoreFailure(t *testing.T) {
	store := newSpyStore()
	store.failCreate = errors.New("connection refused")
	scheduler := newTestScheduler(store)

	_, err := scheduler.SubmitBooking(context.Background(), testPatient, testPractitioner, validDraft())

	var persistenceErr *PersistenceError
	if !errors.As(err, &persistenceErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		t.Error("store failure must not surface as ValidationError")
	}
}

// spyStore is an in-memory Store that records every interaction.
type spyStore struct {
	records     map[string]models.SessionRecord
	creates     int
	lookups     int
	statusCalls []string
	failCreate  error
	failRead    error
}

func newSpyStore() *spyStore {
	return &spyStore{records: make(map[string]models.SessionRecord)}
}

func (s *spyStore) Create(ctx context.Context, record *models.SessionRecord) error {
	if s.failCreate != nil {
		return s.failCreate
	}
	s.creates++
	s.records[record.ID] = *record
	return nil
}

func (s *spyStore) ByID(ctx context.Context, id string) (*models.SessionRecord, error) {
	if s.failRead != nil {
		return nil, s.failRead
	}
	record, ok := s.records[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &record, nil
}

func (s *spyStore) ByBookingKey(ctx context.Context, key string) (*models.SessionRecord, error) {
	s.lookups++
	if s.failRead != nil {
		return nil, s.failRead
	}
	for _, record := range s.records {
		if record.BookingKey == key {
			r := record
			return &r, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (s *spyStore) ByPatient(ctx context.Context, patientID uint) ([]models.SessionRecord, error) {
	if s.failRead != nil {
		return nil, s.failRead
	}
	var records []models.SessionRecord
	for _, record := range s.records {
		if record.PatientID == patientID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (s *spyStore) SetStatus(ctx context.Context, id string, status string) error {
	s.statusCalls = append(s.statusCalls, id+":"+status)
	record, ok := s.records[id]
	if !ok {
		return ErrSessionNotFound
	}
	record.Status = status
	s.records[id] = record
	return nil
}
