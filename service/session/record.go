package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schedulepro/server/cmd/models"
)

// PatientIdentity is the minimal patient context a booking needs: the stable
// id the auth layer assigned plus the display name snapshotted onto the
// record.
type PatientIdentity struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// PractitionerSnapshot is the practitioner data copied onto a session record
// at booking time. It is deliberately never re-synced afterwards.
type PractitionerSnapshot struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	PhotoPath string `json:"photo_path"`
}

// BookingDraft carries the selections made on the schedule screen.
type BookingDraft struct {
	SessionType      string
	ScheduledDate    time.Time
	Slot             string
	Mode             string
	OnlineMeetingRef string
	Notes            string
}

// BuildSessionRecord constructs a fully populated record with a fresh id,
// status upcoming and createdAt set to the given server clock. Pure
// construction; the caller persists the result.
func BuildSessionRecord(patient PatientIdentity, practitioner PractitionerSnapshot, draft BookingDraft, now time.Time) models.SessionRecord {
	return models.SessionRecord{
		ID:                  newSessionID(now),
		PatientID:           patient.ID,
		PatientDisplayName:  patient.Name,
		PractitionerName:    practitioner.Name,
		PractitionerContact: practitioner.Phone,
		PractitionerPhoto:   practitioner.PhotoPath,
		SessionType:         draft.SessionType,
		ScheduledDate:       DateOnly(draft.ScheduledDate),
		Slot:                draft.Slot,
		Mode:                draft.Mode,
		OnlineMeetingRef:    draft.OnlineMeetingRef,
		Notes:               draft.Notes,
		Status:              models.SessionStatusUpcoming,
		BookingKey:          BookingKey(patient.ID, draft.ScheduledDate, draft.Slot),
		CreatedAt:           now,
	}
}

// newSessionID keeps the creation-timestamp prefix so ids sort roughly by
// booking time, with a random suffix so rapid double submissions cannot
// collide.
func newSessionID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.New().String()[:8])
}

// BookingKey is the deterministic idempotency key for a booking. The same
// patient, date and slot always map to the same key, so a retry after an
// ambiguous failure finds the record the first attempt saved instead of
// creating a duplicate.
func BookingKey(patientID uint, date time.Time, slot string) string {
	return fmt.Sprintf("%d:%s:%s", patientID, DateOnly(date).Format("2006-01-02"), slot)
}

// DateOnly truncates a timestamp to its calendar date in UTC. All scheduling
// comparisons happen at day granularity.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
