package session

import (
	"context"
	"sort"
	"time"

	"github.com/schedulepro/server/cmd/models"
)

// Partition holds the two dashboard views of a patient's sessions. The
// split is computed per call and never stored, so the stored status and the
// displayed classification cannot drift apart.
type Partition struct {
	Upcoming []models.SessionRecord `json:"upcoming"`
	Past     []models.SessionRecord `json:"past"`
}

// Classify splits records into the upcoming and past views for a given day.
// A record is past once it is completed or its date has elapsed, whatever
// its stored status says; a record dated today with status upcoming is
// upcoming. Comparisons are at day granularity. Upcoming is ordered
// ascending by date with the slot catalog order as tie-break; past is
// ordered ascending by date.
func Classify(records []models.SessionRecord, today time.Time) Partition {
	day := DateOnly(today)
	partition := Partition{
		Upcoming: []models.SessionRecord{},
		Past:     []models.SessionRecord{},
	}

	for _, record := range records {
		date := DateOnly(record.ScheduledDate)
		switch {
		case record.Status == models.SessionStatusCompleted || date.Before(day):
			partition.Past = append(partition.Past, record)
		case record.Status == models.SessionStatusUpcoming:
			partition.Upcoming = append(partition.Upcoming, record)
		}
	}

	sort.SliceStable(partition.Upcoming, func(i, j int) bool {
		a, b := partition.Upcoming[i], partition.Upcoming[j]
		if !a.ScheduledDate.Equal(b.ScheduledDate) {
			return a.ScheduledDate.Before(b.ScheduledDate)
		}
		return SlotIndex(a.Slot) < SlotIndex(b.Slot)
	})
	sort.SliceStable(partition.Past, func(i, j int) bool {
		return partition.Past[i].ScheduledDate.Before(partition.Past[j].ScheduledDate)
	})

	return partition
}

// Lifecycle applies the one allowed status transition and produces the
// classified view of a patient's sessions.
type Lifecycle struct {
	store Store
}

func NewLifecycle(store Store) *Lifecycle {
	return &Lifecycle{store: store}
}

// MarkCompleted sets the record's status to completed and returns the stored
// record. Marking an already completed session again is a no-op, not an
// error. The scheduled date is not checked; a future session may be
// completed early.
func (l *Lifecycle) MarkCompleted(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	if err := l.store.SetStatus(ctx, sessionID, models.SessionStatusCompleted); err != nil {
		return nil, &PersistenceError{Op: "mark completed", Err: err}
	}
	record, err := l.store.ByID(ctx, sessionID)
	if err != nil {
		return nil, &PersistenceError{Op: "reload", Err: err}
	}
	return record, nil
}

// PatientSessions loads the patient's full session list and classifies it
// against the current date.
func (l *Lifecycle) PatientSessions(ctx context.Context, patientID uint, today time.Time) (Partition, error) {
	records, err := l.store.ByPatient(ctx, patientID)
	if err != nil {
		return Partition{}, &PersistenceError{Op: "list", Err: err}
	}
	return Classify(records, today), nil
}
