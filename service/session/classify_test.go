package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedulepro/server/cmd/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func record(id string, date time.Time, slot, status string) models.SessionRecord {
	return models.SessionRecord{
		ID:            id,
		PatientID:     7,
		ScheduledDate: date,
		Slot:          slot,
		Status:        status,
	}
}

func TestClassifyPartitionsAreDisjoint(t *testing.T) {
	today := day(2025, time.August, 1)
	records := []models.SessionRecord{
		record("a", day(2025, time.July, 20), "9:00 AM", models.SessionStatusUpcoming),
		record("b", day(2025, time.August, 1), "2:00 PM", models.SessionStatusUpcoming),
		record("c", day(2025, time.August, 5), "10:00 AM", models.SessionStatusCompleted),
		record("d", day(2025, time.August, 9), "4:00 PM", models.SessionStatusUpcoming),
	}

	partition := Classify(records, today)

	assert.Len(t, partition.Upcoming, 2)
	assert.Len(t, partition.Past, 2)
	seen := make(map[string]bool)
	for _, r := range partition.Upcoming {
		seen[r.ID] = true
	}
	for _, r := range partition.Past {
		assert.Falsef(t, seen[r.ID], "record %s appears in both views", r.ID)
	}
}

func TestClassifySessionDatedTodayIsUpcoming(t *testing.T) {
	today := time.Date(2025, time.August, 1, 23, 45, 0, 0, time.UTC)
	records := []models.SessionRecord{
		record("today", day(2025, time.August, 1), "10:00 PM", models.SessionStatusUpcoming),
	}

	partition := Classify(records, today)

	require.Len(t, partition.Upcoming, 1)
	assert.Empty(t, partition.Past)
	assert.Equal(t, "today", partition.Upcoming[0].ID)
}

func TestClassifyCompletedFutureSessionIsPast(t *testing.T) {
	// Completed wins over the date: a session finished early still leaves
	// the upcoming view.
	today := day(2025, time.August, 1)
	records := []models.SessionRecord{
		record("early", day(2025, time.August, 10), "10:00 AM", models.SessionStatusCompleted),
	}

	partition := Classify(records, today)

	assert.Empty(t, partition.Upcoming)
	require.Len(t, partition.Past, 1)
	assert.Equal(t, "early", partition.Past[0].ID)
}

func TestClassifyElapsedUpcomingSessionIsPast(t *testing.T) {
	// A session nobody marked completed still ages out of the upcoming view
	// once its date passes.
	today := day(2025, time.August, 1)
	records := []models.SessionRecord{
		record("stale", day(2025, time.January, 1), "9:00 AM", models.SessionStatusUpcoming),
	}

	partition := Classify(records, today)

	assert.Empty(t, partition.Upcoming)
	require.Len(t, partition.Past, 1)
	assert.Equal(t, "stale", partition.Past[0].ID)
}

func TestClassifyOrdering(t *testing.T) {
	today := day(2025, time.August, 1)
	records := []models.SessionRecord{
		record("u3", day(2025, time.August, 9), "8:00 AM", models.SessionStatusUpcoming),
		record("u2", day(2025, time.August, 5), "6:00 PM", models.SessionStatusUpcoming),
		record("u1", day(2025, time.August, 5), "9:00 AM", models.SessionStatusUpcoming),
		record("p2", day(2025, time.July, 10), "1:00 PM", models.SessionStatusCompleted),
		record("p1", day(2025, time.June, 2), "4:00 PM", models.SessionStatusCompleted),
	}

	partition := Classify(records, today)

	require.Len(t, partition.Upcoming, 3)
	assert.Equal(t, "u1", partition.Upcoming[0].ID)
	assert.Equal(t, "u2", partition.Upcoming[1].ID)
	assert.Equal(t, "u3", partition.Upcoming[2].ID)

	require.Len(t, partition.Past, 2)
	assert.Equal(t, "p1", partition.Past[0].ID)
	assert.Equal(t, "p2", partition.Past[1].ID)
}

func TestClassifyUnknownSlotSortsLast(t *testing.T) {
	today := day(2025, time.August, 1)
	date := day(2025, time.August, 5)
	records := []models.SessionRecord{
		record("custom", date, "7:30 AM", models.SessionStatusUpcoming),
		record("catalog", date, "11:00 PM", models.SessionStatusUpcoming),
	}

	partition := Classify(records, today)

	require.Len(t, partition.Upcoming, 2)
	assert.Equal(t, "catalog", partition.Upcoming[0].ID)
	assert.Equal(t, "custom", partition.Upcoming[1].ID)
}

func TestMarkCompletedIsIdempotent(t *testing.T) {
	store := newSpyStore()
	scheduler := newTestScheduler(store)
	lifecycle := NewLifecycle(store)

	booked, err := scheduler.SubmitBooking(context.Background(), testPatient, testPractitioner, validDraft())
	require.NoError(t, err)

	first, err := lifecycle.MarkCompleted(context.Background(), booked.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, first.Status)

	second, err := lifecycle.MarkCompleted(context.Background(), booked.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, second.Status)
	assert.Equal(t, first.ID, second.ID)
}

func TestMarkCompletedUnknownSession(t *testing.T) {
	lifecycle := NewLifecycle(newSpyStore())

	_, err := lifecycle.MarkCompleted(context.Background(), "missing")

	var persistenceErr *PersistenceError
	require.ErrorAs(t, err, &persistenceErr)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBookThenCompleteMovesSessionToPast(t *testing.T) {
	store := newSpyStore()
	scheduler := newTestScheduler(store)
	lifecycle := NewLifecycle(store)
	today := day(2025, time.August, 1)

	draft := validDraft()
	booked, err := scheduler.SubmitBooking(context.Background(), testPatient, testPractitioner, draft)
	require.NoError(t, err)

	partition, err := lifecycle.PatientSessions(context.Background(), testPatient.ID, today)
	require.NoError(t, err)
	require.Len(t, partition.Upcoming, 1)
	assert.Equal(t, booked.ID, partition.Upcoming[0].ID)
	assert.Empty(t, partition.Past)

	_, err = lifecycle.MarkCompleted(context.Background(), booked.ID)
	require.NoError(t, err)

	partition, err = lifecycle.PatientSessions(context.Background(), testPatient.ID, today)
	require.NoError(t, err)
	assert.Empty(t, partition.Upcoming)
	require.Len(t, partition.Past, 1)
	assert.Equal(t, booked.ID, partition.Past[0].ID)
}
