package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/schedulepro/server/service/session"
)

// selectionTTL bounds how long a picked practitioner survives between the
// browse screen and the schedule screen.
const selectionTTL = 30 * time.Minute

// ErrNoSelection is returned when a patient has no practitioner selected.
var ErrNoSelection = errors.New("no practitioner selected")

// Store holds each patient's transient practitioner selection. The slot is
// overwritten on every new selection and cleared once a booking lands; it is
// never persisted server-side beyond its TTL.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func selectionKey(patientID uint) string {
	return fmt.Sprintf("selection:%d", patientID)
}

// Save overwrites the patient's current selection.
func (s *Store) Save(ctx context.Context, patientID uint, snapshot session.PractitionerSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, selectionKey(patientID), payload, selectionTTL).Err()
}

// Get returns the stored selection, or ErrNoSelection when the slot is
// empty or expired.
func (s *Store) Get(ctx context.Context, patientID uint) (session.PractitionerSnapshot, error) {
	var snapshot session.PractitionerSnapshot

	payload, err := s.client.Get(ctx, selectionKey(patientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return snapshot, ErrNoSelection
	}
	if err != nil {
		return snapshot, err
	}

	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return snapshot, err
	}
	return snapshot, nil
}

// Clear drops the selection. Clearing an empty slot is not an error.
func (s *Store) Clear(ctx context.Context, patientID uint) error {
	return s.client.Del(ctx, selectionKey(patientID)).Err()
}
