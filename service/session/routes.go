package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/schedulepro/server/cmd/models"
	"github.com/schedulepro/server/cmd/utils"
)

// SelectionSource yields the practitioner snapshot a patient picked on the
// browse screen. The handoff store satisfies this.
type SelectionSource interface {
	Get(ctx context.Context, patientID uint) (PractitionerSnapshot, error)
	Clear(ctx context.Context, patientID uint) error
}

type Handler struct {
	db         *gorm.DB
	scheduler  *Scheduler
	lifecycle  *Lifecycle
	selections SelectionSource
}

func NewHandler(db *gorm.DB, selections SelectionSource) *Handler {
	store := NewStore(db)
	return &Handler{
		db:         db,
		scheduler:  NewScheduler(store),
		lifecycle:  NewLifecycle(store),
		selections: selections,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/sessions/slots", h.GetSlotCatalog).Methods("GET")

	sessionRouter := router.PathPrefix("/sessions").Subrouter()
	sessionRouter.Use(utils.AuthMiddleware)
	sessionRouter.HandleFunc("/book", h.BookSession).Methods("POST")
	sessionRouter.HandleFunc("/patient/{patientId}", h.GetPatientSessions).Methods("GET")
	sessionRouter.HandleFunc("/{id}", h.GetSession).Methods("GET")
	sessionRouter.HandleFunc("/{id}/complete", h.MarkSessionCompleted).Methods("PATCH")
}

// GetSlotCatalog returns the fixed time-slot catalog shown on the schedule
// screen.
func (h *Handler) GetSlotCatalog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"slot_groups": SlotCatalog,
	})
}

func (h *Handler) BookSession(w http.ResponseWriter, r *http.Request) {
	patientID, err := utils.GetPatientIDFromContext(r)
	if err != nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var bookingRequest struct {
		PractitionerID   uint   `json:"practitioner_id"`
		SessionType      string `json:"session_type"`
		ScheduledDate    string `json:"scheduled_date"`
		Slot             string `json:"slot"`
		Mode             string `json:"mode"`
		OnlineMeetingRef string `json:"online_meeting_ref"`
		Notes            string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&bookingRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var patient models.Patient
	if err := h.db.First(&patient, patientID).Error; err != nil {
		http.Error(w, "Patient not found", http.StatusUnauthorized)
		return
	}

	practitioner := h.resolvePractitioner(r.Context(), patientID, bookingRequest.PractitionerID)

	var scheduledDate time.Time
	if bookingRequest.ScheduledDate != "" {
		scheduledDate, err = time.Parse("2006-01-02", bookingRequest.ScheduledDate)
		if err != nil {
			http.Error(w, "Invalid date format. Use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	sessionType := bookingRequest.SessionType
	if sessionType == "" {
		sessionType = "Counselling"
	}

	record, err := h.scheduler.SubmitBooking(r.Context(),
		PatientIdentity{ID: patientID, Name: patient.FullName},
		practitioner,
		BookingDraft{
			SessionType:      sessionType,
			ScheduledDate:    scheduledDate,
			Slot:             bookingRequest.Slot,
			Mode:             bookingRequest.Mode,
			OnlineMeetingRef: bookingRequest.OnlineMeetingRef,
			Notes:            bookingRequest.Notes,
		})
	if err != nil {
		writeSessionError(w, err)
		return
	}

	// The selection slot has served its purpose once the booking lands.
	// A failed clear is harmless; stale selections expire on their own.
	if h.selections != nil {
		_ = h.selections.Clear(r.Context(), patientID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

// resolvePractitioner builds the snapshot from an explicit practitioner id,
// falling back to the patient's transient selection. An empty snapshot is
// returned when neither yields one; the scheduler rejects it.
func (h *Handler) resolvePractitioner(ctx context.Context, patientID uint, practitionerID uint) PractitionerSnapshot {
	if practitionerID != 0 {
		var practitioner models.Practitioner
		if err := h.db.First(&practitioner, practitionerID).Error; err == nil {
			return PractitionerSnapshot{
				Name:      practitioner.FullName,
				Phone:     practitioner.Phone,
				PhotoPath: practitioner.PhotoPath,
			}
		}
		return PractitionerSnapshot{}
	}

	if h.selections != nil {
		if snapshot, err := h.selections.Get(ctx, patientID); err == nil {
			return snapshot
		}
	}
	return PractitionerSnapshot{}
}

// GetPatientSessions returns the classified upcoming/past partitions for a
// patient. The split is recomputed against the current date on every call.
func (h *Handler) GetPatientSessions(w http.ResponseWriter, r *http.Request) {
	patientID, err := utils.GetPatientIDFromContext(r)
	if err != nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	requestedID, err := strconv.ParseUint(vars["patientId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid patient ID", http.StatusBadRequest)
		return
	}
	if uint(requestedID) != patientID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	partition, err := h.lifecycle.PatientSessions(r.Context(), patientID, time.Now())
	if err != nil {
		writeSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"upcoming": partition.Upcoming,
		"past":     partition.Past,
		"total":    len(partition.Upcoming) + len(partition.Past),
	})
}

// GetSession retrieves a specific session by ID
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	patientID, err := utils.GetPatientIDFromContext(r)
	if err != nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	var record models.SessionRecord
	if err := h.db.First(&record, "id = ?", vars["id"]).Error; err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if record.PatientID != patientID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

// MarkSessionCompleted applies the one allowed status transition. Repeating
// the call for an already completed session succeeds with the same state.
func (h *Handler) MarkSessionCompleted(w http.ResponseWriter, r *http.Request) {
	patientID, err := utils.GetPatientIDFromContext(r)
	if err != nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	sessionID := vars["id"]

	var record models.SessionRecord
	if err := h.db.First(&record, "id = ?", sessionID).Error; err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if record.PatientID != patientID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	updated, err := h.lifecycle.MarkCompleted(r.Context(), sessionID)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// writeSessionError maps the core error taxonomy onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	var persistenceErr *PersistenceError

	switch {
	case errors.As(err, &validationErr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
	case errors.Is(err, ErrAuthenticationRequired):
		http.Error(w, "Authentication required", http.StatusUnauthorized)
	case errors.As(err, &persistenceErr):
		if errors.Is(persistenceErr.Err, ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Temporary storage error, please retry", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
