package handoff

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/schedulepro/server/cmd/models"
	"github.com/schedulepro/server/cmd/utils"
	"github.com/schedulepro/server/service/session"
)

type Handler struct {
	db    *gorm.DB
	store *Store
}

func NewHandler(db *gorm.DB, store *Store) *Handler {
	return &Handler{db: db, store: store}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	selectionRouter := router.PathPrefix("/selection").Subrouter()
	selectionRouter.Use(utils.AuthMiddleware)
	selectionRouter.HandleFunc("", h.SaveSelection).Methods("PUT")
	selectionRouter.HandleFunc("", h.GetSelection).Methods("GET")
	selectionRouter.HandleFunc("", h.ClearSelection).Methods("DELETE")
}

// SaveSelection snapshots the chosen practitioner into the patient's
// transient slot, replacing any previous choice.
func (h *Handler) SaveSelection(w http.ResponseWriter, r *http.Request) {
	patientID, err := utils.GetPatientIDFromContext(r)
	if err != nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var selectionRequest struct {
		PractitionerID uint `json:"practitioner_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&selectionRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var practitioner models.Practitioner
	if err := h.db.First(&practitioner, selectionRequest.PractitionerID).Error; err != nil {
		http.Error(w, "Practitioner not found", http.StatusNotFound)
		return
	}

	snapshot := session.PractitionerSnapshot{
		Name:      practitioner.FullName,
		Phone:     practitioner.Phone,
		PhotoPath: practitioner.PhotoPath,
	}
	if err := h.store.Save(r.Context(), patientID, snapshot); err != nil {
		http.Error(w, "Error saving selection", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	patientID, err := utils.GetPatientIDFromContext(r)
	if err != nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	snapshot, err := h.store.Get(r.Context(), patientID)
	if errors.Is(err, ErrNoSelection) {
		http.Error(w, "No practitioner selected", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Error reading selection", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	patientID, err := utils.GetPatientIDFromContext(r)
	if err != nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.store.Clear(r.Context(), patientID); err != nil {
		http.Error(w, "Error clearing selection", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Selection cleared successfully",
	})
}
