package dashboard

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/schedulepro/server/cmd/models"
	"github.com/schedulepro/server/cmd/utils"
	"github.com/schedulepro/server/service/session"
)

type DashboardHandler struct {
	db        *gorm.DB
	lifecycle *session.Lifecycle
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{
		db:        db,
		lifecycle: session.NewLifecycle(session.NewStore(db)),
	}
}

// RegisterRoutes registers dashboard-related routes with Gorilla Mux
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	dashboardRouter := router.PathPrefix("/dashboard").Subrouter()
	dashboardRouter.Use(utils.AuthMiddleware)
	dashboardRouter.HandleFunc("", h.GetDashboard).Methods("GET")
}

// GetDashboard returns the greeting header plus the patient's sessions split
// into upcoming and past. The split is recomputed against the clock on every
// request, so an elapsed session moves to past without any stored change.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	patientID, err := utils.GetPatientIDFromContext(r)
	if err != nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var patient models.Patient
	if err := h.db.First(&patient, patientID).Error; err != nil {
		http.Error(w, "Patient not found", http.StatusNotFound)
		return
	}

	now := time.Now()
	partition, err := h.lifecycle.PatientSessions(r.Context(), patientID, now)
	if err != nil {
		http.Error(w, "Error retrieving sessions", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"greeting":     utils.GreetingMessage(now),
		"patient_name": patient.FullName,
		"upcoming":     partition.Upcoming,
		"past":         partition.Past,
	})
}
