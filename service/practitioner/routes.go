package practitioner

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/schedulepro/server/cmd/models"
	"github.com/schedulepro/server/cmd/utils"
)

type PractitionerHandler struct {
	db *gorm.DB
}

func NewPractitionerHandler(db *gorm.DB) *PractitionerHandler {
	return &PractitionerHandler{db: db}
}

func (h *PractitionerHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/practitioners", h.GetPractitioners).Methods("GET")
	router.HandleFunc("/practitioners/{id}", h.GetPractitioner).Methods("GET")
	router.HandleFunc("/practitioners/{id}/photo", h.UploadPhoto).Methods("POST")
	router.HandleFunc("/images/{filename}", h.ServeImage).Methods("GET")
}

// GetPractitioners lists the bookable practitioners for the browse screen,
// filterable by expertise and session mode.
func (h *PractitionerHandler) GetPractitioners(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize := 20

	query := h.db.Model(&models.Practitioner{})

	// Apply filters
	if expertise := r.URL.Query().Get("expertise"); expertise != "" {
		query = query.Where("? = ANY(expertise)", expertise)
	}
	if mode := r.URL.Query().Get("session_mode"); mode != "" {
		query = query.Where("session_mode = ? OR session_mode = ?", mode, "Online & Offline")
	}
	if search := r.URL.Query().Get("search"); search != "" {
		query = query.Where("full_name ILIKE ?", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	var practitioners []models.Practitioner
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).
		Order("full_name ASC").Find(&practitioners).Error; err != nil {
		http.Error(w, "Error retrieving practitioners", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"practitioners": practitioners,
		"total":         total,
		"page":          page,
		"page_size":     pageSize,
		"total_pages":   (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetPractitioner retrieves a specific practitioner by ID
func (h *PractitionerHandler) GetPractitioner(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	practitionerID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid practitioner ID", http.StatusBadRequest)
		return
	}

	var practitioner models.Practitioner
	if err := h.db.First(&practitioner, practitionerID).Error; err != nil {
		http.Error(w, "Practitioner not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(practitioner)
}

// UploadPhoto stores a practitioner's profile photo and records its path.
func (h *PractitionerHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	practitionerID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid practitioner ID", http.StatusBadRequest)
		return
	}

	var practitioner models.Practitioner
	if err := h.db.First(&practitioner, practitionerID).Error; err != nil {
		http.Error(w, "Practitioner not found", http.StatusNotFound)
		return
	}

	if err := r.ParseMultipartForm(utils.MaxImageSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		http.Error(w, "Photo file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	photoPath, err := utils.SaveImage(file, header)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if practitioner.PhotoPath != "" {
		utils.DeleteImage(practitioner.PhotoPath)
	}

	practitioner.PhotoPath = photoPath
	if err := h.db.Save(&practitioner).Error; err != nil {
		http.Error(w, "Error updating practitioner", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(practitioner)
}

func (h *PractitionerHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	filename := vars["filename"]

	// Basic security check for directory traversal
	if containsDotDot(filename) {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	imagePath := filepath.Join(utils.ImagePath, filepath.Clean(filename))

	if _, err := os.Stat(imagePath); os.IsNotExist(err) {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Type", getContentType(imagePath))

	http.ServeFile(w, r, imagePath)
}

func containsDotDot(v string) bool {
	if !filepath.IsAbs(v) {
		v = filepath.Clean(filepath.Join("/", v))
	}
	return filepath.Clean(v) != v
}

// Helper function to determine content type
func getContentType(filename string) string {
	ext := filepath.Ext(filename)
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
