package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/metertrack/internal/httpx"
	"github.com/diewo77/metertrack/internal/models"
)

// DiagHandler serves the unauthenticated diagnostics endpoints.
type DiagHandler struct {
	DB *gorm.DB
}

func NewDiagHandler(db *gorm.DB) *DiagHandler { return &DiagHandler{DB: db} }

// TestDB verifies connectivity by fetching at most one profile row.
func (h *DiagHandler) TestDB(w http.ResponseWriter, r *http.Request) {
	var profiles []models.Profile
	if err := h.DB.WithContext(r.Context()).Limit(1).Find(&profiles).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "connected", "data": profiles})
}

// Schema lists the domain tables known to the database.
func (h *DiagHandler) Schema(w http.ResponseWriter, r *http.Request) {
	tables, err := h.DB.WithContext(r.Context()).Migrator().GetTables()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	type tableInfo struct {
		Name string `json:"name"`
	}
	out := []tableInfo{}
	for _, t := range tables {
		if t == "profile" || t == "reading" {
			out = append(out, tableInfo{Name: t})
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tables": out})
}
