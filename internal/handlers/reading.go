package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/metertrack/internal/auth"
	"github.com/diewo77/metertrack/internal/httpx"
	"github.com/diewo77/metertrack/internal/models"
	"github.com/diewo77/metertrack/internal/store"
	"github.com/diewo77/metertrack/internal/validation"
)

type ReadingHandler struct {
	Store *store.Store
	Log   *zap.Logger
}

func NewReadingHandler(s *store.Store, log *zap.Logger) *ReadingHandler {
	return &ReadingHandler{Store: s, Log: log}
}

type ReadingResponse struct {
	ID          uint   `json:"id"`
	ProfileID   uint   `json:"profile_id"`
	Date        string `json:"date"`
	Previous    int64  `json:"previous"`
	Current     int64  `json:"current"`
	Consumption int64  `json:"consumption"`
}

func readingResponse(rd *models.Reading) ReadingResponse {
	return ReadingResponse{
		ID:          rd.ID,
		ProfileID:   rd.ProfileID,
		Date:        formatReadingDate(rd.Date),
		Previous:    rd.Previous,
		Current:     rd.Current,
		Consumption: rd.Consumption,
	}
}

// Create records a reading against a profile owned by the caller.
// Consumption is computed here, once, and stored.
func (h *ReadingHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var input struct {
		ProfileID *uint  `json:"profile_id"`
		Date      string `json:"date"`
		Previous  *int64 `json:"previous"`
		Current   *int64 `json:"current"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	if input.ProfileID == nil {
		v["profile_id"] = "required"
	}
	if input.Previous == nil {
		v["previous"] = "required"
	}
	if input.Current == nil {
		v["current"] = "required"
	}
	validation.Required("date", input.Date, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	validation.NonNegativeInt("previous", *input.Previous, v)
	validation.NonNegativeInt("current", *input.Current, v)
	if v.Empty() {
		validation.MinInt("current", *input.Current, *input.Previous, v)
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	date, err := parseReadingDate(input.Date)
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "invalid_date", "expected ISO-8601 date")
		return
	}

	rd := models.Reading{
		ProfileID:   *input.ProfileID,
		Date:        date,
		Previous:    *input.Previous,
		Current:     *input.Current,
		Consumption: *input.Current - *input.Previous,
	}
	err = h.Store.Tx(r.Context(), func(tx *gorm.DB) error {
		p, err := store.GetProfile(tx, *input.ProfileID)
		if err != nil {
			return err
		}
		if p == nil || p.UserID != uid {
			return errNotFound
		}
		return store.CreateReading(tx, &rd)
	})
	if err != nil {
		h.respondError(w, err, "profile_not_found")
		return
	}
	h.Log.Info("created reading", zap.Uint("id", rd.ID), zap.Uint("profile_id", rd.ProfileID),
		zap.Int64("consumption", rd.Consumption))
	httpx.JSON(w, http.StatusCreated, readingResponse(&rd))
}

// List returns every reading of one profile, identified by the profile_id
// query parameter.
func (h *ReadingHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	profileID, err := strconv.ParseUint(r.URL.Query().Get("profile_id"), 10, 32)
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "invalid_profile_id", nil)
		return
	}

	var out []ReadingResponse
	err = h.Store.Tx(r.Context(), func(tx *gorm.DB) error {
		p, err := store.GetProfile(tx, uint(profileID))
		if err != nil {
			return err
		}
		if p == nil || p.UserID != uid {
			return errNotFound
		}
		readings, err := store.ReadingsByProfile(tx, p.ID)
		if err != nil {
			return err
		}
		out = make([]ReadingResponse, 0, len(readings))
		for i := range readings {
			out = append(out, readingResponse(&readings[i]))
		}
		return nil
	})
	if err != nil {
		h.respondError(w, err, "profile_not_found")
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Delete removes one reading. A missing reading is 404; a reading behind a
// profile the caller does not own is 403.
func (h *ReadingHandler) Delete(w http.ResponseWriter, r *http.Request, id uint) {
	uid, _ := auth.UserIDFromContext(r.Context())
	err := h.Store.Tx(r.Context(), func(tx *gorm.DB) error {
		rd, err := store.GetReading(tx, id)
		if err != nil {
			return err
		}
		if rd == nil {
			return errNotFound
		}
		p, err := store.GetProfile(tx, rd.ProfileID)
		if err != nil {
			return err
		}
		if p == nil || p.UserID != uid {
			return errForbidden
		}
		return store.DeleteReading(tx, rd)
	})
	if err != nil {
		h.respondError(w, err, "reading_not_found")
		return
	}
	h.Log.Info("deleted reading", zap.Uint("id", id))
	httpx.JSONStatus(w, http.StatusOK, "Reading %d deleted", id)
}

func (h *ReadingHandler) respondError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch err {
	case errNotFound:
		httpx.JSONError(w, http.StatusNotFound, notFoundMsg, nil)
	case errForbidden:
		httpx.JSONError(w, http.StatusForbidden, "not_authorized", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
	}
}
