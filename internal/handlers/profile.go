package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/metertrack/internal/auth"
	"github.com/diewo77/metertrack/internal/httpx"
	"github.com/diewo77/metertrack/internal/models"
	"github.com/diewo77/metertrack/internal/store"
	"github.com/diewo77/metertrack/internal/validation"
)

type ProfileHandler struct {
	Store *store.Store
	Log   *zap.Logger
}

func NewProfileHandler(s *store.Store, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{Store: s, Log: log}
}

// ProfileResponse decorates a profile with fields derived from its most
// recent reading (primary-key order).
type ProfileResponse struct {
	ID              uint    `json:"id"`
	UserID          string  `json:"user_id"`
	TenantName      string  `json:"tenant_name"`
	MeterNumber     string  `json:"meter_number"`
	LastConsumption *int64  `json:"last_consumption"`
	LastReadingDate *string `json:"last_reading_date"`
	InitialReading  *int64  `json:"initial_reading"`
}

func profileResponse(tx *gorm.DB, p *models.Profile) (ProfileResponse, error) {
	resp := ProfileResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		TenantName:     p.TenantName,
		MeterNumber:    p.MeterNumber,
		InitialReading: p.InitialReading,
	}
	latest, err := store.LatestReading(tx, p.ID)
	if err != nil {
		return resp, err
	}
	if latest != nil {
		resp.LastConsumption = &latest.Consumption
		date := formatReadingDate(latest.Date)
		resp.LastReadingDate = &date
	}
	return resp, nil
}

// Create registers a new profile owned by the caller.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var input struct {
		TenantName  string `json:"tenant_name"`
		MeterNumber string `json:"meter_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("tenant_name", input.TenantName, v)
	validation.Required("meter_number", input.MeterNumber, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	p := models.Profile{UserID: uid, TenantName: input.TenantName, MeterNumber: input.MeterNumber}
	err := h.Store.Tx(r.Context(), func(tx *gorm.DB) error {
		return store.CreateProfile(tx, &p)
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	h.Log.Info("created profile", zap.Uint("id", p.ID), zap.String("user_id", uid))
	httpx.JSON(w, http.StatusCreated, ProfileResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		TenantName:  p.TenantName,
		MeterNumber: p.MeterNumber,
	})
}

// List returns the caller's profiles with last-reading summaries.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var out []ProfileResponse
	err := h.Store.Tx(r.Context(), func(tx *gorm.DB) error {
		profiles, err := store.ProfilesByUser(tx, uid)
		if err != nil {
			return err
		}
		out = make([]ProfileResponse, 0, len(profiles))
		for i := range profiles {
			resp, err := profileResponse(tx, &profiles[i])
			if err != nil {
				return err
			}
			out = append(out, resp)
		}
		return nil
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Get returns one profile. Non-owners get the same 404 as a missing row so
// existence is not revealed.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request, id uint) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var out ProfileResponse
	err := h.Store.Tx(r.Context(), func(tx *gorm.DB) error {
		p, err := store.GetProfile(tx, id)
		if err != nil {
			return err
		}
		if p == nil || p.UserID != uid {
			return errNotFound
		}
		out, err = profileResponse(tx, p)
		return err
	})
	if err != nil {
		h.respondError(w, err, "profile_not_found")
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// UpdateInitialReading sets the profile's initial reading. Last write wins;
// no history is kept.
func (h *ProfileHandler) UpdateInitialReading(w http.ResponseWriter, r *http.Request, id uint) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var input struct {
		InitialReading *int64 `json:"initial_reading"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.InitialReading == nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "invalid_initial_reading", nil)
		return
	}
	v := validation.Violations{}
	validation.NonNegativeInt("initial_reading", *input.InitialReading, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	var out ProfileResponse
	err := h.Store.Tx(r.Context(), func(tx *gorm.DB) error {
		p, err := store.GetProfile(tx, id)
		if err != nil {
			return err
		}
		if p == nil || p.UserID != uid {
			return errNotFound
		}
		if err := store.UpdateInitialReading(tx, p, *input.InitialReading); err != nil {
			return err
		}
		out, err = profileResponse(tx, p)
		return err
	})
	if err != nil {
		h.respondError(w, err, "profile_not_found")
		return
	}
	h.Log.Info("updated initial reading", zap.Uint("id", id), zap.Int64("initial_reading", *input.InitialReading))
	httpx.JSON(w, http.StatusOK, out)
}

// Delete removes a profile and all of its readings. Missing rows are 404;
// rows owned by someone else are 403 (existence is already implied by the
// lookup in this flow).
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request, id uint) {
	uid, _ := auth.UserIDFromContext(r.Context())
	err := h.Store.Tx(r.Context(), func(tx *gorm.DB) error {
		p, err := store.GetProfile(tx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return errNotFound
		}
		if p.UserID != uid {
			return errForbidden
		}
		return store.DeleteProfile(tx, p)
	})
	if err != nil {
		h.respondError(w, err, "profile_not_found")
		return
	}
	h.Log.Info("deleted profile", zap.Uint("id", id))
	httpx.JSONStatus(w, http.StatusOK, "Profile %d deleted", id)
}

func (h *ProfileHandler) respondError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch err {
	case errNotFound:
		httpx.JSONError(w, http.StatusNotFound, notFoundMsg, nil)
	case errForbidden:
		httpx.JSONError(w, http.StatusForbidden, "not_authorized", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
	}
}
