package events

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"BACK_FPA_GO/internal/models"
	"BACK_FPA_GO/internal/storage"
	"BACK_FPA_GO/internal/utils"
)

type Handler struct {
	Store storage.Storage
	Log   *zap.Logger
}

func NewHandler(store storage.Storage, log *zap.Logger) *Handler {
	return &Handler{Store: store, Log: log}
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Store.GetEvents(r.Context())
	if err != nil {
		h.Log.Error("event list failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not load events")
		return
	}
	utils.RespondJSON(w, http.StatusOK, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.Store.GetEvent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, event)
}

// GetEventByName resolves an event from its slugified name, so public
// pages can link by title instead of ID.
func (h *Handler) GetEventByName(w http.ResponseWriter, r *http.Request) {
	slug := utils.Slugify(mux.Vars(r)["name"])
	event, err := h.Store.GetEventBySlug(r.Context(), slug)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, event)
}

type eventRequest struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	ImageURL        string    `json:"imageUrl"`
	Fee             int64     `json:"fee"`
	Currency        string    `json:"currency"`
	MaxParticipants int       `json:"maxParticipants"`
	StartsAt        time.Time `json:"startsAt"`
	EndsAt          time.Time `json:"endsAt"`
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.RespondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Fee < 0 {
		utils.RespondError(w, http.StatusBadRequest, "fee cannot be negative")
		return
	}
	cur := strings.ToUpper(strings.TrimSpace(req.Currency))
	if cur == "" {
		cur = "USD"
	}

	event := &models.Event{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(req.Name),
		Slug:            utils.Slugify(req.Name),
		Description:     req.Description,
		Location:        req.Location,
		ImageURL:        req.ImageURL,
		Fee:             req.Fee,
		Currency:        cur,
		MaxParticipants: req.MaxParticipants,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	if err := h.Store.CreateEvent(r.Context(), event); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			utils.RespondError(w, http.StatusConflict, "an event with this name already exists")
			return
		}
		h.Log.Error("event create failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not create event")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.Store.GetEvent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Name) != "" {
		event.Name = strings.TrimSpace(req.Name)
		event.Slug = utils.Slugify(req.Name)
	}
	event.Description = req.Description
	event.Location = req.Location
	event.ImageURL = req.ImageURL
	if req.Fee >= 0 {
		event.Fee = req.Fee
	}
	if cur := strings.ToUpper(strings.TrimSpace(req.Currency)); cur != "" {
		event.Currency = cur
	}
	event.MaxParticipants = req.MaxParticipants
	if !req.StartsAt.IsZero() {
		event.StartsAt = req.StartsAt
	}
	if !req.EndsAt.IsZero() {
		event.EndsAt = req.EndsAt
	}
	event.UpdatedAt = time.Now().UTC()

	if err := h.Store.UpdateEvent(r.Context(), event); err != nil {
		h.Log.Error("event update failed", zap.String("id", event.ID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not update event")
		return
	}
	utils.RespondJSON(w, http.StatusOK, event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Store.DeleteEvent(r.Context(), id); err != nil {
		h.respondLookupError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "event not found")
		return
	}
	h.Log.Error("event lookup failed", zap.Error(err))
	utils.RespondError(w, http.StatusInternalServerError, "could not load event")
}
