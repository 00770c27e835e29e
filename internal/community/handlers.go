package community

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"BACK_FPA_GO/internal/models"
	"BACK_FPA_GO/internal/storage"
	"BACK_FPA_GO/internal/utils"
)

// Notifier receives new contact messages and volunteer applications. The
// default implementation only logs; a mail sender can replace it later.
type Notifier interface {
	NotifyContact(ctx context.Context, m *models.ContactMessage)
	NotifyVolunteer(ctx context.Context, v *models.Volunteer)
}

type logNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) NotifyContact(_ context.Context, m *models.ContactMessage) {
	n.log.Info("new contact message", zap.String("id", m.ID), zap.String("email", m.Email))
}

func (n *logNotifier) NotifyVolunteer(_ context.Context, v *models.Volunteer) {
	n.log.Info("new volunteer application", zap.String("id", v.ID), zap.String("email", v.Email))
}

type Handler struct {
	Store    storage.Storage
	Notifier Notifier
	Log      *zap.Logger
}

func NewHandler(store storage.Storage, notifier Notifier, log *zap.Logger) *Handler {
	return &Handler{Store: store, Notifier: notifier, Log: log}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *Handler) CreateContactMessage(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "name and message are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	m := &models.ContactMessage{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   req.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.CreateContactMessage(r.Context(), m); err != nil {
		h.Log.Error("contact message create failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not send message")
		return
	}
	h.Notifier.NotifyContact(r.Context(), m)
	utils.RespondJSON(w, http.StatusCreated, map[string]string{"status": "received"})
}

func (h *Handler) ListContactMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Store.GetContactMessages(r.Context())
	if err != nil {
		h.Log.Error("contact list failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not load messages")
		return
	}
	utils.RespondJSON(w, http.StatusOK, msgs)
}

func (h *Handler) MarkContactMessageRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Store.MarkContactMessageRead(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "message not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "could not update message")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

type newsletterRequest struct {
	Email string `json:"email"`
}

// SubscribeNewsletter is idempotent: re-subscribing an existing address
// succeeds without creating a second row.
func (h *Handler) SubscribeNewsletter(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	sub, err := h.Store.SubscribeNewsletter(r.Context(), email)
	if err != nil {
		h.Log.Error("newsletter subscribe failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not subscribe")
		return
	}
	utils.RespondJSON(w, http.StatusOK, sub)
}

type volunteerRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Interests  string `json:"interests"`
	Motivation string `json:"motivation"`
}

func (h *Handler) CreateVolunteer(w http.ResponseWriter, r *http.Request) {
	var req volunteerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		utils.RespondError(w, http.StatusBadRequest, "firstName and lastName are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	v := &models.Volunteer{
		ID:         uuid.NewString(),
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		Interests:  req.Interests,
		Motivation: req.Motivation,
		Status:     "NEW",
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.Store.CreateVolunteer(r.Context(), v); err != nil {
		h.Log.Error("volunteer create failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not submit application")
		return
	}
	h.Notifier.NotifyVolunteer(r.Context(), v)
	utils.RespondJSON(w, http.StatusCreated, v)
}

func (h *Handler) ListVolunteers(w http.ResponseWriter, r *http.Request) {
	vols, err := h.Store.GetVolunteers(r.Context())
	if err != nil {
		h.Log.Error("volunteer list failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not load volunteers")
		return
	}
	utils.RespondJSON(w, http.StatusOK, vols)
}
