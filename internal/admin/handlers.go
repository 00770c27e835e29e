package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"BACK_FPA_GO/internal/models"
	"BACK_FPA_GO/internal/storage"
	"BACK_FPA_GO/internal/utils"
)

type Handler struct {
	Store     storage.Storage
	JWTSecret string
	Log       *zap.Logger
}

func NewHandler(store storage.Storage, jwtSecret string, log *zap.Logger) *Handler {
	return &Handler{Store: store, JWTSecret: jwtSecret, Log: log}
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.GetDashboardStats(r.Context())
	if err != nil {
		h.Log.Error("dashboard stats failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not load dashboard")
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}

func (h *Handler) ListDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := h.Store.GetDonations(r.Context())
	if err != nil {
		h.Log.Error("donation list failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not load donations")
		return
	}
	utils.RespondJSON(w, http.StatusOK, donations)
}

type gatewayStatusRequest struct {
	Mode    models.GatewayMode `json:"mode"`
	Message string             `json:"message"`
}

// SetGatewayStatus flips a gateway between live and maintenance. The
// message is shown to donors while the gateway is down.
func (h *Handler) SetGatewayStatus(w http.ResponseWriter, r *http.Request) {
	gw := models.Gateway(mux.Vars(r)["gateway"])
	if !gw.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "gateway must be pesapal, paypal or mpesa")
		return
	}

	var req gatewayStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Mode != models.GatewayModeLive && req.Mode != models.GatewayModeMaintenance {
		utils.RespondError(w, http.StatusBadRequest, "mode must be live or maintenance")
		return
	}

	st := &models.PaymentGatewayStatus{
		Gateway:   gw,
		Mode:      req.Mode,
		Message:   req.Message,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.Store.UpsertGatewayStatus(r.Context(), st); err != nil {
		h.Log.Error("gateway status update failed", zap.String("gateway", string(gw)), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not update gateway status")
		return
	}
	h.Log.Info("gateway mode changed",
		zap.String("gateway", string(gw)), zap.String("mode", string(req.Mode)))
	utils.RespondJSON(w, http.StatusOK, st)
}

func (h *Handler) GetGatewayConfig(w http.ResponseWriter, r *http.Request) {
	gw := models.Gateway(mux.Vars(r)["gateway"])
	if !gw.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "gateway must be pesapal, paypal or mpesa")
		return
	}
	cfg, err := h.Store.GetGatewayConfig(r.Context(), gw)
	if errors.Is(err, storage.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "no stored configuration for gateway")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not load gateway configuration")
		return
	}
	utils.RespondJSON(w, http.StatusOK, cfg)
}

type gatewayConfigRequest struct {
	Credentials json.RawMessage `json:"credentials"`
	Sandbox     bool            `json:"sandbox"`
}

func (h *Handler) SetGatewayConfig(w http.ResponseWriter, r *http.Request) {
	gw := models.Gateway(mux.Vars(r)["gateway"])
	if !gw.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "gateway must be pesapal, paypal or mpesa")
		return
	}

	var req gatewayConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Credentials) == 0 || !json.Valid(req.Credentials) {
		utils.RespondError(w, http.StatusBadRequest, "credentials must be a JSON object")
		return
	}

	cfg := &models.PaymentGatewayConfig{
		Gateway:     gw,
		Credentials: string(req.Credentials),
		Sandbox:     req.Sandbox,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := h.Store.UpsertGatewayConfig(r.Context(), cfg); err != nil {
		h.Log.Error("gateway config update failed", zap.String("gateway", string(gw)), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not store gateway configuration")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
