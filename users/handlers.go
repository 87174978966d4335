package users

import (
	"log/slog"
	"net/http"

	"hackconnect/utils"

	"github.com/julienschmidt/httprouter"
)

type Handlers struct {
	svc *Service
	log *slog.Logger
}

func NewHandlers(svc *Service, log *slog.Logger) *Handlers {
	return &Handlers{svc: svc, log: log}
}

type walletRequest struct {
	WalletAddress string `json:"walletAddress"`
}

func (h *Handlers) RetrieveWalletInfo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With(slog.String("op", "users.RetrieveWalletInfo"))

	var req walletRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithErr(w, log, err)
		return
	}
	wallet, err := h.svc.ResolveWallet(r.Context(), req.WalletAddress)
	if err != nil {
		utils.RespondWithErr(w, log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, wallet)
}

func (h *Handlers) GetUserInfo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With(slog.String("op", "users.GetUserInfo"))

	var req walletRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithErr(w, log, err)
		return
	}
	info, ok, err := h.svc.UserExists(r.Context(), req.WalletAddress)
	if err != nil {
		utils.RespondWithErr(w, log, err)
		return
	}
	if !ok {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"exists": false})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"exists": true, "userInfo": info})
}

func (h *Handlers) RetrieveTasks(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	wallet := ps.ByName("wallet")
	tasks, err := h.svc.Tasks(r.Context(), wallet)
	if err != nil {
		utils.RespondWithErr(w, h.log.With(slog.String("op", "users.RetrieveTasks")), err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"walletAddress": wallet,
		"tasks":         tasks,
	})
}
