package users

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rickyzatnika/new-spinner/controllers"
	"github.com/rickyzatnika/new-spinner/middleware"
	"github.com/rickyzatnika/new-spinner/models"
	"github.com/rickyzatnika/new-spinner/services"
	"github.com/rickyzatnika/new-spinner/utils"
)

// GET /api/prizes?active=true
func (c *WheelController) ListPrizes(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	prizes, err := c.Prizes.List(r.Context(), activeOnly)
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Berhasil mengambil daftar hadiah",
		Data:    prizes,
	})
}

type assignedPrizeResponse struct {
	Prize      *models.Prize `json:"prize"`
	IsAssigned bool          `json:"is_assigned"`
}

// GET /api/assigned-prize/{userId}
func (c *WheelController) AssignedPrize(w http.ResponseWriter, r *http.Request) {
	prize, ok, err := c.Spins.AssignedPrize(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	msg := "User tidak memiliki hadiah yang ditetapkan"
	if ok {
		msg = "User memiliki hadiah yang ditetapkan"
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: msg,
		Data:    assignedPrizeResponse{Prize: prize, IsAssigned: ok},
	})
}

type spinRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	PrizeID string `json:"prize_id"`

	// Accepted for older kiosks and ignored.
	IsAssigned bool   `json:"is_assigned"`
	AssignedBy string `json:"assigned_by"`
}

// POST /api/spin
// The public route never marks a spin as admin assigned.
func (c *WheelController) Spin(w http.ResponseWriter, r *http.Request) {
	var req spinRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	res, err := c.Spins.Resolve(r.Context(), services.SpinRequest{UserID: req.UserID, PrizeID: req.PrizeID})
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Hasil putaran berhasil disimpan",
		Data:    res,
	})
}
