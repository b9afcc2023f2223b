package admins

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rickyzatnika/new-spinner/controllers"
	"github.com/rickyzatnika/new-spinner/middleware"
	"github.com/rickyzatnika/new-spinner/services"
	"github.com/rickyzatnika/new-spinner/utils"
)

type assignRequest struct {
	PrizeID string `json:"prize_id" validate:"required"`
}

type adminSpinRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	PrizeID string `json:"prize_id" validate:"required"`
}

func adminActor(r *http.Request) string {
	if id, ok := utils.GetAdminID(r); ok {
		return id
	}
	return "admin"
}

// POST /api/admin/assigned-prize/{userId}
func (c *AdminController) AssignPrize(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	view, err := c.Spins.AssignPrize(r.Context(), mux.Vars(r)["userId"], req.PrizeID, adminActor(r))
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Hadiah berhasil ditetapkan untuk user",
		Data:    view,
	})
}

// GET /api/admin/assigned-prizes
func (c *AdminController) GetAssignments(w http.ResponseWriter, r *http.Request) {
	views, err := c.Spins.ListAssignments(r.Context())
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Berhasil mengambil data hadiah yang ditetapkan",
		Data:    views,
	})
}

// POST /api/admin/spin
func (c *AdminController) Spin(w http.ResponseWriter, r *http.Request) {
	var req adminSpinRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	res, err := c.Spins.Resolve(r.Context(), services.SpinRequest{
		UserID:     req.UserID,
		PrizeID:    req.PrizeID,
		IsAssigned: true,
		AssignedBy: adminActor(r),
	})
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

// GET /api/admin/spin-results?limit=
func (c *AdminController) SpinResults(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 0 {
		limit = 0
	}
	entries, err := c.Spins.History(r.Context(), limit)
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Berhasil mengambil riwayat putaran",
		Data:    entries,
	})
}
