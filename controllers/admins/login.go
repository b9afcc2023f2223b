package admins

import (
	"net/http"

	"github.com/rickyzatnika/new-spinner/controllers"
	"github.com/rickyzatnika/new-spinner/middleware"
	"github.com/rickyzatnika/new-spinner/utils"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /api/admin/login
func (c *AdminController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	res, err := c.Admins.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Berhasil login",
		Data:    res,
	})
}
