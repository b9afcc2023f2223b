package users

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rickyzatnika/new-spinner/controllers"
	"github.com/rickyzatnika/new-spinner/middleware"
	"github.com/rickyzatnika/new-spinner/models"
	"github.com/rickyzatnika/new-spinner/services"
	"github.com/rickyzatnika/new-spinner/utils"
)

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// POST /api/register
func (c *WheelController) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	user, err := c.Users.Register(r.Context(), services.RegisterInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		IP:    middleware.ClientIP(r, c.TrustedProxies),
	})
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Registrasi berhasil",
		Data:    user,
	})
}

type userWithOutcome struct {
	User    *models.User         `json:"user"`
	Outcome services.SpinOutcome `json:"outcome"`
}

// GET /api/user/{code}
func (c *WheelController) UserByCode(w http.ResponseWriter, r *http.Request) {
	user, err := c.Users.LookupByCode(r.Context(), mux.Vars(r)["code"])
	if errors.Is(err, services.ErrUserNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Kode user tidak ditemukan"})
		return
	}
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	outcome, err := c.Spins.Outcome(r.Context(), user)
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "User ditemukan",
		Data:    userWithOutcome{User: user, Outcome: outcome},
	})
}
