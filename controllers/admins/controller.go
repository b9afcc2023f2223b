package admins

import (
	"go.uber.org/zap"

	"github.com/rickyzatnika/new-spinner/controllers"
	"github.com/rickyzatnika/new-spinner/services"
)

// AdminController serves the /api/admin endpoints.
type AdminController struct {
	Admins *services.AdminService
	Users  *services.UserService
	Prizes *services.PrizeService
	Spins  *services.SpinService
	Log    *zap.Logger
}

func NewAdminController(admins *services.AdminService, users *services.UserService, prizes *services.PrizeService, spins *services.SpinService, log *zap.Logger) *AdminController {
	return &AdminController{
		Admins: admins,
		Users:  users,
		Prizes: prizes,
		Spins:  spins,
		Log:    controllers.Logger(log),
	}
}
