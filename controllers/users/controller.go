package users

import (
	"go.uber.org/zap"

	"github.com/rickyzatnika/new-spinner/controllers"
	"github.com/rickyzatnika/new-spinner/services"
)

// WheelController serves the public kiosk endpoints.
type WheelController struct {
	Users          *services.UserService
	Prizes         *services.PrizeService
	Spins          *services.SpinService
	TrustedProxies []string
	Log            *zap.Logger
}

func NewWheelController(users *services.UserService, prizes *services.PrizeService, spins *services.SpinService, trusted []string, log *zap.Logger) *WheelController {
	return &WheelController{
		Users:          users,
		Prizes:         prizes,
		Spins:          spins,
		TrustedProxies: trusted,
		Log:            controllers.Logger(log),
	}
}
