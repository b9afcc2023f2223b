package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rickyzatnika/new-spinner/controllers/users"
	"github.com/rickyzatnika/new-spinner/middleware"
)

// UsersRoutes mounts the public kiosk endpoints.
func UsersRoutes(api *mux.Router, d Deps) {
	rate := d.Config.Rate
	registerLimiter := middleware.NewIPRateLimiter("register", rate.RegisterPerWindow, rate.Window, d.Counter, rate.TrustedProxies, d.Log)
	spinLimiter := middleware.NewIPRateLimiter("spin", rate.SpinPerWindow, rate.Window, d.Counter, rate.TrustedProxies, d.Log)

	wheel := users.NewWheelController(d.Users, d.Prizes, d.Spins, rate.TrustedProxies, d.Log)

	api.Handle("/register", registerLimiter.Middleware(http.HandlerFunc(wheel.Register))).Methods(http.MethodPost)
	api.Handle("/user/{code}", http.HandlerFunc(wheel.UserByCode)).Methods(http.MethodGet)
	api.Handle("/prizes", http.HandlerFunc(wheel.ListPrizes)).Methods(http.MethodGet)
	api.Handle("/assigned-prize/{userId}", http.HandlerFunc(wheel.AssignedPrize)).Methods(http.MethodGet)
	api.Handle("/spin", spinLimiter.Middleware(http.HandlerFunc(wheel.Spin))).Methods(http.MethodPost)
}
