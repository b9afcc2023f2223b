package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rickyzatnika/new-spinner/controllers/admins"
	"github.com/rickyzatnika/new-spinner/middleware"
)

// SetAdminRoutes mounts /api/admin. Everything but login is guarded when a
// JWT secret is configured.
func SetAdminRoutes(api *mux.Router, d Deps) {
	rate := d.Config.Rate
	loginLimiter := middleware.NewIPRateLimiter("admin-login", rate.RegisterPerWindow, rate.Window, d.Counter, rate.TrustedProxies, d.Log)

	ctrl := admins.NewAdminController(d.Admins, d.Users, d.Prizes, d.Spins, d.Log)

	api.Handle("/admin/login", loginLimiter.Middleware(http.HandlerFunc(ctrl.Login))).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminAuth(d.Admins, d.Config.Auth.JWTSecret != ""))

	admin.HandleFunc("/prizes", ctrl.GetPrizes).Methods(http.MethodGet)
	admin.HandleFunc("/prizes", ctrl.CreatePrize).Methods(http.MethodPost)
	admin.HandleFunc("/prizes", ctrl.BulkDeletePrizes).Methods(http.MethodDelete)
	admin.HandleFunc("/prizes/setup", ctrl.SetupPrizes).Methods(http.MethodPost)
	admin.HandleFunc("/prizes/{id}", ctrl.UpdatePrize).Methods(http.MethodPut)
	admin.HandleFunc("/prizes/{id}", ctrl.DeletePrize).Methods(http.MethodDelete)

	admin.HandleFunc("/users", ctrl.GetUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users", ctrl.BulkDeleteUsers).Methods(http.MethodDelete)

	admin.HandleFunc("/assigned-prize/{userId}", ctrl.AssignPrize).Methods(http.MethodPost)
	admin.HandleFunc("/assigned-prizes", ctrl.GetAssignments).Methods(http.MethodGet)
	admin.HandleFunc("/spin", ctrl.Spin).Methods(http.MethodPost)
	admin.HandleFunc("/spin-results", ctrl.SpinResults).Methods(http.MethodGet)

	if d.Feed != nil {
		admin.Handle("/live", d.Feed).Methods(http.MethodGet)
	}
}
