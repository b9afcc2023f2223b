package admins

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rickyzatnika/new-spinner/controllers"
	"github.com/rickyzatnika/new-spinner/middleware"
	"github.com/rickyzatnika/new-spinner/services"
	"github.com/rickyzatnika/new-spinner/utils"
)

type PrizeRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Color       string  `json:"color"`
	Probability float64 `json:"probability"`
	IsActive    *bool   `json:"is_active"`
	Position    *int    `json:"position"`
}

func (p PrizeRequest) input() services.PrizeInput {
	return services.PrizeInput{
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		Probability: p.Probability,
		IsActive:    p.IsActive,
		Position:    p.Position,
	}
}

type bulkPrizeRequest struct {
	PrizeIDs []string `json:"prize_ids" validate:"required,min=1"`
}

// GET /api/admin/prizes
func (c *AdminController) GetPrizes(w http.ResponseWriter, r *http.Request) {
	prizes, err := c.Prizes.List(r.Context(), false)
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Berhasil mengambil data hadiah",
		Data:    prizes,
	})
}

// POST /api/admin/prizes
func (c *AdminController) CreatePrize(w http.ResponseWriter, r *http.Request) {
	var req PrizeRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	prize, err := c.Prizes.Create(r.Context(), req.input())
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Hadiah berhasil ditambahkan",
		Data:    prize,
	})
}

// PUT /api/admin/prizes/{id}
func (c *AdminController) UpdatePrize(w http.ResponseWriter, r *http.Request) {
	var req PrizeRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	prize, err := c.Prizes.Update(r.Context(), mux.Vars(r)["id"], req.input())
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Hadiah berhasil diperbarui",
		Data:    prize,
	})
}

// DELETE /api/admin/prizes/{id}
func (c *AdminController) DeletePrize(w http.ResponseWriter, r *http.Request) {
	if err := c.Prizes.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Hadiah berhasil dihapus",
	})
}

// DELETE /api/admin/prizes
func (c *AdminController) BulkDeletePrizes(w http.ResponseWriter, r *http.Request) {
	var req bulkPrizeRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	n, err := c.Prizes.BulkDelete(r.Context(), req.PrizeIDs)
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Hadiah berhasil dihapus",
		Data:    map[string]int64{"deleted_count": n},
	})
}

// POST /api/admin/prizes/setup
func (c *AdminController) SetupPrizes(w http.ResponseWriter, r *http.Request) {
	prizes, created, err := c.Prizes.SetupDefaults(r.Context())
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	status, msg := http.StatusCreated, "Hadiah default berhasil dibuat"
	if !created {
		status, msg = http.StatusOK, "Hadiah sudah tersedia"
	}
	utils.WriteJSON(w, status, utils.APIResponse{
		Success: true,
		Message: msg,
		Data:    prizes,
	})
}
