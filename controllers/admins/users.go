package admins

import (
	"net/http"
	"strconv"

	"github.com/rickyzatnika/new-spinner/controllers"
	"github.com/rickyzatnika/new-spinner/middleware"
	"github.com/rickyzatnika/new-spinner/store"
	"github.com/rickyzatnika/new-spinner/utils"
)

type bulkUserRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1"`
}

// GET /api/admin/users?page=&limit=&search=
func (c *AdminController) GetUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	users, total, err := c.Users.List(r.Context(), store.UserFilter{
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success:    true,
		Message:    "Berhasil mengambil data user",
		Data:       users,
		Pagination: utils.NewPagination(page, limit, total),
	})
}

// DELETE /api/admin/users
func (c *AdminController) BulkDeleteUsers(w http.ResponseWriter, r *http.Request) {
	var req bulkUserRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	n, err := c.Users.BulkDelete(r.Context(), req.UserIDs)
	if err != nil {
		controllers.WriteError(w, r, c.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "User berhasil dihapus",
		Data:    map[string]int64{"deleted_count": n},
	})
}
