package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickyzatnika/new-spinner/config"
	"github.com/rickyzatnika/new-spinner/services"
	"github.com/rickyzatnika/new-spinner/store"
	"github.com/rickyzatnika/new-spinner/utils"
)

type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Pagination *utils.Pagination `json:"pagination"`
}

type testServer struct {
	t      *testing.T
	router http.Handler
	admins *services.AdminService
	token  string
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()
	s := store.NewMemory()
	var cfg config.Config
	cfg.Auth.JWTSecret = secret

	admins := services.NewAdminService(s, utils.NewTokenIssuer(secret, time.Hour, "test"), nil)
	d := Deps{
		Config: cfg,
		Store:  s,
		Users:  services.NewUserService(s, services.UserOptions{}),
		Prizes: services.NewPrizeService(s, nil),
		Spins:  services.NewSpinService(s, services.SpinOptions{Drawer: services.NewDrawer(1)}),
		Admins: admins,
	}
	return &testServer{t: t, router: InitRouter(d), admins: admins}
}

func (ts *testServer) do(method, path string, body interface{}) (int, envelope) {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.10:5000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func into(t *testing.T, raw json.RawMessage, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, dst))
}

type prizeJSON struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Chance float64 `json:"chance"`
}

type userJSON struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	HasSpun bool   `json:"has_spun"`
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "")
	code, env := ts.do("GET", "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"store":"ok"`)
}

func TestSpinFlow_AssignmentOverridesProposal(t *testing.T) {
	ts := newTestServer(t, "")

	code, env := ts.do("POST", "/api/admin/prizes/setup", nil)
	require.Equal(t, http.StatusCreated, code)
	var prizes []prizeJSON
	into(t, env.Data, &prizes)
	require.Len(t, prizes, 8)

	code, env = ts.do("POST", "/api/register", map[string]string{
		"name": "Budi", "email": "budi@example.com", "phone": "081234567890",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.Equal(t, "Registrasi berhasil", env.Message)
	var user userJSON
	into(t, env.Data, &user)
	assert.Regexp(t, `^[0-9]{3}[A-Z]$`, user.Code)

	code, env = ts.do("GET", "/api/user/"+strings.ToLower(user.Code), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"kind":"pending"`)

	grand := prizes[4]
	code, env = ts.do("POST", "/api/admin/assigned-prize/"+user.ID, map[string]string{"prize_id": grand.ID})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "Hadiah berhasil ditetapkan untuk user", env.Message)

	code, env = ts.do("GET", "/api/assigned-prize/"+user.ID, nil)
	require.Equal(t, http.StatusOK, code)
	var assigned struct {
		Prize      *prizeJSON `json:"prize"`
		IsAssigned bool       `json:"is_assigned"`
	}
	into(t, env.Data, &assigned)
	assert.True(t, assigned.IsAssigned)
	require.NotNil(t, assigned.Prize)
	assert.Equal(t, grand.ID, assigned.Prize.ID)

	code, env = ts.do("POST", "/api/spin", map[string]interface{}{
		"user_id": user.ID, "prize_id": prizes[0].ID, "is_assigned": true,
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "Hasil putaran berhasil disimpan", env.Message)
	var result struct {
		Prize      prizeJSON `json:"prize"`
		Overridden bool      `json:"overridden"`
		Wheel      struct {
			Index         int     `json:"index"`
			TargetDegrees float64 `json:"target_degrees"`
		} `json:"wheel"`
	}
	into(t, env.Data, &result)
	assert.Equal(t, grand.ID, result.Prize.ID)
	assert.True(t, result.Overridden)
	assert.Equal(t, 4, result.Wheel.Index)
	assert.Equal(t, -(4*45.0)-22.5, result.Wheel.TargetDegrees)

	code, env = ts.do("POST", "/api/spin", map[string]string{"user_id": user.ID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "User sudah pernah memutar Lucky Wheel", env.Message)

	code, env = ts.do("GET", "/api/user/"+user.Code, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"kind":"won"`)
	assert.Contains(t, string(env.Data), `"prize_name":"Grand Prize"`)

	code, env = ts.do("GET", "/api/admin/spin-results", nil)
	require.Equal(t, http.StatusOK, code)
	var history []struct {
		UserCode  string `json:"user_code"`
		PrizeName string `json:"prize_name"`
		Pending   bool   `json:"pending"`
	}
	into(t, env.Data, &history)
	require.Len(t, history, 1)
	assert.Equal(t, user.Code, history[0].UserCode)
	assert.Equal(t, "Grand Prize", history[0].PrizeName)
	assert.False(t, history[0].Pending)

	code, _ = ts.do("POST", "/api/admin/assigned-prize/"+user.ID, map[string]string{"prize_id": grand.ID})
	assert.Equal(t, http.StatusConflict, code)
}

func TestSpin_ServerDrawWithoutProposal(t *testing.T) {
	ts := newTestServer(t, "")
	code, env := ts.do("POST", "/api/admin/prizes", map[string]interface{}{
		"name": "Voucher", "color": "#4ECDC4", "probability": 10,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var prize prizeJSON
	into(t, env.Data, &prize)

	_, env = ts.do("POST", "/api/register", map[string]string{
		"name": "Sari", "email": "sari@example.com", "phone": "081234567890",
	})
	var user userJSON
	into(t, env.Data, &user)

	code, env = ts.do("POST", "/api/spin", map[string]string{"user_id": user.ID})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Contains(t, string(env.Data), prize.ID)

	code, env = ts.do("GET", "/api/prizes?active=true", nil)
	require.Equal(t, http.StatusOK, code)
	var views []prizeJSON
	into(t, env.Data, &views)
	require.Len(t, views, 1)
	assert.Equal(t, 100.0, views[0].Chance)
}

func TestRegister_Errors(t *testing.T) {
	ts := newTestServer(t, "")

	code, env := ts.do("POST", "/api/register", map[string]string{"name": "Budi", "email": "", "phone": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Semua field harus diisi dengan benar", env.Message)
	assert.JSONEq(t, `{"field":"email","rule":"required"}`, string(env.Data))

	code, _ = ts.do("POST", "/api/register", map[string]string{"name": "Budi", "email": "nope", "phone": "081234567890"})
	assert.Equal(t, http.StatusBadRequest, code)

	body := map[string]string{"name": "Budi", "email": "budi@example.com", "phone": "081234567890"}
	code, _ = ts.do("POST", "/api/register", body)
	require.Equal(t, http.StatusCreated, code)
	code, env = ts.do("POST", "/api/register", body)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Email sudah terdaftar", env.Message)
}

func TestLookupAndSpin_NotFound(t *testing.T) {
	ts := newTestServer(t, "")

	code, env := ts.do("GET", "/api/user/999Z", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Kode user tidak ditemukan", env.Message)

	code, env = ts.do("POST", "/api/spin", map[string]string{"user_id": "missing"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User tidak ditemukan", env.Message)

	code, env = ts.do("GET", "/api/assigned-prize/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
}

func TestAdminUsers_PaginateAndDelete(t *testing.T) {
	ts := newTestServer(t, "")
	var ids []string
	for i := 0; i < 3; i++ {
		_, env := ts.do("POST", "/api/register", map[string]string{
			"name": fmt.Sprintf("User %d", i), "email": fmt.Sprintf("u%d@example.com", i), "phone": "081234567890",
		})
		var u userJSON
		into(t, env.Data, &u)
		ids = append(ids, u.ID)
	}

	code, env := ts.do("GET", "/api/admin/users?page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(3), env.Pagination.Total)
	assert.Equal(t, 2, env.Pagination.TotalPages)
	assert.True(t, env.Pagination.HasMore)

	code, env = ts.do("DELETE", "/api/admin/users", map[string][]string{"user_ids": ids[:2]})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"deleted_count":2`)

	code, _ = ts.do("DELETE", "/api/admin/users", map[string][]string{"user_ids": {}})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	ts := newTestServer(t, "test-secret")
	require.NoError(t, ts.admins.EnsureAdmin(context.Background(), "staff", "rahasia123"))

	code, _ := ts.do("GET", "/api/admin/prizes", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := ts.do("POST", "/api/admin/login", map[string]string{"username": "staff", "password": "salah"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Username atau password salah", env.Message)

	code, env = ts.do("POST", "/api/admin/login", map[string]string{"username": "staff", "password": "rahasia123"})
	require.Equal(t, http.StatusOK, code)
	var login struct {
		Token string `json:"token"`
	}
	into(t, env.Data, &login)
	require.NotEmpty(t, login.Token)

	ts.token = login.Token
	code, _ = ts.do("GET", "/api/admin/prizes", nil)
	assert.Equal(t, http.StatusOK, code)

	// public routes never need a token
	ts.token = ""
	code, _ = ts.do("GET", "/api/prizes", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestPreflight(t *testing.T) {
	ts := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodOptions, "/api/spin", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Less(t, rec.Code, 300)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
