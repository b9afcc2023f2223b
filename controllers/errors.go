// Package controllers holds the HTTP plumbing shared by the public and admin
// handlers.
package controllers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rickyzatnika/new-spinner/services"
	"github.com/rickyzatnika/new-spinner/utils"
)

const MsgInternal = "Terjadi kesalahan sistem, silakan coba lagi"

type errorMapping struct {
	target  error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{services.ErrUserNotFound, http.StatusNotFound, "User tidak ditemukan"},
	{services.ErrAlreadySpun, http.StatusConflict, "User sudah pernah memutar Lucky Wheel"},
	{services.ErrPrizeNotFound, http.StatusNotFound, "Hadiah tidak ditemukan"},
	{services.ErrNoActivePrizes, http.StatusConflict, "Belum ada hadiah yang aktif"},
	{services.ErrEmailTaken, http.StatusConflict, "Email sudah terdaftar"},
	{services.ErrIPAlreadyRegistered, http.StatusForbidden, "Maaf, pendaftaran hanya dapat dilakukan satu kali saja."},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "Username atau password salah"},
	{services.ErrCodeSpaceExhausted, http.StatusServiceUnavailable, "Kode registrasi sedang penuh, silakan coba lagi"},
}

// WriteError maps a service error to its status and localized message.
// Unknown errors are logged and answered with a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Semua field harus diisi dengan benar",
			Data:    map[string]string{"field": verr.Field, "rule": verr.Reason},
		})
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			utils.WriteJSON(w, m.status, utils.APIResponse{Success: false, Message: m.message})
			return
		}
	}
	log.Error("request failed",
		zap.String("request_id", utils.RequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: MsgInternal})
}

// Logger returns log, or a no-op logger when it is nil.
func Logger(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
