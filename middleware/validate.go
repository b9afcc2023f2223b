package middleware

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/rickyzatnika/new-spinner/utils"
)

// ErrBadRequest is returned by ValidateJSON after it has already written the
// error response.
var ErrBadRequest = errors.New("middleware: bad request")

// ValidateJSON decodes the JSON body into dst and runs its validate tags. On
// failure the 4xx response is written and ErrBadRequest is returned.
func ValidateJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct != "application/json" {
		utils.WriteJSON(w, http.StatusUnsupportedMediaType, utils.APIResponse{Success: false, Message: "Content-Type harus application/json"})
		return ErrBadRequest
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteJSON(w, http.StatusRequestEntityTooLarge, utils.APIResponse{Success: false, Message: "Request terlalu besar"})
			return ErrBadRequest
		}
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Format JSON tidak valid"})
		return ErrBadRequest
	}
	if err := utils.ValidateStruct(dst); err != nil {
		var fe utils.FieldError
		if errors.As(err, &fe) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
				Success: false,
				Message: "Semua field harus diisi dengan benar",
				Data:    map[string]string{"field": fe.Field, "rule": fe.Tag},
			})
			return ErrBadRequest
		}
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Semua field harus diisi dengan benar"})
		return ErrBadRequest
	}
	return nil
}
