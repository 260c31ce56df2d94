package helpers

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func JSON(w http.ResponseWriter, status int, message string, data interface{}) {
	write(w, status, Response{Success: true, Message: message, Data: data})
}

func Error(w http.ResponseWriter, status int, errMsg string) {
	write(w, status, Response{Success: false, Message: errMsg})
}

// ErrorWithData is an error response that still carries a payload, e.g. attempts left.
func ErrorWithData(w http.ResponseWriter, status int, errMsg string, data interface{}) {
	write(w, status, Response{Success: false, Message: errMsg, Data: data})
}

func write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
