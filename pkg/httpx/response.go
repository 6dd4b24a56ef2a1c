package httpx

import (
	"encoding/json"
	"net/http"
	"time"
)

// envelope mirrors the backend's response wrapper so console clients can treat
// both the same way.
type envelope struct {
	Success   bool      `json:"success"`
	Code      int       `json:"code"`
	Data      any       `json:"data,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path,omitempty"`
	Method    string    `json:"method,omitempty"`
	Error     string    `json:"error,omitempty"`
	Detail    any       `json:"detail,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes a success envelope carrying data.
func WriteData(w http.ResponseWriter, code int, data any) {
	WriteJSON(w, code, envelope{
		Success:   true,
		Code:      code,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// WriteError writes an error envelope. errCode is the machine-readable code,
// message is shown to the operator.
func WriteError(w http.ResponseWriter, r *http.Request, status int, errCode, message string) {
	WriteErrorDetail(w, r, status, errCode, message, nil)
}

// WriteErrorDetail is WriteError with a detail payload, typically field errors.
func WriteErrorDetail(w http.ResponseWriter, r *http.Request, status int, errCode, message string, detail any) {
	env := envelope{
		Success:   false,
		Code:      status,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Error:     errCode,
		Detail:    detail,
	}
	if r != nil {
		env.Path = r.URL.Path
		env.Method = r.Method
	}
	WriteJSON(w, status, env)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
