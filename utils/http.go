package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON envelope for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   int    `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteError writes the error envelope for status. An empty message falls
// back to the standard status text, lowercased.
func WriteError(w http.ResponseWriter, status int, message string) error {
	return WriteErrorWithCode(w, status, "", message)
}

// WriteErrorWithCode writes the error envelope with a machine-readable code.
func WriteErrorWithCode(w http.ResponseWriter, status int, code, message string) error {
	if message == "" {
		message = defaultMessage(status)
	}
	return WriteJSON(w, status, ErrorResponse{
		Success: false,
		Error:   status,
		Message: message,
		Code:    code,
	})
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusBadRequest, message)
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusNotFound, message)
}

// WriteMethodNotAllowed writes a 405 Method Not Allowed response
func WriteMethodNotAllowed(w http.ResponseWriter) error {
	return WriteError(w, http.StatusMethodNotAllowed, "")
}

// WriteUnprocessable writes a 422 Unprocessable Entity response
func WriteUnprocessable(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusUnprocessableEntity, message)
}

// WriteInternalServerError writes a 500 Internal Server Error response
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusInternalServerError, message)
}

func defaultMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusUnprocessableEntity:
		return "unprocessable"
	case http.StatusMethodNotAllowed:
		return "method not allowed"
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusInternalServerError:
		return "internal server error"
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "error"
}
