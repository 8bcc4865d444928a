package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"memwatch/internal/model"
	"memwatch/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "unexpected server error",
	}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.Is(err, model.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "incorrect username or password"
	case errors.Is(err, model.ErrInactiveUser):
		status = http.StatusBadRequest
		body.Code = "INACTIVE"
		body.Message = "inactive user"
	case errors.Is(err, model.ErrNoSamples):
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "bad request"
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "user not found"
	default:
		// Unclassified errors stay opaque to the client but visible in logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	writeJSON(w, status, model.ErrorResponse{Error: body})
}
