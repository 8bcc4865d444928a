package handler

import (
	"encoding/json"
	"net/http"

	"memwatch/internal/middleware"
	"memwatch/internal/model"
	"memwatch/internal/service"
	"memwatch/pkg/apierror"
)

type UserHandler struct {
	auth *service.AuthService
}

func NewUserHandler(auth *service.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	if _, err := h.auth.Register(r.Context(), payload.Username, payload.Email, payload.Password); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.MessageResponse{
		Message: "your account has been created successfully",
	})
}

// Token exchanges form-encoded credentials for a bearer access token.
func (h *UserHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid form body", "", http.StatusBadRequest))
		return
	}

	user, err := h.auth.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		writeError(w, err)
		return
	}

	accessToken, err := h.auth.IssueToken(user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	writeJSON(w, http.StatusOK, user.Profile())
}
