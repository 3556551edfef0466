package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"devbook/backend/internal/domain"
	"devbook/backend/internal/service/auth"
)

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (domain.User, error)
	Login(ctx context.Context, email, password string) (string, domain.User, error)
}

type authHandler struct {
	svc AuthService
	log *slog.Logger
}

func (h *authHandler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     domain.UserRole(req.Role),
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": userJSON(user)})
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userJSON(user),
	})
}

func userJSON(u domain.User) map[string]any {
	return map[string]any{
		"id":    u.ID.String(),
		"email": u.Email,
		"name":  u.Name,
		"role":  u.Role,
	}
}
