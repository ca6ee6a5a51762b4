package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/shopauth/internal/models"
	"github.com/iudanet/shopauth/internal/server/auth"
	"github.com/iudanet/shopauth/internal/server/middleware"
	"github.com/iudanet/shopauth/internal/server/storage"
	"github.com/iudanet/shopauth/internal/validation"
	"github.com/iudanet/shopauth/pkg/api"
)

// AuthHandler exposes the auth use cases over HTTP
type AuthHandler struct {
	logger  *slog.Logger
	service *auth.Service
}

// NewAuthHandler creates the auth HTTP handler
func NewAuthHandler(logger *slog.Logger, service *auth.Service) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		service: service,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		h.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if details := validateRegister(&req); len(details) > 0 {
		h.sendJSON(w, api.ErrorResponse{Error: "Validation failed", Details: details}, http.StatusBadRequest)
		return
	}

	session, err := h.service.Register(ctx, auth.RegisterParams{
		Name:            req.Name,
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Address:         req.Address,
		Phone:           req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordMismatch):
			h.sendError(w, "Passwords do not match", http.StatusBadRequest)
		case errors.Is(err, storage.ErrUsernameTaken):
			h.sendError(w, "Username already exists", http.StatusBadRequest)
		case errors.Is(err, storage.ErrEmailTaken):
			h.sendError(w, "Email already exists", http.StatusBadRequest)
		default:
			h.logger.ErrorContext(ctx, "registration failed", slog.Any("error", err))
			h.sendError(w, "Registration failed. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	h.sendJSON(w, authResponse(session), http.StatusCreated)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		h.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var details []string
	if req.Username == "" {
		details = append(details, "username is required")
	}
	if req.Password == "" {
		details = append(details, "password is required")
	}
	if len(details) > 0 {
		h.sendJSON(w, api.ErrorResponse{Error: "Validation failed", Details: details}, http.StatusBadRequest)
		return
	}

	session, err := h.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		// Unknown username, wrong password and disabled account are all the
		// same response, so callers cannot probe for account existence.
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrAccountDisabled) {
			h.logger.WarnContext(ctx, "login failed", slog.String("username", req.Username))
			h.sendError(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "login error", slog.Any("error", err))
		h.sendError(w, "Login failed. Please try again later.", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, authResponse(session), http.StatusOK)
}

// Refresh handles POST /api/auth/refresh-token
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode refresh request", slog.Any("error", err))
		h.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.RefreshToken == "" {
		h.sendJSON(w, api.ErrorResponse{
			Error:   "Validation failed",
			Details: []string{"refreshToken is required"},
		}, http.StatusBadRequest)
		return
	}

	session, err := h.service.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTokenNotFound):
			h.logger.WarnContext(ctx, "refresh token not found")
			h.sendError(w, "Refresh token not found", http.StatusUnauthorized)
		case errors.Is(err, auth.ErrTokenRevoked):
			h.logger.WarnContext(ctx, "refresh token revoked")
			h.sendError(w, "Refresh token has been revoked", http.StatusUnauthorized)
		case errors.Is(err, auth.ErrTokenExpired):
			h.logger.WarnContext(ctx, "refresh token expired")
			h.sendError(w, "Refresh token has expired", http.StatusUnauthorized)
		default:
			h.logger.ErrorContext(ctx, "token refresh failed", slog.Any("error", err))
			h.sendError(w, "Token refresh failed", http.StatusInternalServerError)
		}
		return
	}

	h.sendJSON(w, authResponse(session), http.StatusOK)
}

// Logout handles POST /api/auth/logout.
// The route is wrapped in RequireAuthMiddleware; the identity check here
// covers direct use of the handler.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.sendError(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(ctx, identity.UserID); err != nil {
		h.logger.ErrorContext(ctx, "logout failed", slog.Any("error", err))
		h.sendError(w, "Logout failed", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, api.MessageResponse{Message: "Logged out successfully"}, http.StatusOK)
}

// validateRegister collects field validation messages for the register
// request. Password/confirmation equality and duplicates are checked by
// the service, not here.
func validateRegister(req *api.RegisterRequest) []string {
	var details []string

	if err := validation.ValidateName(req.Name); err != nil {
		details = append(details, err.Error())
	}
	if err := validation.ValidateUsername(req.Username); err != nil {
		details = append(details, err.Error())
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		details = append(details, err.Error())
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		details = append(details, err.Error())
	}
	if req.PasswordConfirm == "" {
		details = append(details, "passwordConfirm is required")
	}

	return details
}

// authResponse maps a session to the transport DTO
func authResponse(session *auth.Session) api.AuthResponse {
	account := session.Account
	if account == nil {
		account = &models.User{}
	}

	return api.AuthResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    session.ExpiresIn,
		UserID:       account.ID,
		Username:     account.Username,
		Email:        account.Email,
		Role:         account.Role,
	}
}

// sendJSON writes a JSON response
func (h *AuthHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError writes a JSON error response
func (h *AuthHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.ErrorResponse{Error: message}, statusCode)
}
