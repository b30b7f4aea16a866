package handler

import (
	"net/http"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/service"
	"go.uber.org/zap"
)

// AuthHandler serves login, self-registration and the admin user screens
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login godoc
// @Summary Log in
// @Description Verify credentials and issue a session token. Unapproved accounts are rejected after a correct password.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.LoginResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError "Account awaiting approval"
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Register godoc
// @Summary Register
// @Description Create an unapproved account with role user
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.RegisterRequest true "New account"
// @Success 201 {object} domain.MessageResponse
// @Failure 400 {object} domain.APIError "Username taken or invalid input"
// @Router /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.authService.Register(r.Context(), &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusCreated, "Registration received, awaiting approval")
}

// ForgotPassword godoc
// @Summary Reset a forgotten password
// @Description Match by exact email or phone suffix and set a temporary password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.ForgotPasswordRequest true "Email or phone"
// @Success 200 {object} domain.ForgotPasswordResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.ForgotPassword(r.Context(), req.Identifier)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// ChangePassword godoc
// @Summary Change password
// @Description Set a new password and clear the must-change flag
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.ChangePasswordRequest true "New password"
// @Success 200 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /change-password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req domain.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID != caller.UserID && !caller.IsAdmin() {
		respondWithError(w, http.StatusForbidden, "Cannot change another user's password")
		return
	}

	user, err := h.authService.ChangePassword(r.Context(), req.UserID, req.NewPassword)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// AddUser godoc
// @Summary Add a user
// @Description Create an approved account with the given role
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.AddUserRequest true "New user"
// @Success 201 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /add-user [post]
func (h *AuthHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req domain.AddUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.AddUser(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// ListUsers godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {array} domain.UserDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /users [get]
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// ApproveUser godoc
// @Summary Approve a registration
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.ApproveUserRequest true "User and role"
// @Success 200 {object} domain.MessageResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /approve-user [post]
func (h *AuthHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	var req domain.ApproveUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ApproveUser(r.Context(), req.ID, req.Role); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "User approved")
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.DeleteUserRequest true "User"
// @Success 200 {object} domain.MessageResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /delete-user [post]
func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	var req domain.DeleteUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.DeleteUser(r.Context(), req.ID); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "User deleted")
}
