package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"meishi-backend/pkg/auth"
	"meishi-backend/pkg/common"
	"meishi-backend/pkg/utils"
)

// Credentials holds the configured login account
type Credentials struct {
	Email    string
	Password string
	Name     string
}

// AuthHandler issues JWT tokens for the configured account
type AuthHandler struct {
	generator   *auth.JWTGenerator
	credentials Credentials
	userID      string
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(generator *auth.JWTGenerator, credentials Credentials, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		generator:   generator,
		credentials: credentials,
		// Stable per account so tokens survive restarts
		userID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(credentials.Email)).String(),
		logger: logger,
	}
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and user profile
type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

// LoginUser is the authenticated user's profile
type LoginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(h.credentials.Email)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.credentials.Password)) == 1
	if !emailOK || !passwordOK {
		h.logger.Warn("Login failed", zap.String("email", req.Email))
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password")
		return
	}

	token, err := h.generator.GenerateToken(h.userID, h.credentials.Email, h.credentials.Name)
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, "INTERNAL", "Failed to generate token")
		return
	}

	common.RespondJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		User: LoginUser{
			ID:    h.userID,
			Email: h.credentials.Email,
			Name:  h.credentials.Name,
		},
	})
}
