package handlers

import (
	"net/http"

	"github.com/isdelr/tasktrack-be/internal/api/respond"
	"github.com/isdelr/tasktrack-be/internal/apperr"
	"github.com/isdelr/tasktrack-be/internal/auth"
	"github.com/isdelr/tasktrack-be/internal/models"
	"github.com/isdelr/tasktrack-be/internal/services"
	"github.com/rs/zerolog/log"
)

// TokenIssuer mints session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// AuthHandler handles registration, login and identity lookups.
type AuthHandler struct {
	service services.UserServiceProvider
	tokens  TokenIssuer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{service: service, tokens: tokens}
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Token string             `json:"token"`
	User  models.UserSummary `json:"user"`
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.Register(r.Context(), payload.Email, payload.Password, payload.Name)
	if err != nil {
		if _, ok := apperr.As(err); !ok {
			log.Error().Err(err).Msg("Failed to register user")
		}
		respond.Error(w, err)
		return
	}

	h.startSession(w, http.StatusCreated, user)
}

// Login handles user authentication and token generation.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			log.Warn().Err(err).Msg("Failed authentication attempt")
		} else {
			log.Error().Err(err).Msg("Failed to authenticate user")
		}
		respond.Error(w, err)
		return
	}

	h.startSession(w, http.StatusOK, user)
}

// Me returns the profile of the user the request is authenticated as.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			log.Warn().Err(err).Int64("user_id", userID).Msg("User from token not found in DB")
		} else {
			log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user")
		}
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, status int, user models.User) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to generate token")
		respond.InternalError(w)
		return
	}
	respond.JSON(w, status, SessionResponse{Token: token, User: user.Summary()})
}
