package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tastebud/apiserver/internal/auth"
	"github.com/tastebud/apiserver/internal/mailer"
	"github.com/tastebud/apiserver/internal/services"
	"github.com/tastebud/apiserver/internal/storage"
	"github.com/tastebud/apiserver/internal/store"
	"github.com/tastebud/apiserver/types"
)

// forgotPasswordMessage is returned for every well-formed
// forgot-password request, registered address or not.
const forgotPasswordMessage = "if that email is registered, a reset link has been sent"

// AuthHandler provides authentication and account endpoints.
type AuthHandler struct {
	userService *services.UserService
	mailer      mailer.Mailer
	storage     storage.ObjectStorage
	secret      []byte
	tokenTTL    time.Duration
	publicURL   string
}

// AuthConfig carries the dependencies for AuthRouter.
type AuthConfig struct {
	UserService *services.UserService
	Mailer      mailer.Mailer
	Storage     storage.ObjectStorage
	JWTSecret   string
	TokenTTL    time.Duration
	PublicURL   string
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(cfg AuthConfig) *AuthHandler {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = auth.DefaultTokenTTL
	}
	return &AuthHandler{
		userService: cfg.UserService,
		mailer:      cfg.Mailer,
		storage:     cfg.Storage,
		secret:      []byte(cfg.JWTSecret),
		tokenTTL:    ttl,
		publicURL:   strings.TrimRight(cfg.PublicURL, "/"),
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, cfg AuthConfig) *AuthHandler {
	handler := NewAuthHandler(cfg)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/forgot-password", handler.ForgotPassword)
	r.Post("/reset-password", handler.ResetPassword)
	r.Group(func(r chi.Router) {
		r.Use(handler.RequireAuth)
		r.Get("/me", handler.Me)
		r.Post("/change-password", handler.ChangePassword)
		r.Put("/me/avatar", handler.UploadAvatar)
	})
	return handler
}

// RequireAuth validates the bearer token, loads the account behind it,
// and stores the identity in the request context. All failures produce
// the same 401 so expired and malformed tokens are indistinguishable.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		userID, err := auth.ParseUserID(tokenString, h.secret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := h.userService.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load user")
			return
		}

		ctx := context.WithValue(r.Context(), contextUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Register creates a new user account and returns a session token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.userService.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.FullName,
		Password: req.Password,
	})
	if err != nil {
		// Duplicate email and username produce distinct messages so the
		// signup form can point at the right field.
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, "email already exists")
		case errors.Is(err, store.ErrDuplicateUsername):
			writeError(w, http.StatusBadRequest, "username already exists")
		default:
			var validationErr *services.ValidationError
			if errors.As(err, &validationErr) {
				writeError(w, http.StatusBadRequest, validationErr.Message)
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	token, err := auth.IssueToken(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

// Login verifies credentials and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	token, err := auth.IssueToken(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ForgotPassword starts the reset flow. The response shape never
// reveals whether the address is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	rawToken, user, err := h.userService.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, ForgotPasswordResponse{Message: forgotPasswordMessage})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to process request")
		return
	}

	link := h.resetLink(rawToken)

	if h.mailer == nil {
		// No delivery channel configured: hand the link back directly.
		// Dev environments only; the token is still hashed at rest.
		writeJSON(w, http.StatusOK, ForgotPasswordResponse{
			Message:      forgotPasswordMessage,
			DevResetLink: link,
		})
		return
	}

	if err := h.mailer.SendPasswordReset(r.Context(), user.Email, user.Name, link); err != nil {
		// The token stays valid; re-requesting mints a replacement.
		writeError(w, http.StatusBadGateway, "failed to deliver reset email")
		return
	}

	writeJSON(w, http.StatusOK, ForgotPasswordResponse{Message: forgotPasswordMessage})
}

// ResetPassword exchanges a reset token for a new password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.userService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Message)
		case errors.Is(err, services.ErrInvalidResetToken):
			writeError(w, http.StatusBadRequest, "invalid or expired token")
		default:
			writeError(w, http.StatusInternalServerError, "failed to reset password")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "password updated"})
}

// ChangePassword updates the password of the authenticated user.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Message)
		case errors.Is(err, services.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "current password is incorrect")
		default:
			writeError(w, http.StatusInternalServerError, "failed to change password")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "password updated"})
}

// UploadAvatar stores a new avatar image for the authenticated user.
func (h *AuthHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "uploads are not configured")
		return
	}

	upload, err := parseImageUpload(r, "avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := storage.NewImageKey("avatars", upload.ContentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.storage.Put(r.Context(), key, upload.Reader(), upload.Size(), upload.ContentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	avatarURL := "/images/" + key
	if err := h.userService.UpdateAvatar(r.Context(), user.ID, avatarURL); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update avatar")
		return
	}

	user.AvatarURL = avatarURL
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) resetLink(rawToken string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", h.publicURL, rawToken)
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ForgotPasswordResponse struct {
	Message      string `json:"message"`
	DevResetLink string `json:"devResetLink,omitempty"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}
