package auth

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)

// AuthHandlers обработчики аутентификации
type AuthHandlers struct {
	storage         repository.Storage
	jwtService      *JWTService
	passwordService *PasswordService
	log             *zap.Logger
}

// NewAuthHandlers создает новые обработчики аутентификации
func NewAuthHandlers(storage repository.Storage, jwtService *JWTService, passwordService *PasswordService, log *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		storage:         storage,
		jwtService:      jwtService,
		passwordService: passwordService,
		log:             log,
	}
}

// RegisterRequest структура запроса регистрации
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest структура запроса входа
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest структура запроса обновления токенов
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse структура ответа аутентификации
type AuthResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         UserInfo `json:"user"`
}

// UserInfo информация о пользователе
type UserInfo struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// ErrorResponse структура ошибки
type ErrorResponse struct {
	Error string `json:"error"`
}

// Register обработчик регистрации
//
//	@Summary		Register a new user
//	@Description	Create a new user account
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest	true	"Registration request"
//	@Success		201		{object}	AuthResponse	"User registered successfully"
//	@Failure		400		{object}	ErrorResponse	"Invalid request data"
//	@Failure		409		{object}	ErrorResponse	"User already exists"
//	@Router			/api/auth/register [post]
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid registration request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if !isValidEmail(req.Email) {
		writeError(w, "Invalid email format", http.StatusBadRequest)
		return
	}
	if !usernamePattern.MatchString(req.Username) {
		writeError(w, "Username must be 3-50 characters of letters, digits, '_' or '-'", http.StatusBadRequest)
		return
	}
	if err := ValidatePassword(req.Password); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hashedPassword, err := h.passwordService.HashPassword(req.Password)
	if err != nil {
		h.log.Error("failed to hash password", zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Уникальность email и username проверяет хранилище
	user := &domain.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hashedPassword,
	}
	if err := h.storage.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			writeError(w, "User with this email or username already exists", http.StatusConflict)
			return
		}
		h.log.Error("failed to create user", zap.String("email", req.Email), zap.Error(err))
		writeError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	h.log.Info("user registered successfully", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	h.respondWithTokens(w, user, http.StatusCreated)
}

// Login обработчик входа
//
//	@Summary		Login user
//	@Description	Authenticate user and receive JWT tokens
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Login request"
//	@Success		200		{object}	AuthResponse	"Login successful"
//	@Failure		400		{object}	ErrorResponse	"Invalid request data"
//	@Failure		401		{object}	ErrorResponse	"Invalid credentials"
//	@Router			/api/auth/login [post]
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid login request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.storage.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.log.Error("failed to load user", zap.Error(err))
		}
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := h.passwordService.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		h.log.Debug("invalid password for user", zap.Int64("user_id", user.ID))
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	// Обновляем время последнего входа
	now := time.Now()
	user.LastLoginAt = &now
	if err := h.storage.UpdateUser(r.Context(), user); err != nil {
		h.log.Warn("failed to update last login time", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	h.log.Info("user logged in successfully", zap.Int64("user_id", user.ID))
	h.respondWithTokens(w, user, http.StatusOK)
}

// Refresh обработчик обновления токенов
//
//	@Summary		Refresh tokens
//	@Description	Exchange a refresh token for a new token pair
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RefreshRequest	true	"Refresh request"
//	@Success		200		{object}	AuthResponse	"Tokens refreshed"
//	@Failure		401		{object}	ErrorResponse	"Invalid refresh token"
//	@Router			/api/auth/refresh [post]
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		writeError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	user, err := h.storage.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	h.respondWithTokens(w, user, http.StatusOK)
}

func (h *AuthHandlers) respondWithTokens(w http.ResponseWriter, user *domain.User, statusCode int) {
	accessToken, err := h.jwtService.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		h.log.Error("failed to generate access token", zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		h.log.Error("failed to generate refresh token", zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: UserInfo{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
		},
	}, statusCode)
}

// Helper methods

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: message}, statusCode)
}

func isValidEmail(email string) bool {
	// Простая валидация email
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && len(email) < 255
}
