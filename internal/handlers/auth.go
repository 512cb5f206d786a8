package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stanstork/admingate/internal/authz"
	"github.com/stanstork/admingate/internal/models"
	"github.com/stanstork/admingate/internal/repository"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	userRepository repository.UserRepository
	jwtSecret      []byte
	logger         zerolog.Logger
}

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(userRepo repository.UserRepository, jwtSecret string, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		jwtSecret:      []byte(jwtSecret),
		logger:         logger,
	}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	// Self-service accounts are never administrators.
	user, err := h.userRepository.CreateUser(req.Email, req.Password, req.FirstName, req.LastName, models.RoleUser)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			http.Error(w, "User already exists", http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Msg("failed to create user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userRepository.AuthenticateUser(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidCredentials), errors.Is(err, repository.ErrUserInactive):
			http.Error(w, "Authentication failed: invalid credentials", http.StatusUnauthorized)
		default:
			h.logger.Error().Err(err).Msg("failed to authenticate user")
			http.Error(w, "Authentication failed", http.StatusInternalServerError)
		}
		return
	}

	tokenString, err := h.IssueToken(user, time.Now())
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to sign token")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": tokenString})
}

// IssueToken signs an HS256 token for user valid for 24 hours from now.
func (h *AuthHandler) IssueToken(user models.User, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(tokenTTL).Unix(),
	})
	return token.SignedString(h.jwtSecret)
}

// JWTMiddleware resolves the bearer token into a Principal on the request
// context. The role is taken from the stored user on every request, so a
// demoted or deleted account loses access before its token expires. Role
// checks belong to authz.
func (h *AuthHandler) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
			return
		}
		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return h.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			h.logger.Debug().Err(err).Msg("rejected bearer token")
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !claims.VerifyExpiresAt(time.Now().Unix(), true) {
			http.Error(w, "Token expired", http.StatusUnauthorized)
			return
		}
		userID, ok := claims["sub"].(string)
		if !ok || userID == "" {
			http.Error(w, "Missing token claim", http.StatusUnauthorized)
			return
		}

		user, err := h.userRepository.GetUserByID(userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "User no longer exists", http.StatusUnauthorized)
				return
			}
			h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to resolve token subject")
			http.Error(w, "Failed to resolve user", http.StatusInternalServerError)
			return
		}
		if !user.IsActive {
			http.Error(w, "User is inactive", http.StatusUnauthorized)
			return
		}

		ctx := authz.WithPrincipal(r.Context(), principalFromUser(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Me returns the caller's resolved principal.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := authz.PrincipalFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, principal)
}

func principalFromUser(user models.User) *models.Principal {
	return models.NewPrincipal(user.ID, user.Email, user.Role)
}
