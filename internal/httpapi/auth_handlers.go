package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/racetype/tourney-server/internal/auth"
	"github.com/racetype/tourney-server/internal/store"
)

const tokenTTL = 30 * 24 * time.Hour

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register handles account creation, grounded in the original
// prototype's register handler (_examples/original_source/api/src/action/handlers.rs's
// sibling user-account flow) adapted to bcrypt + an HMAC bearer token
// instead of the prototype's own auth stack.
func Register(users *store.UserRepo, issuer auth.TokenIssuer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username, email, and password are required")
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			logger.Error("hash password failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		user, err := users.Create(req.Username, req.Email, hash)
		if err != nil {
			writeError(w, http.StatusConflict, "username or email already taken")
			return
		}

		token, err := issuer.Issue(user.ID, tokenTTL)
		if err != nil {
			logger.Error("issue token failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
	}
}

// Login handles credential verification and bearer token issuance.
func Login(users *store.UserRepo, issuer auth.TokenIssuer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		user, err := users.ByEmail(req.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			logger.Error("lookup user failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if !auth.ComparePassword(user.PasswordHash, req.Password) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		token, err := issuer.Issue(user.ID, tokenTTL)
		if err != nil {
			logger.Error("issue token failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, tokenResponse{Token: token})
	}
}
