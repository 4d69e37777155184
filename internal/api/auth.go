package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/elaw611/isy-bridge/internal/auth"
)

// loginRequest is the JSON body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse carries the issued access token.
type loginResponse struct {
	Token            string `json:"token"`
	TokenType        string `json:"token_type"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

// handleLogin validates the configured account credentials and issues a JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	// Verify the password hash even on a username mismatch so both
	// failure paths take comparable time.
	usernameMatch := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.cfg.Auth.Username)) == 1
	passwordMatch, err := auth.VerifyPassword(req.Password, s.cfg.Auth.PasswordHash)
	if err != nil {
		s.logger.Error("password verification failed", "error", err)
		writeUnauthorized(w, "invalid credentials")
		return
	}
	if !usernameMatch || !passwordMatch {
		s.logger.Warn("login rejected", "username", req.Username)
		writeUnauthorized(w, "invalid credentials")
		return
	}

	ttl := s.secCfg.JWT.AccessTokenTTL
	token, err := auth.GenerateToken(req.Username, s.secCfg.JWT.Secret, ttl)
	if err != nil {
		s.logger.Error("token generation failed", "error", err)
		writeInternalError(w, "could not issue token")
		return
	}

	s.logger.Info("login succeeded", "username", req.Username)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:            token,
		TokenType:        "Bearer",
		ExpiresInMinutes: ttl,
	})
}
