package service

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
)

// respondJSON writes a JSON response. Mirrors the helper used by the two
// protocol-surface handlers.
func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode management response", "error", err)
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]string{"error": message})
}

// clientIP extracts the caller's address for the activity log, preferring
// X-Forwarded-For/X-Real-IP (reverse proxy) over r.RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// handleHealth reports process liveness (spec.md §6).
func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, slog.Default(), http.StatusOK, map[string]bool{"alive": true})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// handleAuth exchanges a username/password for a bearer token (spec.md §6).
// Every attempt is recorded to the activity log: successes against the
// resolved account id, failures against it too once the username is known.
// Failures against an unknown username are never logged, since there is no
// account id to attach them to.
func handleAuth(accounts auth.AccountStore, activityLog *auth.ActivityLog, tokens *auth.TokenIssuer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, logger, http.StatusBadRequest, "request body must be valid JSON")
			return
		}
		if req.Username == "" || req.Password == "" {
			respondError(w, logger, http.StatusBadRequest, "username and password are required")
			return
		}

		ip := clientIP(r)
		userAgent := r.UserAgent()

		account, err := accounts.GetAccountByUsername(r.Context(), req.Username)
		if err != nil {
			respondError(w, logger, http.StatusUnauthorized, "invalid username or password")
			return
		}

		ok, err := auth.VerifyPassword(req.Password, account.PasswordHash)
		if err != nil {
			logger.Error("password verification failed", "error", err)
			respondError(w, logger, http.StatusInternalServerError, "authentication failed")
			return
		}
		if !ok {
			if err := activityLog.RecordFailure(r.Context(), account.ID, ip, userAgent); err != nil {
				logger.Error("failed to record login failure", "error", err)
			}
			respondError(w, logger, http.StatusUnauthorized, "invalid username or password")
			return
		}

		token, err := tokens.Issue(account.ID)
		if err != nil {
			logger.Error("failed to issue token", "error", err)
			respondError(w, logger, http.StatusInternalServerError, "authentication failed")
			return
		}
		if err := activityLog.RecordSuccess(r.Context(), account.ID, ip, userAgent); err != nil {
			logger.Error("failed to record login success", "error", err)
		}

		respondJSON(w, logger, http.StatusOK, loginResponse{Token: token})
	}
}
