package httpapi

import (
	"errors"
	"net/http"
	"time"

	"bqadmin/internal/auth"
	"bqadmin/internal/logging"
	"bqadmin/internal/middleware"
	"bqadmin/internal/models"
	"bqadmin/internal/storage"
	"bqadmin/internal/utils"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"`
	User      *models.User `json:"user"`
}

// handleLogin checks credentials, opens a session and returns the token.
// The token is also set as an HttpOnly cookie for browsers.
func (d *Dependencies) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	res, err := d.Sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		logging.Errorf("Login failed for %s: %v", req.Email, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  time.Unix(res.ExpiresAt, 0),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	utils.RespondWithJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      res.User,
	})
}

func (d *Dependencies) handleLogout(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	if err := d.Sessions.Logout(r.Context(), identity); err != nil {
		logging.Errorf("Logout failed: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Logout failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleSession returns the user behind the current session.
func (d *Dependencies) handleSession(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	user, err := d.Users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		logging.Errorf("Error loading session user: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, userResponse{User: user})
}
