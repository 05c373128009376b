package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
)

// maxBodyBytes bounds request bodies on every route.
const maxBodyBytes = 1 << 16

type handler struct {
	users    map[string]string
	sessions *SessionStore
	logger   *log.Logger
}

func (h *handler) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
	mux.HandleFunc("GET /login", h.loginPage)
	mux.HandleFunc("POST /login", h.loginSubmit)
	mux.HandleFunc("GET /dashboard", h.dashboard)
	mux.HandleFunc("POST /logout", h.logoutSubmit)

	mux.HandleFunc("POST /auth/login", h.apiLogin)
	mux.HandleFunc("POST /auth/logout", h.apiLogout)
	mux.HandleFunc("GET /health", h.health)

	return http.MaxBytesHandler(mux, maxBodyBytes)
}

func (h *handler) loginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.Lookup(sessionToken(r)); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, http.StatusOK, loginView{})
}

func (h *handler) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, http.StatusBadRequest, loginView{Error: "Malformed form submission"})
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	switch err := authenticate(h.users, username, password); {
	case errors.Is(err, ErrMissingCredentials):
		h.logger.Debug("login rejected", "reason", "missing credentials")
		h.renderLogin(w, http.StatusOK, loginView{Error: MsgMissingCredentials, Username: username})
		return
	case errors.Is(err, ErrInvalidCredentials):
		h.logger.Info("login rejected", "user", username, "reason", "invalid credentials")
		h.renderLogin(w, http.StatusUnauthorized, loginView{Error: MsgInvalidCredentials, Username: username})
		return
	}

	token, err := h.sessions.Create(username)
	if err != nil {
		h.logger.Error("failed to create session", "user", username, "err", err)
		h.renderLogin(w, http.StatusInternalServerError, loginView{Error: "Internal error"})
		return
	}
	h.logger.Info("login succeeded", "user", username)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	username, err := h.sessions.Lookup(sessionToken(r))
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTemplate.Execute(w, dashboardView{Username: username}); err != nil {
		h.logger.Error("failed to render dashboard", "err", err)
	}
}

func (h *handler) logoutSubmit(w http.ResponseWriter, r *http.Request) {
	h.endSession(sessionToken(r))
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (h *handler) apiLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	switch err := authenticate(h.users, req.Username, req.Password); {
	case errors.Is(err, ErrMissingCredentials):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: MsgMissingCredentials})
		return
	case errors.Is(err, ErrInvalidCredentials):
		h.logger.Info("api login rejected", "user", req.Username)
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: MsgInvalidCredentials})
		return
	}

	token, err := h.sessions.Create(req.Username)
	if err != nil {
		h.logger.Error("failed to create session", "user", req.Username, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal error"})
		return
	}
	h.writeJSON(w, http.StatusOK, loginResponse{Token: token, Username: req.Username})
}

func (h *handler) apiLogout(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	h.endSession(sessionToken(r))
	clearSessionCookie(w)
	h.writeJSON(w, http.StatusOK, statusResponse{Status: "logged out"})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	n, _ := io.Copy(io.Discard, r.Body)
	if n > 0 {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Unexpected request body"})
		return
	}
	h.writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// endSession drops the session behind token. Unknown or forged tokens are
// ignored so logout stays idempotent.
func (h *handler) endSession(token string) {
	if token == "" {
		return
	}
	if err := h.sessions.Delete(token); err != nil {
		h.logger.Debug("logout without valid session", "err", err)
	}
}

func (h *handler) renderLogin(w http.ResponseWriter, status int, view loginView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := loginTemplate.Execute(w, view); err != nil {
		h.logger.Error("failed to render login page", "err", err)
	}
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "err", err)
	}
}

// sessionToken extracts the session token from a bearer header or the
// session cookie, in that order.
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
