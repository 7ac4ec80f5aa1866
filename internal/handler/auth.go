package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/apperror"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/auth"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler drives the OAuth login flow: redirect out, exchange the code
// on the way back, mirror the user from the directory and issue the session
// cookie.
type AuthHandler struct {
	provider *auth.Provider
	tokens   *auth.TokenService
	identity *service.IdentityService
	users    *service.UserService
	logger   *slog.Logger
}

func NewAuthHandler(
	provider *auth.Provider,
	tokens *auth.TokenService,
	identity *service.IdentityService,
	users *service.UserService,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		tokens:   tokens,
		identity: identity,
		users:    users,
		logger:   logger,
	}
}

// HandleLogin starts the flow: store a random state in a short-lived cookie
// and send the user to the auth server.
//
// GET /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback finishes the flow: verify the state, exchange the code,
// introspect the token for the username, mirror the user from the directory
// and set the session cookie.
//
// GET /auth/callback?code=...&state=...
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// One-shot: clear the state cookie whatever happens next.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	token, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: code exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	username, err := h.provider.Introspect(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Error("auth callback: introspection failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	user, err := h.identity.ResolveOrCreate(r.Context(), token.AccessToken, username)
	if err != nil {
		h.logger.Error("auth callback: resolving user failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		// A failed directory call denies the login; no session is issued.
		writeError(w, err)
		return
	}
	if user == nil {
		// Authenticated against the auth server but unknown to the
		// directory. The session is still valid; user data stays absent.
		h.logger.Warn("auth callback: no directory record", slog.String("username", username))
	}

	sessionToken, err := h.tokens.Generate(username, token.AccessToken)
	if err != nil {
		h.logger.Error("auth callback: token generation failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    sessionToken,
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("user authenticated", slog.String("username", username))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the stored record of the authenticated user.
//
// GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	user, err := h.users.Get(r.Context(), identity.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
