// Package handler exposes the auth service over HTTP. Every route is scoped
// by portal: POST /{portal}/auth/login, POST /{portal}/auth/signup/request,
// and so on. Responses are JSON; service sentinel errors map to stable
// status codes so portal frontends can branch on them.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"talentgrid/backend/internal/auth/service"
	"talentgrid/backend/internal/security"
	"talentgrid/backend/internal/token"
	userdomain "talentgrid/backend/internal/user/domain"
)

type Handler struct {
	svc *service.Service
	log *slog.Logger
}

func New(svc *service.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register wires the auth routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /{portal}/auth/signup/request", h.requestSignup)
	mux.HandleFunc("POST /{portal}/auth/signup/complete", h.completeSignup)
	mux.HandleFunc("POST /{portal}/auth/login", h.login)
	mux.HandleFunc("POST /{portal}/auth/tfa/verify", h.verifyTFA)
	mux.HandleFunc("POST /{portal}/auth/logout", h.logout)
	mux.HandleFunc("POST /{portal}/auth/password/change", h.changePassword)
	mux.HandleFunc("POST /{portal}/auth/password/reset/request", h.requestPasswordReset)
	mux.HandleFunc("POST /{portal}/auth/password/reset/complete", h.completePasswordReset)
	mux.HandleFunc("POST /{portal}/auth/email/change/request", h.requestEmailChange)
	mux.HandleFunc("POST /{portal}/auth/email/change/complete", h.completeEmailChange)
}

// unauthorizedError is the single body for every 401 response.
const unauthorizedError = "invalid or expired credentials"

type errorResponse struct {
	Error  string               `json:"error"`
	Fields []security.Violation `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service sentinels to the transport error taxonomy.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: ve.Fields})
		return
	}
	switch {
	case errors.Is(err, token.ErrMalformed), errors.Is(err, token.ErrUnknownRegion),
		errors.Is(err, service.ErrSameEmail):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrTokenInvalid), errors.Is(err, service.ErrBadCredential),
		errors.Is(err, token.ErrRegionMismatch):
		// One body for the whole class: a region-mismatched token must read
		// exactly like an invalid one, or the mismatch reveals the token
		// exists in another region.
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: unauthorizedError})
	case errors.Is(err, service.ErrDomainNotApproved), errors.Is(err, service.ErrWrongCode):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUserExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrAccountDisabled):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		h.log.ErrorContext(r.Context(), "auth handler", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// portal parses the path's portal segment; unknown portals are a 400.
func (h *Handler) portal(w http.ResponseWriter, r *http.Request) (userdomain.Portal, bool) {
	p, err := userdomain.ParsePortal(r.PathValue("portal"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown portal"})
		return "", false
	}
	return p, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return false
	}
	return true
}

// bearer extracts the session token from the Authorization header.
func bearer(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	tok, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok || tok == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return "", false
	}
	return strings.TrimSpace(tok), true
}

type signupRequestBody struct {
	Email    string `json:"email"`
	Language string `json:"language"`
}

type signupRequestResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) requestSignup(w http.ResponseWriter, r *http.Request) {
	p, ok := h.portal(w, r)
	if !ok {
		return
	}
	var body signupRequestBody
	if !decode(w, r, &body) {
		return
	}
	issue, err := h.svc.RequestSignup(r.Context(), p, body.Email, body.Language)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	// The token itself travels only by mail.
	writeJSON(w, http.StatusAccepted, signupRequestResponse{ExpiresAt: issue.ExpiresAt})
}

type signupCompleteBody struct {
	Token    string `json:"token"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

type sessionResponse struct {
	UserID       string `json:"user_id"`
	Handle       string `json:"handle,omitempty"`
	SessionToken string `json:"session_token"`
	Region       string `json:"region"`
}

func (h *Handler) completeSignup(w http.ResponseWriter, r *http.Request) {
	p, ok := h.portal(w, r)
	if !ok {
		return
	}
	var body signupCompleteBody
	if !decode(w, r, &body) {
		return
	}
	res, err := h.svc.CompleteSignup(r.Context(), p, body.Token, body.Password, service.Profile{
		Name:     body.Name,
		Language: body.Language,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		UserID:       res.UserID,
		Handle:       res.Handle,
		SessionToken: res.SessionToken,
		Region:       string(res.Region),
	})
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	TFAToken  string    `json:"tfa_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	p, ok := h.portal(w, r)
	if !ok {
		return
	}
	var body loginBody
	if !decode(w, r, &body) {
		return
	}
	res, err := h.svc.Login(r.Context(), p, body.Email, body.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{TFAToken: res.TFAToken, ExpiresAt: res.ExpiresAt})
}

type tfaVerifyBody struct {
	Token    string `json:"token"`
	Code     string `json:"code"`
	Remember bool   `json:"remember"`
}

type tfaVerifyResponse struct {
	SessionToken      string    `json:"session_token"`
	ExpiresAt         time.Time `json:"expires_at"`
	UserID            string    `json:"user_id"`
	Handle            string    `json:"handle"`
	PreferredLanguage string    `json:"preferred_language"`
}

func (h *Handler) verifyTFA(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.portal(w, r); !ok {
		return
	}
	var body tfaVerifyBody
	if !decode(w, r, &body) {
		return
	}
	res, err := h.svc.VerifyTFA(r.Context(), body.Token, body.Code, body.Remember)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tfaVerifyResponse{
		SessionToken:      res.SessionToken,
		ExpiresAt:         res.ExpiresAt,
		UserID:            res.UserID,
		Handle:            res.Handle,
		PreferredLanguage: res.PreferredLanguage,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.portal(w, r); !ok {
		return
	}
	tok, ok := bearer(w, r)
	if !ok {
		return
	}
	if err := h.svc.Logout(r.Context(), tok); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changePasswordBody struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.portal(w, r); !ok {
		return
	}
	tok, ok := bearer(w, r)
	if !ok {
		return
	}
	var body changePasswordBody
	if !decode(w, r, &body) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), tok, body.CurrentPassword, body.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resetRequestBody struct {
	Email string `json:"email"`
}

func (h *Handler) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	p, ok := h.portal(w, r)
	if !ok {
		return
	}
	var body resetRequestBody
	if !decode(w, r, &body) {
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), p, body.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	// Always accepted: whether the address exists is not disclosed.
	w.WriteHeader(http.StatusAccepted)
}

type resetCompleteBody struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) completePasswordReset(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.portal(w, r); !ok {
		return
	}
	var body resetCompleteBody
	if !decode(w, r, &body) {
		return
	}
	if err := h.svc.CompletePasswordReset(r.Context(), body.Token, body.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type emailChangeRequestBody struct {
	NewEmail string `json:"new_email"`
}

func (h *Handler) requestEmailChange(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.portal(w, r); !ok {
		return
	}
	tok, ok := bearer(w, r)
	if !ok {
		return
	}
	var body emailChangeRequestBody
	if !decode(w, r, &body) {
		return
	}
	if err := h.svc.RequestEmailChange(r.Context(), tok, body.NewEmail); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type emailChangeCompleteBody struct {
	Token string `json:"token"`
}

func (h *Handler) completeEmailChange(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.portal(w, r); !ok {
		return
	}
	var body emailChangeCompleteBody
	if !decode(w, r, &body) {
		return
	}
	if err := h.svc.CompleteEmailChange(r.Context(), body.Token); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
