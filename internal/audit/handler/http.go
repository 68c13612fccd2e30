// Package handler exposes read access to the audit trail for the admin
// portal's operations screens. Listing requires a live admin-portal session;
// the auth service is the session arbiter.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	auditrepo "talentgrid/backend/internal/audit/repository"
	"talentgrid/backend/internal/auth/service"
	"talentgrid/backend/internal/token"
	userdomain "talentgrid/backend/internal/user/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// SessionValidator resolves a bearer session token to its live owner.
// *service.Service implements it.
type SessionValidator interface {
	ValidateSession(ctx context.Context, rawToken string) (*userdomain.User, error)
}

type Handler struct {
	repo     auditrepo.Repository
	sessions SessionValidator
	log      *slog.Logger
}

func New(repo auditrepo.Repository, sessions SessionValidator, log *slog.Logger) *Handler {
	return &Handler{repo: repo, sessions: sessions, log: log}
}

// Register wires the audit routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/audit/{portal}", h.list)
}

type entry struct {
	ID        string    `json:"id"`
	Portal    string    `json:"portal"`
	Region    string    `json:"region"`
	UserID    string    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type listResponse struct {
	Entries []entry `json:"entries"`
}

// requireAdmin validates the bearer session and checks the owner belongs to
// the admin portal. Any token failure is a uniform 401; a live session from
// another portal is a 403.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
		return false
	}
	u, err := h.sessions.ValidateSession(r.Context(), raw)
	if err != nil {
		if errors.Is(err, service.ErrTokenInvalid) || errors.Is(err, token.ErrMalformed) ||
			errors.Is(err, token.ErrUnknownRegion) || errors.Is(err, token.ErrRegionMismatch) {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return false
		}
		h.log.ErrorContext(r.Context(), "audit session check", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return false
	}
	if u.Portal != userdomain.PortalAdmin {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return false
	}
	return true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	portal := r.PathValue("portal")
	limit := int32(defaultLimit)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 || n > maxLimit {
			http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
			return
		}
		limit = int32(n)
	}
	var offset int32
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			http.Error(w, `{"error":"invalid offset"}`, http.StatusBadRequest)
			return
		}
		offset = int32(n)
	}

	logs, err := h.repo.ListByPortal(r.Context(), portal, limit, offset)
	if err != nil {
		h.log.ErrorContext(r.Context(), "audit list", "portal", portal, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	resp := listResponse{Entries: make([]entry, 0, len(logs))}
	for _, a := range logs {
		resp.Entries = append(resp.Entries, entry{
			ID: a.ID, Portal: a.Portal, Region: a.Region, UserID: a.UserID,
			Action: a.Action, IP: a.IP, Metadata: a.Metadata, CreatedAt: a.CreatedAt,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
