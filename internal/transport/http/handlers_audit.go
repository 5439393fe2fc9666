package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/audit"
	"gatehouse/pkg/platform/httputil"
	"gatehouse/pkg/platform/pagination"
	"gatehouse/pkg/platform/sentinel"
)

type auditEntryView struct {
	ID          string          `json:"id"`
	EntityType  string          `json:"entity_type"`
	EntityID    string          `json:"entity_id"`
	Action      string          `json:"action"`
	PerformedBy *string         `json:"performed_by"`
	Before      json.RawMessage `json:"before"`
	After       json.RawMessage `json:"after"`
	IPAddress   string          `json:"ip_address"`
	CreatedAt   time.Time       `json:"created_at"`
}

func auditEntryViewOf(e *audit.Entry) auditEntryView {
	v := auditEntryView{
		ID:         e.ID.String(),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		Before:     e.Before,
		After:      e.After,
		IPAddress:  e.IPAddress,
		CreatedAt:  e.CreatedAt,
	}
	if e.PerformedBy != nil {
		performer := e.PerformedBy.String()
		v.PerformedBy = &performer
	}
	return v
}

// handleAdminListAuditLogs pages through audit entries, newest first.
// Soft-deleted entries never appear.
func (h *Handler) handleAdminListAuditLogs(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)

	entries, total, err := h.auditStore.List(r.Context(), page)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries"))
		return
	}

	views := make([]auditEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, auditEntryViewOf(e))
	}
	httputil.WriteJSON(w, http.StatusOK, envelope{Data: views, Meta: metaPtr(pagination.MetaFor(page, total))})
}

func (h *Handler) handleAdminGetAuditLog(w http.ResponseWriter, r *http.Request) {
	entryID, err := id.ParseEntryID(chi.URLParam(r, "entryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.auditStore.FindByID(r.Context(), entryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "audit entry not found"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit entry"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, envelope{Data: auditEntryViewOf(entry)})
}
