package notification

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"nonconf/internal/policy"
	id "nonconf/pkg/domain"
	dErrors "nonconf/pkg/domain-errors"
	"nonconf/pkg/platform/httputil"
	"nonconf/pkg/platform/sentinel"
)

// Handler exposes the recipient-facing notification endpoints.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Register mounts notification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.HandleList)
	r.Post("/notifications/{notificationID}/read", h.HandleMarkRead)
}

// NotificationResponse is the wire shape of a notification row.
type NotificationResponse struct {
	ID        string    `json:"id"`
	RecordID  string    `json:"record_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleList handles GET /notifications for the authenticated actor.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := policy.ActorFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	rows, err := h.store.ListByUser(r.Context(), actor.ID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list notifications"))
		return
	}
	out := make([]NotificationResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, NotificationResponse{
			ID:        row.ID.String(),
			RecordID:  row.RecordID.String(),
			Title:     row.Title,
			Message:   row.Message,
			Read:      row.Read,
			CreatedAt: row.CreatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleMarkRead handles POST /notifications/{notificationID}/read. The store
// scopes the write to the actor, so one recipient cannot mark another's rows.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := policy.ActorFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed notification id"))
		return
	}

	if err := h.store.MarkRead(r.Context(), notificationID, actor.ID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "notification not found"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "mark notification read"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
