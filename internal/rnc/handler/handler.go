// Package handler exposes the record lifecycle over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nonconf/internal/feed"
	"nonconf/internal/policy"
	"nonconf/internal/rnc/models"
	"nonconf/internal/rnc/service"
	id "nonconf/pkg/domain"
	dErrors "nonconf/pkg/domain-errors"
	"nonconf/pkg/platform/httputil"
	"nonconf/pkg/requestcontext"
)

// Service defines the record operations the handler depends on.
type Service interface {
	Create(ctx context.Context, actor policy.Actor, input service.CreateInput) (*models.Record, error)
	Get(ctx context.Context, recordID id.RecordID) (*models.Aggregate, error)
	List(ctx context.Context) ([]*models.Record, error)
	Update(ctx context.Context, actor policy.Actor, recordID id.RecordID, input service.UpdateInput) (*models.Record, error)
	Delete(ctx context.Context, actor policy.Actor, recordID id.RecordID) error
	Transition(ctx context.Context, actor policy.Actor, recordID id.RecordID, target models.Status, notes string) (*models.Record, error)
	Assign(ctx context.Context, actor policy.Actor, recordID id.RecordID, assignee id.UserID) (*models.Record, error)
	MarkCollected(ctx context.Context, actor policy.Actor, recordID id.RecordID) (*models.Record, error)
	AddProduct(ctx context.Context, actor policy.Actor, recordID id.RecordID, name string, weight float64) (*models.Product, error)
	AddContact(ctx context.Context, actor policy.Actor, recordID id.RecordID, name, phone, email string) (*models.Contact, error)
	Comment(ctx context.Context, actor policy.Actor, recordID id.RecordID, body string) (*models.Event, error)
	DeleteComment(ctx context.Context, actor policy.Actor, eventID id.EventID) error
	Transitions(ctx context.Context, recordID id.RecordID) ([]*models.Transition, error)
}

// Handler wires record endpoints to the record service.
type Handler struct {
	service Service
	watcher *feed.Reconciler
	logger  *slog.Logger
}

func New(service Service, watcher *feed.Reconciler, logger *slog.Logger) *Handler {
	return &Handler{service: service, watcher: watcher, logger: logger}
}

// Register mounts record endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/records", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Route("/{recordID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Patch("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)
			r.Post("/transition", h.HandleTransition)
			r.Get("/transitions", h.HandleListTransitions)
			r.Get("/watch", h.HandleWatch)
			r.Post("/assign", h.HandleAssign)
			r.Post("/collect", h.HandleCollect)
			r.Post("/products", h.HandleAddProduct)
			r.Post("/contacts", h.HandleAddContact)
			r.Post("/comments", h.HandleComment)
			r.Delete("/comments/{eventID}", h.HandleDeleteComment)
		})
	})
}

// actor pulls the authenticated actor set by the auth middleware. A missing
// actor is an unauthorized response, not a panic.
func actor(w http.ResponseWriter, r *http.Request) (policy.Actor, bool) {
	act, ok := policy.ActorFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return policy.Actor{}, false
	}
	return act, true
}

func recordID(w http.ResponseWriter, r *http.Request) (id.RecordID, bool) {
	recID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed record id"))
		return id.RecordID{}, false
	}
	return recID, true
}

// HandleCreate handles POST /records.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	act, ok := actor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[CreateRecordRequest](w, r)
	if !ok {
		return
	}

	record, err := h.service.Create(ctx, act, req.ToInput())
	if err != nil {
		h.logger.ErrorContext(ctx, "record creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(record))
}

// HandleList handles GET /records.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecords(records))
}

// HandleGet handles GET /records/{recordID}, returning the full aggregate.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	recID, ok := recordID(w, r)
	if !ok {
		return
	}
	aggregate, err := h.service.Get(r.Context(), recID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAggregate(aggregate))
}

// HandleUpdate handles PATCH /records/{recordID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	recID, ok := recordID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[UpdateRecordRequest](w, r)
	if !ok {
		return
	}

	record, err := h.service.Update(r.Context(), act, recID, req.ToInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// HandleDelete handles DELETE /records/{recordID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	act, ok := actor(w, r)
	if !ok {
		return
	}
	recID, ok := recordID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, act, recID); err != nil {
		h.logger.ErrorContext(ctx, "record deletion failed",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", recID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTransition handles POST /records/{recordID}/transition.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	recID, ok := recordID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[TransitionRequest](w, r)
	if !ok {
		return
	}
	target, err := req.ParsedTarget()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.Transition(r.Context(), act, recID, target, req.Notes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// HandleListTransitions handles GET /records/{recordID}/transitions.
func (h *Handler) HandleListTransitions(w http.ResponseWriter, r *http.Request) {
	recID, ok := recordID(w, r)
	if !ok {
		return
	}
	transitions, err := h.service.Transitions(r.Context(), recID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTransitions(transitions))
}

// HandleAssign handles POST /records/{recordID}/assign.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	recID, ok := recordID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[AssignRequest](w, r)
	if !ok {
		return
	}
	assignee, err := id.ParseUserID(req.AssigneeID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "malformed assignee id"))
		return
	}

	record, err := h.service.Assign(r.Context(), act, recID, assignee)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// HandleCollect handles POST /records/{recordID}/collect.
func (h *Handler) HandleCollect(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	recID, ok := recordID(w, r)
	if !ok {
		return
	}

	record, err := h.service.MarkCollected(r.Context(), act, recID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// HandleAddProduct handles POST /records/{recordID}/products.
func (h *Handler) HandleAddProduct(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	recID, ok := recordID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[AddProductRequest](w, r)
	if !ok {
		return
	}

	product, err := h.service.AddProduct(r.Context(), act, recID, req.Name, req.Weight)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromProduct(product))
}

// HandleAddContact handles POST /records/{recordID}/contacts.
func (h *Handler) HandleAddContact(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	recID, ok := recordID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[AddContactRequest](w, r)
	if !ok {
		return
	}

	contact, err := h.service.AddContact(r.Context(), act, recID, req.Name, req.Phone, req.Email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromContact(contact))
}

// HandleComment handles POST /records/{recordID}/comments.
func (h *Handler) HandleComment(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	recID, ok := recordID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[CommentRequest](w, r)
	if !ok {
		return
	}

	event, err := h.service.Comment(r.Context(), act, recID, req.Body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromEvent(event))
}

// HandleWatch handles GET /records/{recordID}/watch as a server-sent event
// stream. The current aggregate is pushed first; after that every mutation
// pushes a freshly loaded aggregate. Deletion pushes a "deleted" event and
// ends the stream.
func (h *Handler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	recID, ok := recordID(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	ctx := r.Context()
	aggregate, err := h.service.Get(ctx, recID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	updates := make(chan *models.Aggregate, 1)
	watch, err := h.watcher.Watch(ctx, recID, func(a *models.Aggregate) {
		select {
		case updates <- a:
		case <-ctx.Done():
		}
	})
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "record watch unavailable"))
		return
	}
	defer watch.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	h.writeEvent(w, "aggregate", FromAggregate(aggregate))
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case aggregate := <-updates:
			if aggregate == nil {
				h.writeEvent(w, "deleted", map[string]string{"record_id": recID.String()})
				flusher.Flush()
				return
			}
			h.writeEvent(w, "aggregate", FromAggregate(aggregate))
			flusher.Flush()
		}
	}
}

func (h *Handler) writeEvent(w io.Writer, name string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal stream event", "event", name, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, body)
}

// HandleDeleteComment handles DELETE /records/{recordID}/comments/{eventID}.
func (h *Handler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed event id"))
		return
	}

	if err := h.service.DeleteComment(r.Context(), act, eventID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
