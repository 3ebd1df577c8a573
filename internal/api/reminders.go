package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"reminderd/internal/reminders"
	"reminderd/internal/types"
)

// ReminderService is the application-service surface the handler needs.
type ReminderService interface {
	Create(ctx context.Context, input reminders.CreateInput) (*types.Reminder, error)
	Get(ctx context.Context, id int64) (*types.Reminder, error)
	List(ctx context.Context) ([]types.Reminder, error)
	Update(ctx context.Context, id int64, input reminders.UpdateInput) (*types.Reminder, error)
	Delete(ctx context.Context, id int64) error
	DisableNotifications(ctx context.Context, id int64) error
	ListFailures(ctx context.Context) ([]types.FailureRecord, error)
}

// ReminderHandler exposes reminder CRUD and the failure-queue view over HTTP.
type ReminderHandler struct {
	svc      ReminderService
	validate *validator.Validate
	log      *slog.Logger
}

// NewReminderHandler creates a ReminderHandler.
func NewReminderHandler(svc ReminderService, log *slog.Logger) *ReminderHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ReminderHandler{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// RegisterRoutes mounts the reminder routes on r.
func (h *ReminderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/reminders", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.update)
			r.Delete("/", h.delete)
			r.Post("/notifications/disable", h.disableNotifications)
		})
	})
	r.Get("/failures", h.listFailures)
}

type createReminderRequest struct {
	UserID   int64      `json:"user_id" validate:"required,min=1"`
	Title    string     `json:"title" validate:"required,max=255"`
	DueDate  time.Time  `json:"due_date" validate:"required"`
	RemindAt *time.Time `json:"remind_at,omitempty"`
}

type updateReminderRequest struct {
	Title    string     `json:"title" validate:"required,max=255"`
	DueDate  time.Time  `json:"due_date" validate:"required"`
	RemindAt *time.Time `json:"remind_at,omitempty"`
}

func (h *ReminderHandler) decodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return types.NewAppError(types.ErrCodeValidationInvalidBody, "invalid request body", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return types.NewAppError(types.ErrCodeValidationMissingField, err.Error(), err)
	}
	return nil
}

func reminderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, types.NewAppError(types.ErrCodeValidationInvalidBody, "invalid reminder id", err)
	}
	return id, nil
}

func (h *ReminderHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rem, err := h.svc.Create(r.Context(), reminders.CreateInput{
		UserID:   req.UserID,
		Title:    req.Title,
		DueDate:  req.DueDate,
		RemindAt: req.RemindAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

func (h *ReminderHandler) list(w http.ResponseWriter, r *http.Request) {
	rems, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rems == nil {
		rems = []types.Reminder{}
	}
	writeJSON(w, http.StatusOK, rems)
}

func (h *ReminderHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := reminderID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rem, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (h *ReminderHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := reminderID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateReminderRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rem, err := h.svc.Update(r.Context(), id, reminders.UpdateInput{
		Title:    req.Title,
		DueDate:  req.DueDate,
		RemindAt: req.RemindAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (h *ReminderHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := reminderID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReminderHandler) disableNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := reminderID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.DisableNotifications(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReminderHandler) listFailures(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.ListFailures(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []types.FailureRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}
