package workflow

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/storedesk/internal/api"
	"github.com/charlesng35/storedesk/internal/models"
	"github.com/charlesng35/storedesk/internal/store"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
	"github.com/charlesng35/storedesk/pkg/logger"
)

// StatusInput moves an open complaint between pending and in progress. Resolution goes
// through ResolveInput so compensation is always captured.
type StatusInput struct {
	ID     string                 `json:"id" validate:"required"`
	Status models.ComplaintStatus `json:"status" validate:"required,oneof=pending in_progress"`
}

// NoteInput appends a note.
type NoteInput struct {
	ID      string `json:"id" validate:"required"`
	Content string `json:"content" validate:"notblank,max=2000"`
}

// ResolveInput closes a complaint.
type ResolveInput struct {
	ID              string `json:"id" validate:"required"`
	Compensation    string `json:"compensation" validate:"notblank,max=500"`
	ResolutionNotes string `json:"resolution_notes" validate:"max=2000"`
}

// Complaints runs the complaint detail screen actions.
type Complaints struct {
	store  *store.Complaints
	notify Notifier
	log    *zap.Logger
}

// NewComplaints constructs the complaint workflow.
func NewComplaints(s *store.Complaints, notify Notifier) (*Complaints, error) {
	if s == nil {
		return nil, errors.New("complaint workflow: store is required")
	}
	return &Complaints{store: s, notify: notify, log: logger.WithModule("workflow.complaints")}, nil
}

// Open loads the complaint into the detail slot.
func (w *Complaints) Open(ctx context.Context, id string) (models.ComplaintWithActions, error) {
	return w.store.FetchDetail(ctx, strings.TrimSpace(id))
}

// Close clears the detail slot when the screen goes away.
func (w *Complaints) Close() {
	w.store.ClearSelected()
}

// ChangeStatus updates the status of an open complaint.
func (w *Complaints) ChangeStatus(ctx context.Context, input StatusInput) (models.ComplaintWithActions, error) {
	if err := w.guard(input, input.ID); err != nil {
		return models.ComplaintWithActions{}, err
	}
	result, err := w.store.UpdateStatus(ctx, input.ID, input.Status)
	return result, feedback(w.notify, "Status updated", w.logged("change status", input.ID, err))
}

// Assign takes ownership of the complaint.
func (w *Complaints) Assign(ctx context.Context, id string) (models.ComplaintWithActions, error) {
	if err := w.guard(idInput{ID: id}, id); err != nil {
		return models.ComplaintWithActions{}, err
	}
	result, err := w.store.Assign(ctx, id)
	return result, feedback(w.notify, "Complaint assigned to you", w.logged("assign", id, err))
}

// AddNote appends a note to the complaint.
func (w *Complaints) AddNote(ctx context.Context, input NoteInput) (models.ComplaintWithActions, error) {
	if err := w.guard(input, input.ID); err != nil {
		return models.ComplaintWithActions{}, err
	}
	result, err := w.store.AddNote(ctx, input.ID, strings.TrimSpace(input.Content))
	return result, feedback(w.notify, "Note added", w.logged("add note", input.ID, err))
}

// Resolve closes the complaint. Compensation must be provided.
func (w *Complaints) Resolve(ctx context.Context, input ResolveInput) (models.ComplaintWithActions, error) {
	if err := w.guard(input, input.ID); err != nil {
		return models.ComplaintWithActions{}, err
	}
	result, err := w.store.Resolve(ctx, input.ID, api.ResolveRequest{
		Compensation:    strings.TrimSpace(input.Compensation),
		ResolutionNotes: strings.TrimSpace(input.ResolutionNotes),
	})
	return result, feedback(w.notify, "Complaint resolved", w.logged("resolve", input.ID, err))
}

// guard validates input and rejects writes against complaints known to be resolved. Failures
// are toasted here since the write never starts.
func (w *Complaints) guard(input any, id string) error {
	err := validate(input)
	if err == nil {
		if held, ok := w.store.Find(id); ok && !held.Complaint.CanMutate() {
			err = apperrors.ErrResolved
		}
	}
	if err != nil && w.notify != nil {
		w.notify.Error(apperrors.UserMessage(err))
	}
	return err
}

func (w *Complaints) logged(op, id string, err error) error {
	if err != nil {
		w.log.Warn("complaint action failed", zap.String("op", op), zap.String("id", id), zap.Error(err))
	}
	return err
}
