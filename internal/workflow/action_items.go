package workflow

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/storedesk/internal/models"
	"github.com/charlesng35/storedesk/internal/store"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
	"github.com/charlesng35/storedesk/pkg/logger"
)

// ActionStatusInput changes the status of an action item.
type ActionStatusInput struct {
	ID     string                  `json:"id" validate:"required"`
	Status models.ActionItemStatus `json:"status" validate:"required,oneof=pending in_progress completed dismissed"`
}

// FollowupInput completes a follow-up.
type FollowupInput struct {
	ID    string `json:"id" validate:"required"`
	Notes string `json:"notes" validate:"max=2000"`
}

// ActionItems runs the action item and follow-up screen actions.
type ActionItems struct {
	items     *store.ActionItems
	followups *store.Followups
	notify    Notifier
	log       *zap.Logger
}

// NewActionItems constructs the action item workflow. followups may be nil when the follow-up
// screen is not in use.
func NewActionItems(items *store.ActionItems, followups *store.Followups, notify Notifier) (*ActionItems, error) {
	if items == nil {
		return nil, errors.New("action item workflow: store is required")
	}
	return &ActionItems{
		items:     items,
		followups: followups,
		notify:    notify,
		log:       logger.WithModule("workflow.action_items"),
	}, nil
}

// ChangeStatus updates the status of an action item.
func (w *ActionItems) ChangeStatus(ctx context.Context, input ActionStatusInput) (models.ActionItem, error) {
	if err := w.check(input); err != nil {
		return models.ActionItem{}, err
	}
	result, err := w.items.UpdateStatus(ctx, input.ID, input.Status)
	return result, feedback(w.notify, "Status updated", w.logged("change status", input.ID, err))
}

// Assign takes ownership of the action item.
func (w *ActionItems) Assign(ctx context.Context, id string) (models.ActionItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		err := apperrors.NewBadRequest("id is required")
		return models.ActionItem{}, feedback(w.notify, "", err)
	}
	result, err := w.items.Assign(ctx, id)
	return result, feedback(w.notify, "Task assigned to you", w.logged("assign", id, err))
}

// ResolveFollowup completes a follow-up with optional notes.
func (w *ActionItems) ResolveFollowup(ctx context.Context, input FollowupInput) error {
	if w.followups == nil {
		return errors.New("action item workflow: follow-up store is not configured")
	}
	if err := w.check(input); err != nil {
		return err
	}
	err := w.followups.Resolve(ctx, input.ID, strings.TrimSpace(input.Notes))
	return feedback(w.notify, "Follow-up completed", w.logged("resolve follow-up", input.ID, err))
}

func (w *ActionItems) check(input any) error {
	err := validate(input)
	if err != nil && w.notify != nil {
		w.notify.Error(apperrors.UserMessage(err))
	}
	return err
}

func (w *ActionItems) logged(op, id string, err error) error {
	if err != nil {
		w.log.Warn("action item action failed", zap.String("op", op), zap.String("id", id), zap.Error(err))
	}
	return err
}
