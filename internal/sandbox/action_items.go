package sandbox

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/storedesk/internal/models"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
)

// ActionItemFilter selects a page of action items. Every set field must match.
type ActionItemFilter struct {
	Status  models.ActionItemStatus
	Urgency models.Level
	Type    models.ActionItemType
	Page    int
	Limit   int
}

// FollowupFilter selects follow-ups by item offset.
type FollowupFilter struct {
	Status models.ActionItemStatus
	Skip   int
	Limit  int
}

// ListActionItems returns one page of action items, newest first.
func (s *Service) ListActionItems(ctx context.Context, filter ActionItemFilter) ([]models.ActionItem, bool, error) {
	offset, limit := pageBounds(filter.Page, filter.Limit)

	q := s.db.WithContext(ensureContext(ctx)).Model(&ActionItemRecord{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Urgency != "" {
		q = q.Where("urgency = ?", filter.Urgency)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	return s.pageActionItems(q, offset, limit)
}

// ListFollowups returns follow-up items starting at the given offset.
func (s *Service) ListFollowups(ctx context.Context, filter FollowupFilter) ([]models.ActionItem, bool, error) {
	_, limit := pageBounds(1, filter.Limit)
	offset := max(filter.Skip, 0)

	q := s.db.WithContext(ensureContext(ctx)).Model(&ActionItemRecord{}).Where("type = ?", models.ActionFollowUp)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	return s.pageActionItems(q, offset, limit)
}

func (s *Service) pageActionItems(q *gorm.DB, offset, limit int) ([]models.ActionItem, bool, error) {
	var rows []ActionItemRecord
	if err := q.Order("created_at DESC").Order("id").Offset(offset).Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, false, fmt.Errorf("sandbox: list action items: %w", err)
	}
	rows, hasMore := trimPage(rows, limit)

	out := make([]models.ActionItem, len(rows))
	for i, row := range rows {
		out[i] = row.model()
	}
	return out, hasMore, nil
}

// GetActionItem returns a single action item.
func (s *Service) GetActionItem(ctx context.Context, id string) (models.ActionItem, error) {
	var record ActionItemRecord
	if err := s.db.WithContext(ensureContext(ctx)).Where("id = ?", id).First(&record).Error; err != nil {
		return models.ActionItem{}, notFound("action item", err)
	}
	return record.model(), nil
}

// UpdateActionItemStatus sets the status of an action item.
func (s *Service) UpdateActionItemStatus(ctx context.Context, id string, status models.ActionItemStatus) (models.ActionItem, error) {
	if !status.Valid() {
		return models.ActionItem{}, apperrors.NewBadRequest("status must be one of: pending, in_progress, completed, dismissed")
	}
	return s.mutateActionItem(ctx, id, func(r *ActionItemRecord) error {
		r.Status = status
		return nil
	})
}

// AssignActionItem assigns the action item to the caller.
func (s *Service) AssignActionItem(ctx context.Context, caller Caller, id string) (models.ActionItem, error) {
	return s.mutateActionItem(ctx, id, func(r *ActionItemRecord) error {
		r.AssignedToUserID = caller.UserID
		return nil
	})
}

// ResolveFollowup completes a follow-up with optional notes.
func (s *Service) ResolveFollowup(ctx context.Context, id, notes string) error {
	_, err := s.mutateActionItem(ctx, id, func(r *ActionItemRecord) error {
		if r.Type != models.ActionFollowUp {
			return apperrors.NewBadRequest("action item is not a follow-up")
		}
		r.Status = models.ActionCompleted
		r.ResolutionNotes = strings.TrimSpace(notes)
		return nil
	})
	return err
}

// CreateActionItem attaches a new action item, notifying the assignee when there is one.
func (s *Service) CreateActionItem(ctx context.Context, item models.ActionItem) (models.ActionItem, error) {
	record := ActionItemRecord{
		ID:               item.ID,
		Type:             item.Type,
		Status:           item.Status,
		Urgency:          item.Urgency,
		Title:            strings.TrimSpace(item.Title),
		Description:      item.Description,
		DueAt:            item.DueAt,
		AssignedRole:     item.AssignedRole,
		AssignedToUserID: item.AssignedToUserID,
		CallID:           item.CallID,
		ComplaintID:      item.ComplaintID,
	}
	if record.Status == "" {
		record.Status = models.ActionPending
	}
	if err := s.db.WithContext(ensureContext(ctx)).Create(&record).Error; err != nil {
		return models.ActionItem{}, fmt.Errorf("sandbox: create action item: %w", err)
	}

	out := record.model()
	if out.AssignedToUserID != "" {
		if _, err := s.Notify(ctx, out.AssignedToUserID, Notice{
			Type:       "action_item_assigned",
			Title:      out.Title,
			Body:       out.Description,
			EntityType: models.EntityActionItem,
			EntityID:   out.ID,
		}); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (s *Service) mutateActionItem(ctx context.Context, id string, apply func(*ActionItemRecord) error) (models.ActionItem, error) {
	var record ActionItemRecord
	err := s.db.WithContext(ensureContext(ctx)).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&record).Error; err != nil {
			return notFound("action item", err)
		}
		if err := apply(&record); err != nil {
			return err
		}
		if err := tx.Save(&record).Error; err != nil {
			return fmt.Errorf("sandbox: save action item: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.ActionItem{}, err
	}
	return record.model(), nil
}
