package sandbox

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/storedesk/internal/models"
	"github.com/charlesng35/storedesk/internal/realtime"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
)

// ComplaintFilter selects a page of complaints. Every set field must match.
type ComplaintFilter struct {
	Status   models.ComplaintStatus
	Severity models.Level
	Page     int
	Limit    int
}

// NewComplaint is an intake submitted on behalf of a customer.
type NewComplaint struct {
	Customer    models.Customer
	Store       models.StoreInfo
	Type        string
	Description string
	Severity    models.Level
}

var (
	openComplaintStatuses = []models.ComplaintStatus{models.ComplaintPending, models.ComplaintInProgress}
	openActionStatuses    = []models.ActionItemStatus{models.ActionPending, models.ActionInProgress}
	elevatedLevels        = []models.Level{models.LevelHigh, models.LevelCritical}
)

func (s *Service) complaints(ctx context.Context, caller Caller) *gorm.DB {
	q := s.db.WithContext(ensureContext(ctx)).Model(&ComplaintRecord{})
	if caller.StoreID != "" {
		q = q.Where("store_id = ?", caller.StoreID)
	}
	return q
}

// ListComplaints returns one page of complaints, newest first.
func (s *Service) ListComplaints(ctx context.Context, caller Caller, filter ComplaintFilter) ([]models.ComplaintWithActions, bool, error) {
	offset, limit := pageBounds(filter.Page, filter.Limit)

	q := s.complaints(ctx, caller)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Severity != "" {
		q = q.Where("severity = ?", filter.Severity)
	}

	var rows []ComplaintRecord
	if err := q.Order("created_at DESC").Order("id").Offset(offset).Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, false, fmt.Errorf("sandbox: list complaints: %w", err)
	}
	rows, hasMore := trimPage(rows, limit)

	out, err := s.withActions(ctx, rows)
	return out, hasMore, err
}

// GetComplaint returns a single complaint with its action items.
func (s *Service) GetComplaint(ctx context.Context, caller Caller, id string) (models.ComplaintWithActions, error) {
	record, err := s.loadComplaint(ctx, caller, id)
	if err != nil {
		return models.ComplaintWithActions{}, err
	}
	return s.view(ctx, record)
}

// UrgentComplaints returns every open complaint that is severe or owns an urgent action item.
func (s *Service) UrgentComplaints(ctx context.Context, caller Caller) ([]models.ComplaintWithActions, error) {
	urgentOwners := s.db.Model(&ActionItemRecord{}).
		Select("complaint_id").
		Where("complaint_id <> ''").
		Where("urgency IN ?", elevatedLevels).
		Where("status IN ?", openActionStatuses)

	var rows []ComplaintRecord
	err := s.complaints(ctx, caller).
		Where("status IN ?", openComplaintStatuses).
		Where(s.db.Where("severity IN ?", elevatedLevels).Or("id IN (?)", urgentOwners)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sandbox: urgent complaints: %w", err)
	}
	return s.withActions(ctx, rows)
}

// CreateComplaint records a new complaint and notifies the staff of its store.
func (s *Service) CreateComplaint(ctx context.Context, caller Caller, input NewComplaint) (models.ComplaintWithActions, error) {
	severity := input.Severity
	if severity == "" {
		severity = models.LevelMedium
	}
	record := ComplaintRecord{
		Status:      models.ComplaintPending,
		Severity:    severity,
		StoreID:     caller.StoreID,
		Customer:    datatypes.NewJSONType(input.Customer),
		Store:       datatypes.NewJSONType(input.Store),
		Type:        strings.TrimSpace(input.Type),
		Description: strings.TrimSpace(input.Description),
		Notes:       datatypes.NewJSONType([]models.Note{}),
	}
	if err := s.db.WithContext(ensureContext(ctx)).Create(&record).Error; err != nil {
		return models.ComplaintWithActions{}, fmt.Errorf("sandbox: create complaint: %w", err)
	}

	view, err := s.view(ctx, record)
	if err != nil {
		return view, err
	}
	s.publishComplaint(view)

	var staff []StaffRecord
	if err := s.db.WithContext(ensureContext(ctx)).Where("store_id = ?", caller.StoreID).Find(&staff).Error; err != nil {
		return view, fmt.Errorf("sandbox: load store staff: %w", err)
	}
	for _, member := range staff {
		_, err := s.Notify(ctx, member.ID, Notice{
			Type:       "complaint_created",
			Title:      "New " + string(severity) + " complaint",
			Body:       record.Customer.Data().Name + ": " + record.Description,
			EntityType: models.EntityComplaint,
			EntityID:   record.ID,
		})
		if err != nil {
			return view, err
		}
	}
	return view, nil
}

// UpdateComplaintStatus moves an open complaint between pending and in progress.
func (s *Service) UpdateComplaintStatus(ctx context.Context, caller Caller, id string, status models.ComplaintStatus) (models.ComplaintWithActions, error) {
	if !status.Open() {
		return models.ComplaintWithActions{}, apperrors.NewBadRequest("status must be one of: pending, in_progress")
	}
	return s.mutateComplaint(ctx, caller, id, func(r *ComplaintRecord) error {
		r.Status = status
		return nil
	})
}

// AddNote appends a note authored by the caller.
func (s *Service) AddNote(ctx context.Context, caller Caller, id, content string) (models.ComplaintWithActions, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.ComplaintWithActions{}, apperrors.NewBadRequest("content is required")
	}
	author := caller.Name
	if author == "" {
		author = caller.UserID
	}
	return s.mutateComplaint(ctx, caller, id, func(r *ComplaintRecord) error {
		notes := append(r.Notes.Data(), models.Note{
			Author:    author,
			Content:   content,
			CreatedAt: s.now().UTC(),
		})
		r.Notes = datatypes.NewJSONType(notes)
		return nil
	})
}

// AssignComplaint assigns the complaint to the caller.
func (s *Service) AssignComplaint(ctx context.Context, caller Caller, id string) (models.ComplaintWithActions, error) {
	return s.mutateComplaint(ctx, caller, id, func(r *ComplaintRecord) error {
		r.AssignedTo = caller.UserID
		return nil
	})
}

// ResolveComplaint closes the complaint. The previous assignee is notified when someone else
// resolves it.
func (s *Service) ResolveComplaint(ctx context.Context, caller Caller, id, compensation, notes string) (models.ComplaintWithActions, error) {
	compensation = strings.TrimSpace(compensation)
	if compensation == "" {
		return models.ComplaintWithActions{}, apperrors.NewBadRequest("compensation is required")
	}

	var assignee string
	view, err := s.mutateComplaint(ctx, caller, id, func(r *ComplaintRecord) error {
		now := s.now().UTC()
		assignee = r.AssignedTo
		r.Status = models.ComplaintResolved
		r.Compensation = compensation
		r.ResolutionNotes = strings.TrimSpace(notes)
		r.ResolvedBy = caller.UserID
		r.ResolvedAt = &now
		return nil
	})
	if err != nil {
		return view, err
	}

	if assignee != "" && assignee != caller.UserID {
		if _, err := s.Notify(ctx, assignee, Notice{
			Type:       "complaint_resolved",
			Title:      "Complaint resolved",
			Body:       view.Complaint.Customer.Name + " was offered " + compensation,
			EntityType: models.EntityComplaint,
			EntityID:   view.Complaint.ID,
		}); err != nil {
			return view, err
		}
	}
	return view, nil
}

func (s *Service) mutateComplaint(ctx context.Context, caller Caller, id string, apply func(*ComplaintRecord) error) (models.ComplaintWithActions, error) {
	var record ComplaintRecord
	err := s.db.WithContext(ensureContext(ctx)).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("id = ?", id)
		if caller.StoreID != "" {
			q = q.Where("store_id = ?", caller.StoreID)
		}
		if err := q.First(&record).Error; err != nil {
			return notFound("complaint", err)
		}
		if record.Status == models.ComplaintResolved {
			return apperrors.ErrResolved
		}
		if err := apply(&record); err != nil {
			return err
		}
		if err := tx.Save(&record).Error; err != nil {
			return fmt.Errorf("sandbox: save complaint: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.ComplaintWithActions{}, err
	}

	view, err := s.view(ctx, record)
	if err != nil {
		return view, err
	}
	s.publishComplaint(view)
	return view, nil
}

func (s *Service) publishComplaint(view models.ComplaintWithActions) {
	s.publish(realtime.StreamComplaints, "", realtime.Message{
		Event: realtime.EventComplaintUpdated,
		Data:  view,
	})
}

func (s *Service) loadComplaint(ctx context.Context, caller Caller, id string) (ComplaintRecord, error) {
	var record ComplaintRecord
	if err := s.complaints(ctx, caller).Where("id = ?", id).First(&record).Error; err != nil {
		return record, notFound("complaint", err)
	}
	return record, nil
}

func (s *Service) view(ctx context.Context, record ComplaintRecord) (models.ComplaintWithActions, error) {
	out, err := s.withActions(ctx, []ComplaintRecord{record})
	if err != nil {
		return models.ComplaintWithActions{}, err
	}
	return out[0], nil
}

// withActions embeds action items and the urgent count into each complaint.
func (s *Service) withActions(ctx context.Context, rows []ComplaintRecord) ([]models.ComplaintWithActions, error) {
	out := make([]models.ComplaintWithActions, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	var items []ActionItemRecord
	if err := s.db.WithContext(ensureContext(ctx)).
		Where("complaint_id IN ?", ids).
		Order("created_at").Order("id").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("sandbox: load action items: %w", err)
	}

	byComplaint := make(map[string][]models.ActionItem, len(rows))
	for _, item := range items {
		byComplaint[item.ComplaintID] = append(byComplaint[item.ComplaintID], item.model())
	}

	for _, row := range rows {
		actions := byComplaint[row.ID]
		if actions == nil {
			actions = []models.ActionItem{}
		}
		view := models.ComplaintWithActions{Complaint: row.model(), ActionItems: actions}
		view.UrgentCount = view.CountUrgentActions()
		out = append(out, view)
	}
	return out, nil
}
