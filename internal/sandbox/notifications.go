package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm/clause"

	"github.com/charlesng35/storedesk/internal/models"
	"github.com/charlesng35/storedesk/internal/realtime"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
)

const notificationListLimit = 100

// Notice describes a notification to deliver to one user.
type Notice struct {
	Type       string
	Title      string
	Body       string
	EntityType models.EntityType
	EntityID   string
}

// Notify stores a notification and pushes it to the user's connected devices.
func (s *Service) Notify(ctx context.Context, userID string, notice Notice) (models.Notification, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Notification{}, apperrors.NewBadRequest("user id is required")
	}

	record := NotificationRecord{
		UserID:     userID,
		Type:       notice.Type,
		Title:      strings.TrimSpace(notice.Title),
		Body:       strings.TrimSpace(notice.Body),
		EntityType: notice.EntityType,
		EntityID:   notice.EntityID,
	}
	if err := s.db.WithContext(ensureContext(ctx)).Create(&record).Error; err != nil {
		return models.Notification{}, fmt.Errorf("sandbox: create notification: %w", err)
	}

	out := record.model()
	s.publish(realtime.StreamNotifications, userID, realtime.Message{
		Event: realtime.EventNotificationCreated,
		Data:  out,
	})
	return out, nil
}

// ListNotifications returns the caller's most recent notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, caller Caller) ([]models.Notification, error) {
	var rows []NotificationRecord
	if err := s.db.WithContext(ensureContext(ctx)).
		Where("user_id = ?", caller.UserID).
		Order("created_at DESC").Order("id").
		Limit(notificationListLimit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sandbox: list notifications: %w", err)
	}

	out := make([]models.Notification, len(rows))
	for i, row := range rows {
		out[i] = row.model()
	}
	return out, nil
}

// MarkNotificationRead flags one of the caller's notifications as read.
func (s *Service) MarkNotificationRead(ctx context.Context, caller Caller, id string) error {
	result := s.db.WithContext(ensureContext(ctx)).
		Model(&NotificationRecord{}).
		Where("id = ? AND user_id = ?", id, caller.UserID).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("sandbox: mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessage("notification not found")
	}
	return nil
}

// MarkAllNotificationsRead flags every notification of the caller as read.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, caller Caller) error {
	err := s.db.WithContext(ensureContext(ctx)).
		Model(&NotificationRecord{}).
		Where("user_id = ? AND is_read = ?", caller.UserID, false).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("sandbox: mark all notifications read: %w", err)
	}
	return nil
}

// RegisterDevice stores or re-assigns a push token.
func (s *Service) RegisterDevice(ctx context.Context, caller Caller, token, platform string) error {
	record := DeviceRecord{
		Token:    strings.TrimSpace(token),
		UserID:   caller.UserID,
		Platform: strings.ToLower(strings.TrimSpace(platform)),
	}
	err := s.db.WithContext(ensureContext(ctx)).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("sandbox: register device: %w", err)
	}
	return nil
}

// Dashboard computes the home screen counters for the caller.
func (s *Service) Dashboard(ctx context.Context, caller Caller) (models.DashboardStats, error) {
	var stats models.DashboardStats

	var open int64
	if err := s.complaints(ctx, caller).Where("status IN ?", openComplaintStatuses).Count(&open).Error; err != nil {
		return stats, fmt.Errorf("sandbox: count open complaints: %w", err)
	}
	stats.OpenComplaints = int(open)

	urgent, err := s.UrgentComplaints(ctx, caller)
	if err != nil {
		return stats, err
	}
	stats.UrgentComplaints = len(urgent)

	var items []ActionItemRecord
	if err := s.db.WithContext(ensureContext(ctx)).Where("status IN ?", openActionStatuses).Find(&items).Error; err != nil {
		return stats, fmt.Errorf("sandbox: load open action items: %w", err)
	}
	now := s.now()
	for _, record := range items {
		item := record.model()
		if item.Status == models.ActionPending {
			stats.PendingActionItems++
		}
		if item.IsOverdue(now) {
			stats.OverdueActionItems++
		}
	}

	var unread int64
	if err := s.db.WithContext(ensureContext(ctx)).
		Model(&NotificationRecord{}).
		Where("user_id = ? AND is_read = ?", caller.UserID, false).
		Count(&unread).Error; err != nil {
		return stats, fmt.Errorf("sandbox: count unread notifications: %w", err)
	}
	stats.UnreadNotifications = int(unread)
	return stats, nil
}

// PruneNotifications deletes read notifications created before the cutoff.
func (s *Service) PruneNotifications(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ensureContext(ctx)).
		Where("is_read = ? AND created_at < ?", true, before).
		Delete(&NotificationRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("sandbox: prune notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}
