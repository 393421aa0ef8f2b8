package sandbox

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/storedesk/internal/models"
)

// StaffRecord is a store employee allowed to sign in to the sandbox.
type StaffRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:128"`
	Role      string `gorm:"size:32"`
	StoreID   string `gorm:"size:64;index"`
	PINSalt   []byte
	PINHash   []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StaffRecord) TableName() string { return "staff" }

// ComplaintRecord persists a complaint. Nested documents are stored as JSON columns.
type ComplaintRecord struct {
	ID              string                               `gorm:"primaryKey;size:64"`
	Status          models.ComplaintStatus               `gorm:"size:32;index"`
	Severity        models.Level                         `gorm:"size:16;index"`
	StoreID         string                               `gorm:"size:64;index"`
	Customer        datatypes.JSONType[models.Customer]  `gorm:"type:json"`
	Store           datatypes.JSONType[models.StoreInfo] `gorm:"type:json"`
	Type            string                               `gorm:"size:64"`
	Description     string                               `gorm:"type:text"`
	Notes           datatypes.JSONType[[]models.Note]    `gorm:"type:json"`
	AssignedTo      string                               `gorm:"size:64;index"`
	Compensation    string                               `gorm:"size:500"`
	ResolutionNotes string                               `gorm:"type:text"`
	ResolvedBy      string                               `gorm:"size:64"`
	ResolvedAt      *time.Time
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

func (ComplaintRecord) TableName() string { return "complaints" }

// BeforeCreate assigns an identifier when none was supplied.
func (r *ComplaintRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r ComplaintRecord) model() models.Complaint {
	notes := r.Notes.Data()
	if notes == nil {
		notes = []models.Note{}
	}
	return models.Complaint{
		ID:              r.ID,
		Status:          r.Status,
		Severity:        r.Severity,
		Customer:        r.Customer.Data(),
		Store:           r.Store.Data(),
		Type:            r.Type,
		Description:     r.Description,
		Notes:           notes,
		AssignedTo:      r.AssignedTo,
		Compensation:    r.Compensation,
		ResolutionNotes: r.ResolutionNotes,
		ResolvedBy:      r.ResolvedBy,
		ResolvedAt:      r.ResolvedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// ActionItemRecord persists an action item.
type ActionItemRecord struct {
	ID               string                  `gorm:"primaryKey;size:64"`
	Type             models.ActionItemType   `gorm:"size:32;index"`
	Status           models.ActionItemStatus `gorm:"size:32;index"`
	Urgency          models.Level            `gorm:"size:16;index"`
	Title            string                  `gorm:"size:256"`
	Description      string                  `gorm:"type:text"`
	DueAt            *time.Time
	AssignedRole     string    `gorm:"size:32"`
	AssignedToUserID string    `gorm:"size:64;index"`
	CallID           string    `gorm:"size:64"`
	ComplaintID      string    `gorm:"size:64;index"`
	ResolutionNotes  string    `gorm:"type:text"`
	CreatedAt        time.Time `gorm:"index"`
	UpdatedAt        time.Time
}

func (ActionItemRecord) TableName() string { return "action_items" }

// BeforeCreate assigns an identifier when none was supplied.
func (r *ActionItemRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r ActionItemRecord) model() models.ActionItem {
	return models.ActionItem{
		ID:               r.ID,
		Type:             r.Type,
		Status:           r.Status,
		Urgency:          r.Urgency,
		Title:            r.Title,
		Description:      r.Description,
		DueAt:            r.DueAt,
		AssignedRole:     r.AssignedRole,
		AssignedToUserID: r.AssignedToUserID,
		CallID:           r.CallID,
		ComplaintID:      r.ComplaintID,
		ResolutionNotes:  r.ResolutionNotes,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// NotificationRecord persists an in-app notification for one user.
type NotificationRecord struct {
	ID         string            `gorm:"primaryKey;size:64"`
	UserID     string            `gorm:"size:64;index"`
	Type       string            `gorm:"size:64"`
	Title      string            `gorm:"size:256"`
	Body       string            `gorm:"type:text"`
	Read       bool              `gorm:"column:is_read;index"`
	EntityType models.EntityType `gorm:"size:32"`
	EntityID   string            `gorm:"size:64"`
	CreatedAt  time.Time         `gorm:"index"`
}

func (NotificationRecord) TableName() string { return "notifications" }

// BeforeCreate assigns an identifier when none was supplied.
func (r *NotificationRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r NotificationRecord) model() models.Notification {
	return models.Notification{
		ID:    r.ID,
		Type:  r.Type,
		Title: r.Title,
		Body:  r.Body,
		Read:  r.Read,
		Data: models.NotificationData{
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
		},
		CreatedAt: r.CreatedAt,
	}
}

// DeviceRecord is a push token registered by a device.
type DeviceRecord struct {
	Token     string `gorm:"primaryKey;size:256"`
	UserID    string `gorm:"size:64;index"`
	Platform  string `gorm:"size:16"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (DeviceRecord) TableName() string { return "devices" }

// Tables lists every record the sandbox migrates.
func Tables() []any {
	return []any{
		&StaffRecord{},
		&ComplaintRecord{},
		&ActionItemRecord{},
		&NotificationRecord{},
		&DeviceRecord{},
	}
}
