package sandbox

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	iauth "github.com/charlesng35/storedesk/internal/auth"
	"github.com/charlesng35/storedesk/internal/models"
)

// DemoStoreID is the store every seeded record belongs to.
const DemoStoreID = "store-001"

// Demo staff created by Seed. PINs are for local development only.
var DemoStaff = []StaffInput{
	{ID: "staff-alex", Name: "Alex Rivera", Role: iauth.RoleStaff, StoreID: DemoStoreID, PIN: "1234"},
	{ID: "staff-sam", Name: "Sam Okafor", Role: iauth.RoleManager, StoreID: DemoStoreID, PIN: "4321"},
}

var demoStore = models.StoreInfo{Name: "Riverside Market", Address: "12 Mill Road", Phone: "555-0100"}

type seedComplaint struct {
	id          string
	customer    string
	kind        string
	description string
	severity    models.Level
	status      models.ComplaintStatus
	assignee    string
	age         time.Duration
}

type seedAction struct {
	id          string
	complaintID string
	kind        models.ActionItemType
	status      models.ActionItemStatus
	urgency     models.Level
	title       string
	description string
	due         time.Duration
	age         time.Duration
}

var demoComplaints = []seedComplaint{
	{"cmp-001", "Dana Lee", "product_quality", "Milk was spoiled two days before the printed date.", models.LevelHigh, models.ComplaintPending, "", 2 * time.Hour},
	{"cmp-002", "Chris Patel", "billing", "Charged twice for the same basket at self checkout.", models.LevelCritical, models.ComplaintInProgress, "staff-alex", 5 * time.Hour},
	{"cmp-003", "Morgan Diaz", "service", "No staff at the deli counter for twenty minutes.", models.LevelLow, models.ComplaintPending, "", 7 * time.Hour},
	{"cmp-004", "Jamie Chen", "cleanliness", "Spill near aisle four was not cleaned up.", models.LevelMedium, models.ComplaintPending, "", 9 * time.Hour},
	{"cmp-005", "Riley Brooks", "product_quality", "Bread had mould inside the packaging.", models.LevelMedium, models.ComplaintInProgress, "staff-sam", 26 * time.Hour},
	{"cmp-006", "Taylor Singh", "billing", "Promotion price not applied at the till.", models.LevelLow, models.ComplaintResolved, "staff-alex", 30 * time.Hour},
	{"cmp-007", "Avery Novak", "safety", "Loose shelf bracket caught a customer's coat.", models.LevelHigh, models.ComplaintInProgress, "", 49 * time.Hour},
	{"cmp-008", "Quinn Murphy", "service", "Rude response when asking for a refund.", models.LevelMedium, models.ComplaintPending, "", 50 * time.Hour},
	{"cmp-009", "Jordan Kim", "delivery", "Online order arrived without frozen items.", models.LevelLow, models.ComplaintPending, "", 72 * time.Hour},
	{"cmp-010", "Casey Walsh", "product_quality", "Allergen label missing on bakery item.", models.LevelCritical, models.ComplaintResolved, "staff-sam", 96 * time.Hour},
	{"cmp-011", "Drew Santos", "cleanliness", "Restroom out of soap all afternoon.", models.LevelLow, models.ComplaintPending, "", 100 * time.Hour},
	{"cmp-012", "Skyler Ito", "billing", "Gift card balance disappeared.", models.LevelMedium, models.ComplaintPending, "", 120 * time.Hour},
}

var demoActions = []seedAction{
	{"act-001", "cmp-002", models.ActionTask, models.ActionPending, models.LevelHigh, "Refund duplicate charge", "Reverse the second transaction.", 4 * time.Hour, 5 * time.Hour},
	{"act-002", "cmp-004", models.ActionIncident, models.ActionPending, models.LevelCritical, "Log slip hazard", "Record the incident for the safety report.", 0, 9 * time.Hour},
	{"act-003", "cmp-005", models.ActionFollowUp, models.ActionPending, models.LevelMedium, "Call customer back", "Timeline: 24 hours. Confirm replacement loaf was collected.", 0, 26 * time.Hour},
	{"act-004", "cmp-007", models.ActionTask, models.ActionInProgress, models.LevelHigh, "Repair shelf bracket", "Maintenance ticket raised.", -time.Hour, 49 * time.Hour},
	{"act-005", "cmp-008", models.ActionFollowUp, models.ActionPending, models.LevelLow, "Apologise to customer", "Timeline: 48 hours.", 0, 50 * time.Hour},
	{"act-006", "cmp-009", models.ActionOrder, models.ActionPending, models.LevelMedium, "Re-send frozen items", "Book a redelivery slot.", 24 * time.Hour, 72 * time.Hour},
	{"act-007", "cmp-006", models.ActionFollowUp, models.ActionCompleted, models.LevelLow, "Confirm refund received", "Customer confirmed.", 0, 30 * time.Hour},
	{"act-008", "", models.ActionAppointment, models.ActionPending, models.LevelMedium, "Supplier visit", "Dairy supplier quality review.", 48 * time.Hour, 3 * time.Hour},
	{"act-009", "cmp-012", models.ActionFollowUp, models.ActionInProgress, models.LevelHigh, "Investigate gift card", "Timeline: 2 hours. Check card ledger.", 0, 120 * time.Hour},
}

// Seed loads the demo store, staff and triage data. It does nothing when staff already exist.
func (s *Service) Seed(ctx context.Context) error {
	ctx = ensureContext(ctx)

	var existing int64
	if err := s.db.WithContext(ctx).Model(&StaffRecord{}).Count(&existing).Error; err != nil {
		return fmt.Errorf("sandbox: count staff: %w", err)
	}
	if existing > 0 {
		return nil
	}

	for _, member := range DemoStaff {
		if err := s.CreateStaff(ctx, member); err != nil {
			return err
		}
	}

	now := s.now().UTC()
	for _, c := range demoComplaints {
		created := now.Add(-c.age)
		record := ComplaintRecord{
			ID:          c.id,
			Status:      c.status,
			Severity:    c.severity,
			StoreID:     DemoStoreID,
			Customer:    datatypes.NewJSONType(models.Customer{Name: c.customer, Phone: "555-01" + c.id[len(c.id)-2:]}),
			Store:       datatypes.NewJSONType(demoStore),
			Type:        c.kind,
			Description: c.description,
			Notes:       datatypes.NewJSONType([]models.Note{}),
			AssignedTo:  c.assignee,
			CreatedAt:   created,
			UpdatedAt:   created,
		}
		if c.status == models.ComplaintResolved {
			resolved := created.Add(2 * time.Hour)
			record.Compensation = "Store credit"
			record.ResolvedBy = c.assignee
			record.ResolvedAt = &resolved
		}
		if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
			return fmt.Errorf("sandbox: seed complaint %s: %w", c.id, err)
		}
	}

	for _, a := range demoActions {
		created := now.Add(-a.age)
		record := ActionItemRecord{
			ID:          a.id,
			Type:        a.kind,
			Status:      a.status,
			Urgency:     a.urgency,
			Title:       a.title,
			Description: a.description,
			ComplaintID: a.complaintID,
			CreatedAt:   created,
			UpdatedAt:   created,
		}
		if a.due != 0 {
			due := now.Add(a.due)
			record.DueAt = &due
		}
		if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
			return fmt.Errorf("sandbox: seed action item %s: %w", a.id, err)
		}
	}

	for _, member := range DemoStaff {
		record := NotificationRecord{
			UserID:     member.ID,
			Type:       "complaint_created",
			Title:      "New critical complaint",
			Body:       "Chris Patel: Charged twice for the same basket at self checkout.",
			EntityType: models.EntityComplaint,
			EntityID:   "cmp-002",
			CreatedAt:  now.Add(-5 * time.Hour),
		}
		if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
			return fmt.Errorf("sandbox: seed notification: %w", err)
		}
	}
	return nil
}
