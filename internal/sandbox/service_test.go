package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/storedesk/internal/database/testutil"
	"github.com/charlesng35/storedesk/internal/models"
	"github.com/charlesng35/storedesk/internal/realtime"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
)

var testNow = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

var (
	alex = Caller{UserID: "staff-alex", Name: "Alex Rivera", Role: "staff", StoreID: DemoStoreID}
	sam  = Caller{UserID: "staff-sam", Name: "Sam Okafor", Role: "manager", StoreID: DemoStoreID}
)

func newTestService(t *testing.T, hub *realtime.Hub) *Service {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate(Tables()...))
	svc, err := NewService(db, hub, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	require.NoError(t, svc.Seed(context.Background()))
	return svc
}

func complaintIDs(items []models.ComplaintWithActions) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.Complaint.ID
	}
	return ids
}

func actionIDs(items []models.ActionItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func TestNewServiceRequiresDB(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)
}

func TestSeedIsIdempotent(t *testing.T) {
	svc := newTestService(t, nil)
	require.NoError(t, svc.Seed(context.Background()))

	items, _, err := svc.ListComplaints(context.Background(), alex, ComplaintFilter{Limit: 100})
	require.NoError(t, err)
	require.Len(t, items, len(demoComplaints))
}

func TestListComplaintsPaginates(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	first, hasMore, err := svc.ListComplaints(ctx, alex, ComplaintFilter{Page: 1, Limit: 5})
	require.NoError(t, err)
	require.True(t, hasMore)
	require.Equal(t, []string{"cmp-001", "cmp-002", "cmp-003", "cmp-004", "cmp-005"}, complaintIDs(first))

	last, hasMore, err := svc.ListComplaints(ctx, alex, ComplaintFilter{Page: 3, Limit: 5})
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Equal(t, []string{"cmp-011", "cmp-012"}, complaintIDs(last))
}

func TestListComplaintsFiltersConjunctively(t *testing.T) {
	svc := newTestService(t, nil)

	items, hasMore, err := svc.ListComplaints(context.Background(), alex, ComplaintFilter{
		Status:   models.ComplaintPending,
		Severity: models.LevelLow,
	})
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Equal(t, []string{"cmp-003", "cmp-009", "cmp-011"}, complaintIDs(items))
}

func TestListComplaintsScopedToStore(t *testing.T) {
	svc := newTestService(t, nil)

	items, hasMore, err := svc.ListComplaints(context.Background(), Caller{UserID: "x", StoreID: "store-999"}, ComplaintFilter{})
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Empty(t, items)

	_, err = svc.GetComplaint(context.Background(), Caller{UserID: "x", StoreID: "store-999"}, "cmp-001")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetComplaintEmbedsActionItems(t *testing.T) {
	svc := newTestService(t, nil)

	view, err := svc.GetComplaint(context.Background(), alex, "cmp-002")
	require.NoError(t, err)
	require.Equal(t, "Chris Patel", view.Complaint.Customer.Name)
	require.Equal(t, demoStore, view.Complaint.Store)
	require.Equal(t, []string{"act-001"}, actionIDs(view.ActionItems))
	require.Equal(t, 1, view.UrgentCount)
	require.NotNil(t, view.Complaint.Notes)

	_, err = svc.GetComplaint(context.Background(), alex, "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUrgentComplaints(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	urgent, err := svc.UrgentComplaints(ctx, alex)
	require.NoError(t, err)
	require.Equal(t, []string{"cmp-001", "cmp-002", "cmp-004", "cmp-007", "cmp-012"}, complaintIDs(urgent))
	for _, view := range urgent {
		require.True(t, view.IsUrgent(), view.Complaint.ID)
	}

	_, err = svc.ResolveComplaint(ctx, alex, "cmp-001", "Refund", "")
	require.NoError(t, err)
	_, err = svc.UpdateActionItemStatus(ctx, "act-002", models.ActionCompleted)
	require.NoError(t, err)

	urgent, err = svc.UrgentComplaints(ctx, alex)
	require.NoError(t, err)
	require.Equal(t, []string{"cmp-002", "cmp-007", "cmp-012"}, complaintIDs(urgent))
}

func TestResolveComplaintLocksFurtherMutations(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.ResolveComplaint(ctx, alex, "cmp-005", "  ", "")
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	view, err := svc.ResolveComplaint(ctx, alex, "cmp-005", "Voucher", "Replaced the loaf")
	require.NoError(t, err)
	require.Equal(t, models.ComplaintResolved, view.Complaint.Status)
	require.Equal(t, "Voucher", view.Complaint.Compensation)
	require.Equal(t, "Replaced the loaf", view.Complaint.ResolutionNotes)
	require.Equal(t, "staff-alex", view.Complaint.ResolvedBy)
	require.NotNil(t, view.Complaint.ResolvedAt)
	require.True(t, view.Complaint.ResolvedAt.Equal(testNow))

	_, err = svc.UpdateComplaintStatus(ctx, alex, "cmp-005", models.ComplaintInProgress)
	require.ErrorIs(t, err, apperrors.ErrResolved)
	_, err = svc.AddNote(ctx, alex, "cmp-005", "late note")
	require.ErrorIs(t, err, apperrors.ErrResolved)
	_, err = svc.AssignComplaint(ctx, alex, "cmp-005")
	require.ErrorIs(t, err, apperrors.ErrResolved)
	_, err = svc.ResolveComplaint(ctx, alex, "cmp-005", "Again", "")
	require.ErrorIs(t, err, apperrors.ErrResolved)

	// The previous assignee hears about it.
	notes, err := svc.ListNotifications(ctx, sam)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, "Complaint resolved", notes[0].Title)
	require.Equal(t, "cmp-005", notes[0].Data.EntityID)
	require.Equal(t, models.EntityComplaint, notes[0].Data.EntityType)
}

func TestUpdateComplaintStatus(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.UpdateComplaintStatus(ctx, alex, "cmp-003", models.ComplaintResolved)
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	view, err := svc.UpdateComplaintStatus(ctx, alex, "cmp-003", models.ComplaintInProgress)
	require.NoError(t, err)
	require.Equal(t, models.ComplaintInProgress, view.Complaint.Status)

	_, err = svc.UpdateComplaintStatus(ctx, alex, "missing", models.ComplaintPending)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddNoteAndAssign(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.AddNote(ctx, alex, "cmp-003", "   ")
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	view, err := svc.AddNote(ctx, alex, "cmp-003", " Spoke to the deli team ")
	require.NoError(t, err)
	require.Len(t, view.Complaint.Notes, 1)
	require.Equal(t, "Alex Rivera", view.Complaint.Notes[0].Author)
	require.Equal(t, "Spoke to the deli team", view.Complaint.Notes[0].Content)

	view, err = svc.AddNote(ctx, sam, "cmp-003", "Manager reviewed")
	require.NoError(t, err)
	require.Len(t, view.Complaint.Notes, 2)

	view, err = svc.AssignComplaint(ctx, sam, "cmp-003")
	require.NoError(t, err)
	require.Equal(t, "staff-sam", view.Complaint.AssignedTo)
}

func TestCreateComplaintNotifiesStoreStaff(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	view, err := svc.CreateComplaint(ctx, alex, NewComplaint{
		Customer:    models.Customer{Name: "Pat Moreno", Phone: "555-0199"},
		Store:       demoStore,
		Type:        "service",
		Description: "Queue too long",
		Severity:    models.LevelHigh,
	})
	require.NoError(t, err)
	require.NotEmpty(t, view.Complaint.ID)
	require.Equal(t, models.ComplaintPending, view.Complaint.Status)
	require.Empty(t, view.ActionItems)

	for _, caller := range []Caller{alex, sam} {
		notes, err := svc.ListNotifications(ctx, caller)
		require.NoError(t, err)
		require.Len(t, notes, 2)
		require.Equal(t, "New high complaint", notes[0].Title)
		require.Equal(t, view.Complaint.ID, notes[0].Data.EntityID)
	}

	urgent, err := svc.UrgentComplaints(ctx, alex)
	require.NoError(t, err)
	require.Equal(t, view.Complaint.ID, urgent[0].Complaint.ID)
}

func TestActionItems(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	items, hasMore, err := svc.ListActionItems(ctx, ActionItemFilter{Urgency: models.LevelHigh})
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Equal(t, []string{"act-001", "act-004", "act-009"}, actionIDs(items))

	items, _, err = svc.ListActionItems(ctx, ActionItemFilter{Type: models.ActionFollowUp, Status: models.ActionPending})
	require.NoError(t, err)
	require.Equal(t, []string{"act-003", "act-005"}, actionIDs(items))

	_, err = svc.UpdateActionItemStatus(ctx, "act-001", "archived")
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	item, err := svc.UpdateActionItemStatus(ctx, "act-001", models.ActionInProgress)
	require.NoError(t, err)
	require.Equal(t, models.ActionInProgress, item.Status)

	item, err = svc.AssignActionItem(ctx, alex, "act-001")
	require.NoError(t, err)
	require.Equal(t, "staff-alex", item.AssignedToUserID)

	_, err = svc.GetActionItem(ctx, "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateActionItemNotifiesAssignee(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	item, err := svc.CreateActionItem(ctx, models.ActionItem{
		Type:             models.ActionTask,
		Urgency:          models.LevelCritical,
		Title:            "Pull recalled stock",
		ComplaintID:      "cmp-003",
		AssignedToUserID: "staff-alex",
	})
	require.NoError(t, err)
	require.Equal(t, models.ActionPending, item.Status)

	view, err := svc.GetComplaint(ctx, alex, "cmp-003")
	require.NoError(t, err)
	require.Equal(t, 1, view.UrgentCount)
	require.True(t, view.IsUrgent())

	notes, err := svc.ListNotifications(ctx, alex)
	require.NoError(t, err)
	require.Equal(t, "Pull recalled stock", notes[0].Title)
	require.Equal(t, models.EntityActionItem, notes[0].Data.EntityType)
}

func TestFollowups(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	first, hasMore, err := svc.ListFollowups(ctx, FollowupFilter{Skip: 0, Limit: 2})
	require.NoError(t, err)
	require.True(t, hasMore)
	require.Equal(t, []string{"act-003", "act-007"}, actionIDs(first))

	second, hasMore, err := svc.ListFollowups(ctx, FollowupFilter{Skip: 2, Limit: 2})
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Equal(t, []string{"act-005", "act-009"}, actionIDs(second))

	done, _, err := svc.ListFollowups(ctx, FollowupFilter{Status: models.ActionCompleted})
	require.NoError(t, err)
	require.Equal(t, []string{"act-007"}, actionIDs(done))

	require.NoError(t, svc.ResolveFollowup(ctx, "act-003", " called back "))
	item, err := svc.GetActionItem(ctx, "act-003")
	require.NoError(t, err)
	require.Equal(t, models.ActionCompleted, item.Status)
	require.Equal(t, "called back", item.ResolutionNotes)

	require.ErrorIs(t, svc.ResolveFollowup(ctx, "act-001", ""), apperrors.ErrBadRequest)
	require.ErrorIs(t, svc.ResolveFollowup(ctx, "missing", ""), apperrors.ErrNotFound)
}

func TestNotificationsReadState(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	notes, err := svc.ListNotifications(ctx, alex)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.False(t, notes[0].Read)

	require.ErrorIs(t, svc.MarkNotificationRead(ctx, sam, notes[0].ID), apperrors.ErrNotFound)
	require.NoError(t, svc.MarkNotificationRead(ctx, alex, notes[0].ID))

	notes, err = svc.ListNotifications(ctx, alex)
	require.NoError(t, err)
	require.True(t, notes[0].Read)

	require.NoError(t, svc.MarkAllNotificationsRead(ctx, sam))
	notes, err = svc.ListNotifications(ctx, sam)
	require.NoError(t, err)
	for _, n := range notes {
		require.True(t, n.Read)
	}
}

func TestDashboard(t *testing.T) {
	svc := newTestService(t, nil)

	stats, err := svc.Dashboard(context.Background(), alex)
	require.NoError(t, err)
	require.Equal(t, models.DashboardStats{
		OpenComplaints:      10,
		UrgentComplaints:    5,
		PendingActionItems:  6,
		OverdueActionItems:  4,
		UnreadNotifications: 1,
	}, stats)
}

func TestRegisterDeviceReassignsToken(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.RegisterDevice(ctx, alex, "device-token", "iOS"))
	require.NoError(t, svc.RegisterDevice(ctx, sam, "device-token", "ios"))

	var devices []DeviceRecord
	require.NoError(t, svc.db.Find(&devices).Error)
	require.Len(t, devices, 1)
	require.Equal(t, "staff-sam", devices[0].UserID)
	require.Equal(t, "ios", devices[0].Platform)
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	caller, err := svc.Authenticate(ctx, "staff-sam", "4321")
	require.NoError(t, err)
	require.Equal(t, sam, caller)

	_, err = svc.Authenticate(ctx, "staff-sam", "0000")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = svc.Authenticate(ctx, "nobody", "4321")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = svc.Authenticate(ctx, "staff-sam", "")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestPruneNotificationsKeepsUnread(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	before, err := svc.ListNotifications(ctx, alex)
	require.NoError(t, err)
	require.NoError(t, svc.MarkAllNotificationsRead(ctx, alex))
	_, err = svc.Notify(ctx, alex.UserID, Notice{Title: "still unread"})
	require.NoError(t, err)

	removed, err := svc.PruneNotifications(ctx, testNow.Add(time.Second))
	require.NoError(t, err)
	require.EqualValues(t, len(before), removed)

	left, err := svc.ListNotifications(ctx, alex)
	require.NoError(t, err)
	require.Len(t, left, 1)
	require.Equal(t, "still unread", left[0].Title)
}
