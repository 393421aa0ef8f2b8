package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComplaintWithActionsIsUrgent(t *testing.T) {
	cases := []struct {
		name     string
		severity Level
		status   ComplaintStatus
		urgent   int
		want     bool
	}{
		{"high pending", LevelHigh, ComplaintPending, 0, true},
		{"critical in progress", LevelCritical, ComplaintInProgress, 0, true},
		{"low pending escalated by child", LevelLow, ComplaintPending, 1, true},
		{"medium pending without urgent children", LevelMedium, ComplaintPending, 0, false},
		{"critical resolved", LevelCritical, ComplaintResolved, 0, false},
		{"low resolved with urgent children", LevelLow, ComplaintResolved, 2, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cwa := ComplaintWithActions{
				Complaint:   Complaint{ID: "c1", Severity: tc.severity, Status: tc.status},
				UrgentCount: tc.urgent,
			}
			require.Equal(t, tc.want, cwa.IsUrgent())
		})
	}
}

func TestActionItemIsUrgent(t *testing.T) {
	require.True(t, ActionItem{Urgency: LevelHigh, Status: ActionPending}.IsUrgent())
	require.True(t, ActionItem{Urgency: LevelCritical, Status: ActionInProgress}.IsUrgent())
	require.False(t, ActionItem{Urgency: LevelCritical, Status: ActionCompleted}.IsUrgent())
	require.False(t, ActionItem{Urgency: LevelMedium, Status: ActionPending}.IsUrgent())
}

func TestCountUrgentActions(t *testing.T) {
	cwa := ComplaintWithActions{ActionItems: []ActionItem{
		{ID: "a", Urgency: LevelHigh, Status: ActionPending},
		{ID: "b", Urgency: LevelHigh, Status: ActionDismissed},
		{ID: "c", Urgency: LevelLow, Status: ActionPending},
		{ID: "d", Urgency: LevelCritical, Status: ActionInProgress},
	}}
	require.Equal(t, 2, cwa.CountUrgentActions())
}

func TestLevelHelpers(t *testing.T) {
	require.True(t, LevelHigh.Valid())
	require.False(t, Level("severe").Valid())
	require.Greater(t, LevelCritical.Rank(), LevelHigh.Rank())
	require.Zero(t, Level("").Rank())
}

func TestWithActionItemRecomputesUrgentCount(t *testing.T) {
	cwa := ComplaintWithActions{
		Complaint: Complaint{ID: "c1", Severity: LevelLow, Status: ComplaintPending},
		ActionItems: []ActionItem{
			{ID: "a1", Urgency: LevelHigh, Status: ActionPending},
		},
		UrgentCount: 1,
	}
	require.True(t, cwa.IsUrgent())

	updated, ok := cwa.WithActionItem(ActionItem{ID: "a1", Urgency: LevelHigh, Status: ActionCompleted})
	require.True(t, ok)
	require.Zero(t, updated.UrgentCount)
	require.False(t, updated.IsUrgent())
	require.Equal(t, ActionPending, cwa.ActionItems[0].Status)

	_, ok = cwa.WithActionItem(ActionItem{ID: "other"})
	require.False(t, ok)
}
