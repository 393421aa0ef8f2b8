package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/storedesk/internal/events"
	"github.com/charlesng35/storedesk/internal/models"
	"github.com/charlesng35/storedesk/internal/store"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
)

func newComplaintFlow(t *testing.T) (*backend, *recorder, *store.Complaints, *Complaints) {
	t.Helper()
	b := newBackend()
	b.complaints["open"] = complaintFixture("open", models.ComplaintPending)
	b.complaints["done"] = complaintFixture("done", models.ComplaintResolved)

	s := store.NewComplaints(b, events.NewBus())
	t.Cleanup(s.Close)
	require.NoError(t, s.Fetch(context.Background(), true))

	rec := &recorder{}
	w, err := NewComplaints(s, rec)
	require.NoError(t, err)
	return b, rec, s, w
}

func TestNewComplaintsRequiresStore(t *testing.T) {
	_, err := NewComplaints(nil, nil)
	require.Error(t, err)
}

func TestResolveRequiresCompensation(t *testing.T) {
	b, rec, _, w := newComplaintFlow(t)

	_, err := w.Resolve(context.Background(), ResolveInput{ID: "open", Compensation: "  "})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
	require.Zero(t, b.writes)
	require.Equal(t, []string{"compensation is required"}, rec.errors)
}

func TestResolveSucceeds(t *testing.T) {
	b, rec, s, w := newComplaintFlow(t)

	result, err := w.Resolve(context.Background(), ResolveInput{ID: "open", Compensation: " voucher ", ResolutionNotes: "sorry"})
	require.NoError(t, err)
	require.True(t, result.Complaint.IsResolved())
	require.Equal(t, "voucher", b.resolved[0].Compensation)
	require.Equal(t, []string{"Complaint resolved"}, rec.successes)

	held, _ := s.Find("open")
	require.True(t, held.Complaint.IsResolved())
}

func TestMutationsRejectedOnResolvedComplaint(t *testing.T) {
	b, rec, _, w := newComplaintFlow(t)

	_, err := w.ChangeStatus(context.Background(), StatusInput{ID: "done", Status: models.ComplaintInProgress})
	require.ErrorIs(t, err, apperrors.ErrResolved)

	_, err = w.AddNote(context.Background(), NoteInput{ID: "done", Content: "hello"})
	require.ErrorIs(t, err, apperrors.ErrResolved)

	_, err = w.Assign(context.Background(), "done")
	require.ErrorIs(t, err, apperrors.ErrResolved)

	require.Zero(t, b.writes)
	require.Len(t, rec.errors, 3)
}

func TestChangeStatusRejectsResolvedTarget(t *testing.T) {
	b, _, _, w := newComplaintFlow(t)

	_, err := w.ChangeStatus(context.Background(), StatusInput{ID: "open", Status: models.ComplaintResolved})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
	require.Zero(t, b.writes)
}

func TestChangeStatusFailureRevertsAndToasts(t *testing.T) {
	b, rec, s, w := newComplaintFlow(t)
	b.failWrites = true

	_, err := w.ChangeStatus(context.Background(), StatusInput{ID: "open", Status: models.ComplaintInProgress})
	require.ErrorIs(t, err, apperrors.ErrConflict)

	held, _ := s.Find("open")
	require.Equal(t, models.ComplaintPending, held.Complaint.Status)
	require.Equal(t, []string{apperrors.ErrConflict.Message}, rec.errors)
}

func TestAddNoteTrimsContent(t *testing.T) {
	_, rec, s, w := newComplaintFlow(t)

	_, err := w.AddNote(context.Background(), NoteInput{ID: "open", Content: "  called back  "})
	require.NoError(t, err)

	held, _ := s.Find("open")
	require.Equal(t, "called back", held.Complaint.Notes[0].Content)
	require.Equal(t, []string{"Note added"}, rec.successes)
}

func TestOpenAndClose(t *testing.T) {
	_, _, s, w := newComplaintFlow(t)

	c, err := w.Open(context.Background(), "open")
	require.NoError(t, err)
	require.Equal(t, "open", c.EntityID())

	w.Close()
	_, ok := s.Selected()
	require.False(t, ok)
}
