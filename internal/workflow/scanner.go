package workflow

import (
	"context"

	"github.com/charlesng35/storedesk/internal/models"
	"github.com/charlesng35/storedesk/internal/qr"
	"github.com/charlesng35/storedesk/internal/store"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
)

// Scanner resolves scanned complaint labels.
type Scanner struct {
	complaints *store.Complaints
	notify     Notifier
}

// NewScanner constructs a Scanner.
func NewScanner(complaints *store.Complaints, notify Notifier) *Scanner {
	return &Scanner{complaints: complaints, notify: notify}
}

// Lookup parses payload and loads the referenced complaint into the detail slot.
func (s *Scanner) Lookup(ctx context.Context, payload string) (models.ComplaintWithActions, error) {
	id, err := qr.Parse(payload)
	if err != nil {
		err = apperrors.NewBadRequest("This code is not a complaint label").WithInternal(err)
		return models.ComplaintWithActions{}, feedback(s.notify, "", err)
	}

	complaint, err := s.complaints.FetchDetail(ctx, id)
	if err != nil {
		return models.ComplaintWithActions{}, feedback(s.notify, "", err)
	}
	return complaint, nil
}
