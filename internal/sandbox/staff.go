package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/storedesk/pkg/crypto"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
)

// StaffInput describes an employee to create.
type StaffInput struct {
	ID      string
	Name    string
	Role    string
	StoreID string
	PIN     string
}

// CreateStaff stores an employee with an Argon2id hash of their PIN.
func (s *Service) CreateStaff(ctx context.Context, input StaffInput) error {
	id := strings.TrimSpace(input.ID)
	if id == "" || input.PIN == "" {
		return apperrors.NewBadRequest("staff id and pin are required")
	}

	salt, hash, err := crypto.HashPIN(input.PIN)
	if err != nil {
		return fmt.Errorf("sandbox: hash pin: %w", err)
	}

	record := StaffRecord{
		ID:      id,
		Name:    strings.TrimSpace(input.Name),
		Role:    input.Role,
		StoreID: input.StoreID,
		PINSalt: salt,
		PINHash: hash,
	}
	if err := s.db.WithContext(ensureContext(ctx)).Create(&record).Error; err != nil {
		return fmt.Errorf("sandbox: create staff: %w", err)
	}
	return nil
}

// Authenticate verifies a staff PIN and returns the identity to embed in the access token.
func (s *Service) Authenticate(ctx context.Context, staffID, pin string) (Caller, error) {
	if pin == "" {
		return Caller{}, apperrors.ErrUnauthorized.WithMessage("invalid staff id or pin")
	}

	var record StaffRecord
	err := s.db.WithContext(ensureContext(ctx)).Where("id = ?", strings.TrimSpace(staffID)).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Caller{}, apperrors.ErrUnauthorized.WithMessage("invalid staff id or pin")
	}
	if err != nil {
		return Caller{}, fmt.Errorf("sandbox: load staff: %w", err)
	}

	if err := crypto.VerifyPIN(pin, record.PINSalt, record.PINHash); err != nil {
		if errors.Is(err, crypto.ErrPINMismatch) {
			return Caller{}, apperrors.ErrUnauthorized.WithMessage("invalid staff id or pin")
		}
		return Caller{}, fmt.Errorf("sandbox: verify pin: %w", err)
	}

	return Caller{
		UserID:  record.ID,
		Name:    record.Name,
		Role:    record.Role,
		StoreID: record.StoreID,
	}, nil
}
