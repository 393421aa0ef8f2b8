// Package push registers the device for notifications and surfaces live notifications as
// toasts. No store is modified here; screens refresh on their own schedule.
package push

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/charlesng35/storedesk/pkg/errors"
	"github.com/charlesng35/storedesk/pkg/validator"
)

// DeviceAPI registers push tokens with the backend.
type DeviceAPI interface {
	RegisterDevice(ctx context.Context, token, platform string) error
}

type registration struct {
	Token    string `json:"token" validate:"notblank,max=4096"`
	Platform string `json:"platform" validate:"required,oneof=ios android"`
}

// Registrar validates and forwards device registrations.
type Registrar struct {
	api DeviceAPI
}

// NewRegistrar constructs a Registrar.
func NewRegistrar(api DeviceAPI) (*Registrar, error) {
	if api == nil {
		return nil, errors.New("push: device api is required")
	}
	return &Registrar{api: api}, nil
}

// Register sends the platform push token to the backend.
func (r *Registrar) Register(ctx context.Context, token, platform string) error {
	input := registration{
		Token:    strings.TrimSpace(token),
		Platform: strings.ToLower(strings.TrimSpace(platform)),
	}
	if err := validator.ValidateStruct(input); err != nil {
		return apperrors.NewBadRequest(err.Error()).WithInternal(err)
	}
	return r.api.RegisterDevice(ctx, input.Token, input.Platform)
}
