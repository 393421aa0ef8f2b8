// Package workflow drives the screen-level flows on top of the stores: input validation, the
// resolved-complaint guard and user feedback through toasts.
package workflow

import (
	"errors"

	apperrors "github.com/charlesng35/storedesk/pkg/errors"
	"github.com/charlesng35/storedesk/pkg/validator"
)

// Notifier shows feedback to the user. *toast.Channel satisfies it.
type Notifier interface {
	Success(message string) string
	Error(message string) string
	Info(message string) string
}

type idInput struct {
	ID string `json:"id" validate:"required"`
}

// validate checks input and converts failures into a bad request error that carries the
// validation messages.
func validate(input any) error {
	if err := validator.ValidateStruct(input); err != nil {
		var failures validator.ValidationErrors
		if errors.As(err, &failures) {
			return apperrors.ErrBadRequest.WithMessage(failures.Error()).WithInternal(err)
		}
		return apperrors.ErrBadRequest.WithInternal(err)
	}
	return nil
}

// feedback toasts the outcome of a write and passes err through.
func feedback(n Notifier, success string, err error) error {
	if n == nil {
		return err
	}
	if err != nil {
		n.Error(apperrors.UserMessage(err))
		return err
	}
	if success != "" {
		n.Success(success)
	}
	return nil
}
