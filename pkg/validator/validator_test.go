package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type resolvePayload struct {
	Compensation    string `json:"compensation" validate:"notblank"`
	ResolutionNotes string `json:"resolution_notes" validate:"max=20"`
	Platform        string `json:"platform" validate:"omitempty,oneof=ios android"`
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(resolvePayload{Compensation: "   ", Platform: "web"})
	require.Error(t, err)

	var failures ValidationErrors
	require.True(t, errors.As(err, &failures))
	require.Len(t, failures, 2)
	require.Equal(t, "compensation", failures[0].Field)
	require.Equal(t, "compensation is required", failures[0].Message())
	require.Equal(t, "platform", failures[1].Field)
	require.Equal(t, "platform must be one of: ios, android", failures[1].Message())
}

func TestValidateStructAcceptsValidPayload(t *testing.T) {
	require.NoError(t, ValidateStruct(resolvePayload{Compensation: "voucher", Platform: "ios"}))
}

func TestValidationErrorsString(t *testing.T) {
	require.Equal(t, "validation failed", ValidationErrors{}.Error())
	errs := ValidationErrors{{Field: "content", Tag: "required"}, {Field: "notes", Tag: "max", Param: "5"}}
	require.Equal(t, "content is required; notes must be at most 5 characters", errs.Error())
}
