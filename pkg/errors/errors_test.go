package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorIncludesInternal(t *testing.T) {
	err := Wrap(stdErrors.New("boom"), "failed")
	require.Equal(t, "failed: boom", err.Error())
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	require.NotSame(t, base, with)
	require.Nil(t, base.Internal)
	require.NotNil(t, with.Internal)
}

func TestCopiesStillMatchSentinel(t *testing.T) {
	err := fmt.Errorf("list complaints: %w", ErrNetwork.WithInternal(stdErrors.New("dial tcp")))
	require.ErrorIs(t, err, ErrNetwork)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestFromError(t *testing.T) {
	require.Same(t, ErrNotFound, FromError(ErrNotFound))

	out := FromError(stdErrors.New("raw"))
	require.Equal(t, ErrInternalServer.Code, out.Code)
	require.NotNil(t, out.Internal)
	require.Nil(t, FromError(nil))
}

func TestFromStatus(t *testing.T) {
	notFound := FromStatus(http.StatusNotFound, "", "")
	require.ErrorIs(t, notFound, ErrNotFound)
	require.Equal(t, http.StatusNotFound, notFound.StatusCode)

	custom := FromStatus(http.StatusUnprocessableEntity, "VALIDATION", "compensation is required")
	require.Equal(t, "VALIDATION", custom.Code)
	require.Equal(t, "compensation is required", custom.Message)

	server := FromStatus(http.StatusBadGateway, "", "")
	require.ErrorIs(t, server, ErrInternalServer)
}

func TestUserMessage(t *testing.T) {
	require.Equal(t, "", UserMessage(nil))
	require.Equal(t, ErrRateLimit.Message, UserMessage(fmt.Errorf("wrapped: %w", ErrRateLimit)))
	require.Equal(t, "Something went wrong", UserMessage(stdErrors.New("plain")))
}
