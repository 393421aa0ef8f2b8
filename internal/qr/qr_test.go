package qr

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{name: "bare id", payload: " 65f1c2ab9e ", want: "65f1c2ab9e"},
		{name: "label uri", payload: "storedesk://complaints/abc123", want: "abc123"},
		{name: "singular label", payload: "storedesk://complaint/abc123", want: "abc123"},
		{name: "web link", payload: "https://desk.example.com/app/complaints/abc-123", want: "abc-123"},
		{name: "other entity", payload: "storedesk://action-items/abc", wantErr: true},
		{name: "foreign scheme", payload: "ftp://host/complaints/abc", wantErr: true},
		{name: "empty", payload: "  ", wantErr: true},
		{name: "free text", payload: "hello world", wantErr: true},
		{name: "bad id", payload: "storedesk://complaints/a%20b", wantErr: true},
		{name: "bare path word", payload: "complaints", wantErr: true},
		{name: "bare scheme", payload: "StoreDesk", wantErr: true},
		{name: "path word as id", payload: "storedesk://complaints/complaint", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.payload)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	id, err := Parse(Payload("c-42"))
	require.NoError(t, err)
	require.Equal(t, "c-42", id)
}

func TestEncodeProducesPNG(t *testing.T) {
	png, err := NewEncoder(WithSize(128)).Encode("c-42")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestEncodeRejectsInvalidID(t *testing.T) {
	_, err := NewEncoder().Encode("not an id")
	require.Error(t, err)

	_, err = NewEncoder().Encode("complaints")
	require.Error(t, err)
}
