// Package qr encodes and decodes the complaint labels printed on store paperwork.
package qr

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	// Scheme is the URI scheme printed on complaint labels.
	Scheme = "storedesk"

	defaultSize = 256
)

// ErrInvalidPayload is returned when a scanned code does not reference a complaint.
var ErrInvalidPayload = errors.New("qr: payload does not reference a complaint")

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// reserved words appear in label URIs and are never complaint ids.
var reserved = map[string]bool{
	Scheme:       true,
	"complaints": true,
	"complaint":  true,
	"http":       true,
	"https":      true,
}

func validID(id string) bool {
	return idPattern.MatchString(id) && !reserved[strings.ToLower(id)]
}

// Option customises the encoder.
type Option func(*Encoder)

// WithSize controls the pixel size of generated codes.
func WithSize(size int) Option {
	return func(e *Encoder) {
		if size > 0 {
			e.size = size
		}
	}
}

// WithRecovery sets the error correction level.
func WithRecovery(level qrcode.RecoveryLevel) Option {
	return func(e *Encoder) {
		e.level = level
	}
}

// Encoder renders complaint labels as PNG images.
type Encoder struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewEncoder constructs an Encoder.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{size: defaultSize, level: qrcode.Medium}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode returns a PNG label for complaintID.
func (e *Encoder) Encode(complaintID string) ([]byte, error) {
	id := strings.TrimSpace(complaintID)
	if !validID(id) {
		return nil, fmt.Errorf("qr: invalid complaint id %q", complaintID)
	}
	return qrcode.Encode(Payload(id), e.level, e.size)
}

// Payload returns the text encoded in a complaint label.
func Payload(complaintID string) string {
	return Scheme + "://complaints/" + complaintID
}

// Parse extracts the complaint id from a scanned payload. It accepts the label URI, any web
// link whose path ends in complaints/<id>, and a bare id other than the words used in label URIs.
func Parse(payload string) (string, error) {
	raw := strings.TrimSpace(payload)
	if raw == "" {
		return "", ErrInvalidPayload
	}
	if idPattern.MatchString(raw) {
		if !validID(raw) {
			return "", ErrInvalidPayload
		}
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "", ErrInvalidPayload
	}

	var segments []string
	switch strings.ToLower(u.Scheme) {
	case Scheme:
		segments = append(segments, u.Host)
		segments = append(segments, splitPath(u.Path)...)
	case "http", "https":
		segments = splitPath(u.Path)
	default:
		return "", ErrInvalidPayload
	}

	if len(segments) < 2 {
		return "", ErrInvalidPayload
	}
	kind, id := segments[len(segments)-2], segments[len(segments)-1]
	if kind != "complaints" && kind != "complaint" {
		return "", ErrInvalidPayload
	}
	if !validID(id) {
		return "", ErrInvalidPayload
	}
	return id, nil
}

func splitPath(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
