// Package token encodes and decodes the course payload carried by attendance QR codes.
package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned when a raw token is not a parseable payload.
var ErrMalformed = errors.New("token: malformed payload")

// Payload is the data embedded in a QR code. Venue coordinates are those
// registered at issuance time and are advisory only.
type Payload struct {
	CourseID   string  `json:"courseId"`
	LecturerID string  `json:"lecturerId"`
	VenueLat   float64 `json:"venueLat"`
	VenueLng   float64 `json:"venueLng"`
}

// Encode renders the payload as the compact JSON string scanned from the QR code.
func Encode(p Payload) (string, error) {
	if strings.TrimSpace(p.CourseID) == "" {
		return "", errors.New("token: course id required")
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("token: encode: %w", err)
	}
	return string(b), nil
}

// Decode parses a raw token. Any failure wraps ErrMalformed.
func Decode(raw string) (Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, fmt.Errorf("%w: empty", ErrMalformed)
	}
	if raw[0] != '{' {
		return Payload{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	var p Payload
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if err := dec.Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.More() {
		return Payload{}, fmt.Errorf("%w: trailing data", ErrMalformed)
	}
	p.CourseID = strings.TrimSpace(p.CourseID)
	if p.CourseID == "" {
		return Payload{}, fmt.Errorf("%w: missing courseId", ErrMalformed)
	}
	return p, nil
}
