package attendance

import (
	"errors"
	"fmt"
	"math"
)

// Reason classifies why a verification did not produce a record.
type Reason string

const (
	ReasonInvalidToken       Reason = "invalid_token"
	ReasonInvalidRequest     Reason = "invalid_request"
	ReasonCourseNotFound     Reason = "course_not_found"
	ReasonTooFar             Reason = "too_far"
	ReasonAlreadyMarked      Reason = "already_marked"
	ReasonDeviceAlreadyUsed  Reason = "device_already_used"
	ReasonStorageUnavailable Reason = "storage_unavailable"
)

// Rejection is the error returned by Engine.Verify. All reasons except
// ReasonStorageUnavailable are expected client outcomes.
type Rejection struct {
	Reason Reason
	// Distance is the measured distance in meters for ReasonTooFar.
	Distance float64
	// Detail names the offending field for ReasonInvalidRequest.
	Detail string
	Err    error
}

// Sentinels for errors.Is; they match any Rejection with the same Reason.
var (
	ErrInvalidToken       = &Rejection{Reason: ReasonInvalidToken}
	ErrInvalidRequest     = &Rejection{Reason: ReasonInvalidRequest}
	ErrCourseNotFound     = &Rejection{Reason: ReasonCourseNotFound}
	ErrTooFar             = &Rejection{Reason: ReasonTooFar}
	ErrAlreadyMarked      = &Rejection{Reason: ReasonAlreadyMarked}
	ErrDeviceAlreadyUsed  = &Rejection{Reason: ReasonDeviceAlreadyUsed}
	ErrStorageUnavailable = &Rejection{Reason: ReasonStorageUnavailable}
)

func (r *Rejection) Error() string {
	switch r.Reason {
	case ReasonInvalidToken:
		return "Invalid QR Code data."
	case ReasonInvalidRequest:
		if r.Detail != "" {
			return fmt.Sprintf("Invalid attendance request: %s.", r.Detail)
		}
		return "Invalid attendance request."
	case ReasonCourseNotFound:
		return "Course not found."
	case ReasonTooFar:
		return fmt.Sprintf("Too far from venue. Distance: %dm", int(math.Round(r.Distance)))
	case ReasonAlreadyMarked:
		return "You have already signed in today for this course."
	case ReasonDeviceAlreadyUsed:
		return "This device has already been used by another student for this course today."
	default:
		return "Server error"
	}
}

func (r *Rejection) Unwrap() error { return r.Err }

// Is matches Rejections by Reason.
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Reason == r.Reason
}

// Retryable reports whether the same call may succeed later.
func (r *Rejection) Retryable() bool {
	return r.Reason == ReasonStorageUnavailable
}

// ReasonOf extracts the reason from err, or "" when err is not a Rejection.
func ReasonOf(err error) Reason {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason
	}
	return ""
}

func reject(reason Reason, err error) *Rejection {
	return &Rejection{Reason: reason, Err: err}
}

func storageFault(op string, err error) *Rejection {
	return &Rejection{Reason: ReasonStorageUnavailable, Err: fmt.Errorf("%s: %w", op, err)}
}
