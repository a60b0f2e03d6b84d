// Package ledger stores attendance records and enforces their uniqueness.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"geoattend/internal/geo"
)

var (
	// ErrDuplicate is the parent of both uniqueness violations.
	ErrDuplicate = errors.New("ledger: duplicate record")
	// ErrDuplicateStudent means the student already has a record for the course that day.
	ErrDuplicateStudent = fmt.Errorf("%w: student already recorded", ErrDuplicate)
	// ErrDuplicateDevice means the device already produced a record for the course that day.
	ErrDuplicateDevice = fmt.Errorf("%w: device already recorded", ErrDuplicate)
)

// Record is the immutable fact that a student attended a course.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student"`
	CourseID  string    `json:"course"`
	Timestamp time.Time `json:"timestamp"`
	Location  geo.Point `json:"studentLocation"`
	DeviceID  string    `json:"deviceIdentifier"`
	// Day is the day bucket key (YYYY-MM-DD) the record counts against.
	Day string `json:"day"`
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	StudentID string
	CourseID  string
	Day       string
	Limit     int
	Offset    int
}

func (f Filter) normalized() Filter {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Ledger is the attendance record store.
type Ledger interface {
	// Insert persists rec atomically, returning ErrDuplicateStudent or
	// ErrDuplicateDevice when a uniqueness key for rec.Day is already taken.
	Insert(ctx context.Context, rec Record) (Record, error)
	// FindByStudentCourseDay returns nil when the student has no record.
	FindByStudentCourseDay(ctx context.Context, studentID, courseID string, day Day) (*Record, error)
	// FindByDeviceCourseDay returns a record made from deviceID by a student
	// other than excludeStudentID, or nil.
	FindByDeviceCourseDay(ctx context.Context, deviceID, courseID string, day Day, excludeStudentID string) (*Record, error)
	List(ctx context.Context, f Filter) ([]Record, error)
}
