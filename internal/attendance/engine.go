// Package attendance decides whether a QR redemption attempt records attendance.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"geoattend/internal/course"
	"geoattend/internal/geo"
	"geoattend/internal/ledger"
	"geoattend/internal/logger"
	"geoattend/internal/token"
)

// DefaultRadius is the geofence radius in meters.
const DefaultRadius = 50.0

// Request is one redemption attempt.
type Request struct {
	Token     string
	StudentID string
	// Position is the student's reported location; nil means not supplied.
	Position *geo.Point
	DeviceID string
	// Now is the attempt time. Zero means the engine clock.
	Now time.Time
}

// Options configures an Engine.
type Options struct {
	// Radius is the geofence radius in meters; <= 0, NaN or Inf means DefaultRadius.
	Radius float64
	// Location is the timezone of the attendance day; nil means time.Local.
	Location *time.Location
	Now      func() time.Time
}

// Engine verifies redemption attempts against the course directory and the
// ledger. It holds no mutable state.
type Engine struct {
	courses course.Directory
	ledger  ledger.Ledger
	radius  float64
	loc     *time.Location
	now     func() time.Time
}

// NewEngine creates an engine.
func NewEngine(courses course.Directory, l ledger.Ledger, opts Options) *Engine {
	e := &Engine{
		courses: courses,
		ledger:  l,
		radius:  opts.Radius,
		loc:     opts.Location,
		now:     opts.Now,
	}
	if math.IsNaN(e.radius) || math.IsInf(e.radius, 0) || e.radius <= 0 {
		e.radius = DefaultRadius
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Radius returns the configured geofence radius in meters.
func (e *Engine) Radius() float64 { return e.radius }

// Verify runs the gates in order and appends a record when all pass. Every
// failure is a *Rejection; nothing is written unless the record is accepted.
func (e *Engine) Verify(ctx context.Context, req Request) (ledger.Record, error) {
	payload, err := token.Decode(req.Token)
	if err != nil {
		return ledger.Record{}, reject(ReasonInvalidToken, err)
	}

	if rej := validate(req); rej != nil {
		return ledger.Record{}, rej
	}
	studentID := strings.TrimSpace(req.StudentID)
	deviceID := strings.TrimSpace(req.DeviceID)
	position := *req.Position

	// Venue coordinates come from the directory, never from the token.
	c, err := e.courses.FindByCourseID(ctx, payload.CourseID)
	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			return ledger.Record{}, reject(ReasonCourseNotFound, err)
		}
		return ledger.Record{}, storageFault("resolve course", err)
	}

	distance := geo.Between(position, c.Venue.Point())
	if distance > e.radius {
		return ledger.Record{}, &Rejection{Reason: ReasonTooFar, Distance: distance}
	}

	now := req.Now
	if now.IsZero() {
		now = e.now()
	}
	day := ledger.DayOf(now, e.loc)

	existing, err := e.ledger.FindByStudentCourseDay(ctx, studentID, c.CourseID, day)
	if err != nil {
		return ledger.Record{}, storageFault("student lookup", err)
	}
	if existing != nil {
		return ledger.Record{}, reject(ReasonAlreadyMarked, nil)
	}

	shared, err := e.ledger.FindByDeviceCourseDay(ctx, deviceID, c.CourseID, day, studentID)
	if err != nil {
		return ledger.Record{}, storageFault("device lookup", err)
	}
	if shared != nil {
		logger.Warn().
			Str("course_id", c.CourseID).
			Str("student_id", studentID).
			Str("device_owner", shared.StudentID).
			Msg("device reuse blocked")
		return ledger.Record{}, reject(ReasonDeviceAlreadyUsed, nil)
	}

	rec, err := e.ledger.Insert(ctx, ledger.Record{
		StudentID: studentID,
		CourseID:  c.CourseID,
		Timestamp: now,
		Location:  position,
		DeviceID:  deviceID,
		Day:       day.Key(),
	})
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, ledger.ErrDuplicateStudent):
		return ledger.Record{}, reject(ReasonAlreadyMarked, err)
	case errors.Is(err, ledger.ErrDuplicateDevice):
		return ledger.Record{}, reject(ReasonDeviceAlreadyUsed, err)
	default:
		return ledger.Record{}, storageFault("commit record", err)
	}
}

func validate(req Request) *Rejection {
	var missing []string
	if strings.TrimSpace(req.StudentID) == "" {
		missing = append(missing, "student")
	}
	if req.Position == nil || !req.Position.Valid() {
		missing = append(missing, "location")
	}
	if strings.TrimSpace(req.DeviceID) == "" {
		missing = append(missing, "deviceIdentifier")
	}
	if len(missing) == 0 {
		return nil
	}
	return &Rejection{
		Reason: ReasonInvalidRequest,
		Detail: "missing " + strings.Join(missing, ", "),
		Err:    fmt.Errorf("missing fields: %v", missing),
	}
}
