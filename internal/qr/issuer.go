// Package qr builds the tokens lecturers display as QR codes.
package qr

import (
	"context"
	"errors"
	"fmt"

	"geoattend/internal/course"
	"geoattend/internal/token"
)

var (
	// ErrNotFound is returned when the course does not exist.
	ErrNotFound = errors.New("qr: course not found")
	// ErrNotOwner is returned when ownership is enforced and the lecturer does not teach the course.
	ErrNotOwner = errors.New("qr: lecturer does not own course")
)

// Issuer produces attendance tokens for courses.
type Issuer struct {
	courses      course.Directory
	requireOwner bool
}

// NewIssuer creates an issuer. With requireOwner, IssueAs rejects lecturers
// other than the course's own.
func NewIssuer(courses course.Directory, requireOwner bool) *Issuer {
	return &Issuer{courses: courses, requireOwner: requireOwner}
}

// Issue returns the token for courseID carrying the venue registered now.
func (i *Issuer) Issue(ctx context.Context, courseID string) (string, error) {
	c, err := i.lookup(ctx, courseID)
	if err != nil {
		return "", err
	}
	return encode(c)
}

// IssueAs is Issue on behalf of lecturerID.
func (i *Issuer) IssueAs(ctx context.Context, courseID, lecturerID string) (string, error) {
	c, err := i.lookup(ctx, courseID)
	if err != nil {
		return "", err
	}
	if i.requireOwner && c.LecturerID != lecturerID {
		return "", ErrNotOwner
	}
	return encode(c)
}

func (i *Issuer) lookup(ctx context.Context, courseID string) (course.Course, error) {
	c, err := i.courses.FindByCourseID(ctx, courseID)
	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			return course.Course{}, ErrNotFound
		}
		return course.Course{}, fmt.Errorf("qr: resolve course: %w", err)
	}
	return c, nil
}

func encode(c course.Course) (string, error) {
	return token.Encode(token.Payload{
		CourseID:   c.CourseID,
		LecturerID: c.LecturerID,
		VenueLat:   c.Venue.Lat,
		VenueLng:   c.Venue.Lng,
	})
}
