package course

import (
	"context"
	"errors"

	"geoattend/internal/geo"
)

// ErrNotFound is returned when no course matches the requested id.
var ErrNotFound = errors.New("course not found")

// Venue is the registered location of a course session.
type Venue struct {
	Name string  `json:"name" yaml:"name"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lng  float64 `json:"lng" yaml:"lng"`
}

// Point returns the venue coordinates.
func (v Venue) Point() geo.Point {
	return geo.Point{Lat: v.Lat, Lng: v.Lng}
}

// Schedule is advisory timetable data; attendance is not restricted to it.
type Schedule struct {
	Day       string `json:"day" yaml:"day"`
	StartTime string `json:"startTime" yaml:"startTime"`
	EndTime   string `json:"endTime" yaml:"endTime"`
}

// Course identifies a course and where it is held.
type Course struct {
	CourseID   string   `json:"courseId" yaml:"courseId"`
	Name       string   `json:"name" yaml:"name"`
	LecturerID string   `json:"lecturerId" yaml:"lecturerId"`
	Venue      Venue    `json:"venue" yaml:"venue"`
	Schedule   Schedule `json:"schedule" yaml:"schedule"`
}

// Directory is the read-only course lookup.
type Directory interface {
	// FindByCourseID returns ErrNotFound when the course does not exist.
	FindByCourseID(ctx context.Context, courseID string) (Course, error)
	List(ctx context.Context) ([]Course, error)
	ListByLecturer(ctx context.Context, lecturerID string) ([]Course, error)
}
