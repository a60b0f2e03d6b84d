package course

import (
	"context"
	"sort"
	"sync"
)

// MemoryDirectory is a map-backed Directory for tests and local runs.
type MemoryDirectory struct {
	mu      sync.RWMutex
	courses map[string]Course
}

// NewMemoryDirectory returns a directory holding the given courses.
func NewMemoryDirectory(courses ...Course) *MemoryDirectory {
	d := &MemoryDirectory{courses: make(map[string]Course, len(courses))}
	for _, c := range courses {
		d.courses[c.CourseID] = c
	}
	return d
}

// Put adds or replaces a course.
func (d *MemoryDirectory) Put(c Course) {
	d.mu.Lock()
	d.courses[c.CourseID] = c
	d.mu.Unlock()
}

func (d *MemoryDirectory) FindByCourseID(ctx context.Context, courseID string) (Course, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.courses[courseID]
	if !ok {
		return Course{}, ErrNotFound
	}
	return c, nil
}

func (d *MemoryDirectory) List(ctx context.Context) ([]Course, error) {
	return d.filter(func(Course) bool { return true }), nil
}

func (d *MemoryDirectory) ListByLecturer(ctx context.Context, lecturerID string) ([]Course, error) {
	return d.filter(func(c Course) bool { return c.LecturerID == lecturerID }), nil
}

func (d *MemoryDirectory) filter(keep func(Course) bool) []Course {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Course, 0, len(d.courses))
	for _, c := range d.courses {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out
}
