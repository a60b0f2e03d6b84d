package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Ledger. Insert checks both uniqueness keys under
// one lock, matching the Postgres constraints.
type Memory struct {
	mu        sync.Mutex
	records   []Record
	byStudent map[string]int
	byDevice  map[string]int
}

// NewMemory returns an empty ledger.
func NewMemory() *Memory {
	return &Memory{
		byStudent: make(map[string]int),
		byDevice:  make(map[string]int),
	}
}

func studentKey(studentID, courseID, day string) string {
	return studentID + "\x00" + courseID + "\x00" + day
}

func deviceKey(deviceID, courseID, day string) string {
	return deviceID + "\x00" + courseID + "\x00" + day
}

func (m *Memory) Insert(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	sk := studentKey(rec.StudentID, rec.CourseID, rec.Day)
	dk := deviceKey(rec.DeviceID, rec.CourseID, rec.Day)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byStudent[sk]; ok {
		return Record{}, ErrDuplicateStudent
	}
	if _, ok := m.byDevice[dk]; ok {
		return Record{}, ErrDuplicateDevice
	}
	m.records = append(m.records, rec)
	m.byStudent[sk] = len(m.records) - 1
	m.byDevice[dk] = len(m.records) - 1
	return rec, nil
}

func (m *Memory) FindByStudentCourseDay(ctx context.Context, studentID, courseID string, day Day) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byStudent[studentKey(studentID, courseID, day.Key())]
	if !ok {
		return nil, nil
	}
	rec := m.records[i]
	return &rec, nil
}

func (m *Memory) FindByDeviceCourseDay(ctx context.Context, deviceID, courseID string, day Day, excludeStudentID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byDevice[deviceKey(deviceID, courseID, day.Key())]
	if !ok || m.records[i].StudentID == excludeStudentID {
		return nil, nil
	}
	rec := m.records[i]
	return &rec, nil
}

func (m *Memory) List(ctx context.Context, f Filter) ([]Record, error) {
	f = f.normalized()
	m.mu.Lock()
	var res []Record
	for _, r := range m.records {
		if f.StudentID != "" && r.StudentID != f.StudentID {
			continue
		}
		if f.CourseID != "" && r.CourseID != f.CourseID {
			continue
		}
		if f.Day != "" && r.Day != f.Day {
			continue
		}
		res = append(res, r)
	}
	m.mu.Unlock()

	sort.SliceStable(res, func(i, j int) bool { return res[i].Timestamp.After(res[j].Timestamp) })
	if f.Offset >= len(res) {
		return nil, nil
	}
	res = res[f.Offset:]
	if len(res) > f.Limit {
		res = res[:f.Limit]
	}
	return res, nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
