// Package roster keeps the live count of students marked present per course and day.
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"geoattend/internal/ledger"
	"geoattend/internal/queue"
)

// EventMarked is the queue message type published for each accepted record.
const EventMarked = "attendance.marked"

// Expiry bounds how long a day's roster lives in Redis.
const Expiry = 48 * time.Hour

// Event is the body of an EventMarked message.
type Event struct {
	RecordID  string    `json:"record_id"`
	CourseID  string    `json:"course_id"`
	StudentID string    `json:"student_id"`
	Day       string    `json:"day"`
	When      time.Time `json:"when"`
}

// MarkedMessage builds the queue message for rec.
func MarkedMessage(rec ledger.Record) (queue.Message, error) {
	return queue.NewMessage(EventMarked, Event{
		RecordID:  rec.ID,
		CourseID:  rec.CourseID,
		StudentID: rec.StudentID,
		Day:       rec.Day,
		When:      rec.Timestamp,
	})
}

// Tracker records present students.
type Tracker interface {
	Add(ctx context.Context, courseID, day, studentID string) error
	Count(ctx context.Context, courseID, day string) (int64, error)
}

// Apply decodes an EventMarked message into the tracker. Other types are ignored.
func Apply(ctx context.Context, t Tracker, msg queue.Message) error {
	if msg.Type != EventMarked {
		return nil
	}
	var evt Event
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		return fmt.Errorf("decode %s event: %w", EventMarked, err)
	}
	if evt.CourseID == "" || evt.Day == "" || evt.StudentID == "" {
		return fmt.Errorf("incomplete %s event %q", EventMarked, evt.RecordID)
	}
	return t.Add(ctx, evt.CourseID, evt.Day, evt.StudentID)
}

// Redis keeps each roster in a set keyed by course and day.
type Redis struct {
	client *redis.Client
}

// NewRedis returns a tracker over client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func key(courseID, day string) string {
	return "attendance:present:" + courseID + ":" + day
}

func (r *Redis) Add(ctx context.Context, courseID, day, studentID string) error {
	k := key(courseID, day)
	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, k, studentID)
	pipe.Expire(ctx, k, Expiry)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Count(ctx context.Context, courseID, day string) (int64, error) {
	return r.client.SCard(ctx, key(courseID, day)).Result()
}

// Memory is a process-local Tracker.
type Memory struct {
	mu   sync.Mutex
	sets map[string]map[string]struct{}
}

// NewMemory returns an empty tracker.
func NewMemory() *Memory {
	return &Memory{sets: make(map[string]map[string]struct{})}
}

func (m *Memory) Add(ctx context.Context, courseID, day, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(courseID, day)
	s, ok := m.sets[k]
	if !ok {
		s = make(map[string]struct{})
		m.sets[k] = s
	}
	s[studentID] = struct{}{}
	return nil
}

func (m *Memory) Count(ctx context.Context, courseID, day string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sets[key(courseID, day)])), nil
}
