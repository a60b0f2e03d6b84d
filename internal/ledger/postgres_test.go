package ledger

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"geoattend/internal/store"
)

func newPostgresLedger(t *testing.T) (*Postgres, string) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := store.NewDB(ctx, url, 5*time.Second)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	courseID := "TEST-" + uuid.NewString()[:8]
	if _, err := db.Client.ExecContext(ctx,
		`INSERT INTO courses (course_id, name, lecturer_id, venue_lat, venue_lng) VALUES ($1, 'Test', 'LECT', 5.651, -0.1875)`,
		courseID); err != nil {
		t.Fatalf("insert course: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Client.ExecContext(ctx, `DELETE FROM attendance_records WHERE course_id = $1`, courseID)
		_, _ = db.Client.ExecContext(ctx, `DELETE FROM courses WHERE course_id = $1`, courseID)
	})
	return NewPostgres(db.Client), courseID
}

func TestPostgresUniqueConstraints(t *testing.T) {
	p, courseID := newPostgresLedger(t)
	ctx := context.Background()
	at := time.Date(2026, 10, 12, 9, 0, 0, 0, testLoc)
	day := DayOf(at, testLoc)

	if _, err := p.Insert(ctx, newRecord("s1", courseID, "d1", at)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := p.Insert(ctx, newRecord("s1", courseID, "d2", at)); !errors.Is(err, ErrDuplicateStudent) {
		t.Fatalf("second insert error = %v, want ErrDuplicateStudent", err)
	}
	if _, err := p.Insert(ctx, newRecord("s2", courseID, "d1", at)); !errors.Is(err, ErrDuplicateDevice) {
		t.Fatalf("shared device insert error = %v, want ErrDuplicateDevice", err)
	}

	rec, err := p.FindByStudentCourseDay(ctx, "s1", courseID, day)
	if err != nil || rec == nil || rec.Day != day.Key() {
		t.Fatalf("FindByStudentCourseDay = %+v, %v", rec, err)
	}
	if rec, _ := p.FindByDeviceCourseDay(ctx, "d1", courseID, day, "s1"); rec != nil {
		t.Fatal("device lookup must exclude the same student")
	}
	if rec, _ := p.FindByDeviceCourseDay(ctx, "d1", courseID, day, "s2"); rec == nil {
		t.Fatal("device lookup must find the other student's record")
	}
	recs, err := p.List(ctx, Filter{CourseID: courseID, Day: day.Key()})
	if err != nil || len(recs) != 1 {
		t.Fatalf("List = %+v, %v", recs, err)
	}
}
