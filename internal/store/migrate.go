package store

import (
	"context"
	"fmt"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		course_id      TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		lecturer_id    TEXT NOT NULL,
		venue_name     TEXT NOT NULL DEFAULT '',
		venue_lat      DOUBLE PRECISION NOT NULL,
		venue_lng      DOUBLE PRECISION NOT NULL,
		schedule_day   TEXT NOT NULL DEFAULT '',
		schedule_start TEXT NOT NULL DEFAULT '',
		schedule_end   TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_courses_lecturer ON courses (lecturer_id)`,
	`CREATE TABLE IF NOT EXISTS attendance_records (
		id          TEXT PRIMARY KEY,
		student_id  TEXT NOT NULL,
		course_id   TEXT NOT NULL REFERENCES courses (course_id),
		occurred_at TIMESTAMPTZ NOT NULL,
		student_lat DOUBLE PRECISION NOT NULL,
		student_lng DOUBLE PRECISION NOT NULL,
		device_id   TEXT NOT NULL,
		day_bucket  DATE NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT attendance_records_student_day_key UNIQUE (student_id, course_id, day_bucket),
		CONSTRAINT attendance_records_device_day_key UNIQUE (device_id, course_id, day_bucket)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_course_day ON attendance_records (course_id, day_bucket)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_student_time ON attendance_records (student_id, occurred_at DESC)`,
}

// Migrate creates the tables used by the course directory and the ledger.
func (d *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i, err)
		}
	}
	return nil
}
