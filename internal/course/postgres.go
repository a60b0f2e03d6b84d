package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const selectCourses = `
	SELECT course_id, name, lecturer_id, venue_name, venue_lat, venue_lng,
	       schedule_day, schedule_start, schedule_end
	FROM courses`

// PostgresDirectory reads courses from Postgres.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory creates a directory over db.
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) FindByCourseID(ctx context.Context, courseID string) (Course, error) {
	row := d.db.QueryRowContext(ctx, selectCourses+` WHERE course_id = $1`, courseID)
	c, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrNotFound
		}
		return Course{}, fmt.Errorf("find course %s: %w", courseID, err)
	}
	return c, nil
}

func (d *PostgresDirectory) List(ctx context.Context) ([]Course, error) {
	return d.query(ctx, selectCourses+` ORDER BY course_id`)
}

func (d *PostgresDirectory) ListByLecturer(ctx context.Context, lecturerID string) ([]Course, error) {
	return d.query(ctx, selectCourses+` WHERE lecturer_id = $1 ORDER BY course_id`, lecturerID)
}

// Upsert inserts or updates a course by course_id.
func (d *PostgresDirectory) Upsert(ctx context.Context, c Course) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO courses (course_id, name, lecturer_id, venue_name, venue_lat, venue_lng,
		                     schedule_day, schedule_start, schedule_end)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (course_id) DO UPDATE SET
			name = EXCLUDED.name,
			lecturer_id = EXCLUDED.lecturer_id,
			venue_name = EXCLUDED.venue_name,
			venue_lat = EXCLUDED.venue_lat,
			venue_lng = EXCLUDED.venue_lng,
			schedule_day = EXCLUDED.schedule_day,
			schedule_start = EXCLUDED.schedule_start,
			schedule_end = EXCLUDED.schedule_end,
			updated_at = NOW()
	`, c.CourseID, c.Name, c.LecturerID, c.Venue.Name, c.Venue.Lat, c.Venue.Lng,
		c.Schedule.Day, c.Schedule.StartTime, c.Schedule.EndTime)
	if err != nil {
		return fmt.Errorf("upsert course %s: %w", c.CourseID, err)
	}
	return nil
}

func (d *PostgresDirectory) query(ctx context.Context, query string, args ...any) ([]Course, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()
	var res []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(s scanner) (Course, error) {
	var c Course
	err := s.Scan(&c.CourseID, &c.Name, &c.LecturerID, &c.Venue.Name, &c.Venue.Lat, &c.Venue.Lng,
		&c.Schedule.Day, &c.Schedule.StartTime, &c.Schedule.EndTime)
	return c, err
}
