package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint names from the attendance_records schema.
const (
	StudentDayConstraint = "attendance_records_student_day_key"
	DeviceDayConstraint  = "attendance_records_device_day_key"
)

var recordColumns = []string{
	"id", "student_id", "course_id", "occurred_at", "student_lat", "student_lng",
	"device_id", "to_char(day_bucket, 'YYYY-MM-DD')",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Postgres persists records in attendance_records.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a ledger over db.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, student_id, course_id, occurred_at, student_lat, student_lng, device_id, day_bucket)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, rec.ID, rec.StudentID, rec.CourseID, rec.Timestamp, rec.Location.Lat, rec.Location.Lng, rec.DeviceID, rec.Day)
	switch {
	case err == nil:
		return rec, nil
	case isUniqueViolation(err, StudentDayConstraint):
		return Record{}, ErrDuplicateStudent
	case isUniqueViolation(err, DeviceDayConstraint):
		return Record{}, ErrDuplicateDevice
	default:
		return Record{}, fmt.Errorf("insert attendance record: %w", err)
	}
}

func (p *Postgres) FindByStudentCourseDay(ctx context.Context, studentID, courseID string, day Day) (*Record, error) {
	return p.findOne(ctx, psql.Select(recordColumns...).From("attendance_records").Where(sq.Eq{
		"student_id": studentID,
		"course_id":  courseID,
		"day_bucket": day.Key(),
	}))
}

func (p *Postgres) FindByDeviceCourseDay(ctx context.Context, deviceID, courseID string, day Day, excludeStudentID string) (*Record, error) {
	return p.findOne(ctx, psql.Select(recordColumns...).From("attendance_records").Where(sq.And{
		sq.Eq{"device_id": deviceID, "course_id": courseID, "day_bucket": day.Key()},
		sq.NotEq{"student_id": excludeStudentID},
	}))
}

func (p *Postgres) List(ctx context.Context, f Filter) ([]Record, error) {
	f = f.normalized()
	q := psql.Select(recordColumns...).From("attendance_records")
	if f.StudentID != "" {
		q = q.Where(sq.Eq{"student_id": f.StudentID})
	}
	if f.CourseID != "" {
		q = q.Where(sq.Eq{"course_id": f.CourseID})
	}
	if f.Day != "" {
		q = q.Where(sq.Eq{"day_bucket": f.Day})
	}
	q = q.OrderBy("occurred_at DESC").Limit(uint64(f.Limit)).Offset(uint64(f.Offset))

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func (p *Postgres) findOne(ctx context.Context, q sq.SelectBuilder) (*Record, error) {
	query, args, err := q.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lookup query: %w", err)
	}
	rec, err := scanRecord(p.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup attendance record: %w", err)
	}
	return &rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var r Record
	err := s.Scan(&r.ID, &r.StudentID, &r.CourseID, &r.Timestamp, &r.Location.Lat, &r.Location.Lng, &r.DeviceID, &r.Day)
	return r, err
}

// isUniqueViolation reports a Postgres unique_violation (23505) on constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
