package course

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const sampleSeed = `
courses:
  - courseId: PHYS143
    name: Mechanics and Thermal Physics
    lecturerId: LECT001
    venue:
      name: J.A. Kufuor Lecture Theatre
      lat: 5.651
      lng: -0.1875
    schedule:
      day: Monday
      startTime: "08:30 AM"
      endTime: "10:20 AM"
  - courseId: PHYS144
    name: Electricity and Magnetism
    lecturerId: LECT002
    venue:
      name: New N Block, N1
      lat: 5.6505
      lng: -0.1865
`

func TestParseSeed(t *testing.T) {
	courses, err := ParseSeed(strings.NewReader(sampleSeed))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("got %d courses, want 2", len(courses))
	}
	c := courses[0]
	if c.CourseID != "PHYS143" || c.Venue.Lat != 5.651 || c.Venue.Lng != -0.1875 {
		t.Fatalf("unexpected course %+v", c)
	}
	if c.Schedule.StartTime != "08:30 AM" {
		t.Fatalf("schedule not parsed: %+v", c.Schedule)
	}
}

func TestParseSeedRejectsBadEntries(t *testing.T) {
	cases := map[string]string{
		"missing id":       "courses:\n  - name: x\n    lecturerId: L\n",
		"missing lecturer": "courses:\n  - courseId: A\n",
		"duplicate":        "courses:\n  - courseId: A\n    lecturerId: L\n  - courseId: A\n    lecturerId: L\n",
		"bad yaml":         "courses: [",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseSeed(strings.NewReader(in)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestMemoryDirectory(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDirectory(
		Course{CourseID: "PHYS144", LecturerID: "LECT002"},
		Course{CourseID: "PHYS143", LecturerID: "LECT001"},
		Course{CourseID: "PHYS101", LecturerID: "LECT001"},
	)

	if _, err := d.FindByCourseID(ctx, "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByCourseID missing = %v, want ErrNotFound", err)
	}
	c, err := d.FindByCourseID(ctx, "PHYS143")
	if err != nil || c.LecturerID != "LECT001" {
		t.Fatalf("FindByCourseID = %+v, %v", c, err)
	}

	all, _ := d.List(ctx)
	if len(all) != 3 || all[0].CourseID != "PHYS101" {
		t.Fatalf("List not sorted: %+v", all)
	}
	mine, _ := d.ListByLecturer(ctx, "LECT001")
	if len(mine) != 2 {
		t.Fatalf("ListByLecturer = %+v", mine)
	}

	d.Put(Course{CourseID: "PHYS143", LecturerID: "LECT009"})
	c, _ = d.FindByCourseID(ctx, "PHYS143")
	if c.LecturerID != "LECT009" {
		t.Fatalf("Put did not replace course: %+v", c)
	}
}
