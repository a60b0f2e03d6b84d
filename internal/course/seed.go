package course

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Courses []Course `yaml:"courses"`
}

// LoadSeed reads courses from a YAML seed file.
func LoadSeed(path string) ([]Course, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

// ParseSeed decodes and validates seed YAML.
func ParseSeed(r io.Reader) ([]Course, error) {
	var sf seedFile
	if err := yaml.NewDecoder(r).Decode(&sf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	seen := make(map[string]bool, len(sf.Courses))
	for i, c := range sf.Courses {
		if strings.TrimSpace(c.CourseID) == "" {
			return nil, fmt.Errorf("seed course %d: courseId required", i)
		}
		if seen[c.CourseID] {
			return nil, fmt.Errorf("seed course %s: duplicate courseId", c.CourseID)
		}
		if c.LecturerID == "" {
			return nil, fmt.Errorf("seed course %s: lecturerId required", c.CourseID)
		}
		seen[c.CourseID] = true
	}
	return sf.Courses, nil
}
