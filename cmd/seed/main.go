package main

import (
	"context"
	"time"

	"geoattend/internal/config"
	"geoattend/internal/course"
	"geoattend/internal/logger"
	"geoattend/internal/store"
)

// Seed applies the schema and upserts the course timetable into Postgres.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Configure(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	courses, err := course.LoadSeed(cfg.SeedFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("load seed")
	}

	db, err := store.NewDB(ctx, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	dir := course.NewPostgresDirectory(db.Client)
	for _, c := range courses {
		if err := dir.Upsert(ctx, c); err != nil {
			logger.Fatal().Err(err).Str("course_id", c.CourseID).Msg("upsert course")
		}
		logger.Info().Str("course_id", c.CourseID).Str("venue", c.Venue.Name).Msg("course seeded")
	}
	logger.Info().Int("courses", len(courses)).Msg("seed complete")
}
