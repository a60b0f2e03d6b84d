package main

import (
	"flag"
	"fmt"
	"os"

	"geoattend/internal/auth"
	"geoattend/internal/config"
	"geoattend/internal/logger"
)

// Devtoken prints a bearer token for local testing of the API.
func main() {
	sub := flag.String("sub", "", "subject: student id or lecturer id")
	role := flag.String("role", auth.RoleStudent, "student or lecturer")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if *sub == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *role != auth.RoleStudent && *role != auth.RoleLecturer {
		logger.Fatal().Str("role", *role).Msg("role must be student or lecturer")
	}

	tok, exp, err := auth.Issue(*sub, *role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("issue token")
	}
	logger.Info().Str("sub", *sub).Str("role", *role).Time("expires_at", exp).Msg("token issued")
	fmt.Println(tok)
}
