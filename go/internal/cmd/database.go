package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mcdev12/bbdraft/go/internal/dbconfig"
	"github.com/mcdev12/bbdraft/go/internal/draft/store/postgres"
	"github.com/rs/zerolog/log"
)

func setupDatabase(ctx context.Context, dbCfg dbconfig.Config, migrate bool) (*sql.DB, error) {
	database, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if migrate {
		if _, err := database.ExecContext(ctx, postgres.Schema); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
		log.Info().Msg("database schema applied")
	}

	log.Info().
		Str("user", dbCfg.User).
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("database", dbCfg.Database).
		Msg("connected to database")
	return database, nil
}
