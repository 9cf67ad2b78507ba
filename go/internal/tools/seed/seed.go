package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/bbdraft/go/internal/dbconfig"
	"github.com/mcdev12/bbdraft/go/internal/seed"
)

type counts struct {
	inserted int
	skipped  int
	errs     int
}

func (c *counts) record(err error, affected int64) {
	switch {
	case err != nil:
		c.errs++
	case affected == 1:
		c.inserted++
	default:
		c.skipped++
	}
}

func main() {
	ctx := context.Background()

	// 1) Load the fixture
	path := seed.DefaultPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	fixture, err := seed.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert leagues, then teams, then players
	var leagues, teams, players counts

	for _, l := range fixture.Leagues {
		tag, err := pool.Exec(ctx, `
            INSERT INTO leagues (
              id, name, commissioner_id, season, status,
              draft_format, rounds, pick_timer, created_at, updated_at
            ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
            ON CONFLICT (id) DO NOTHING
        `,
			l.ID, l.Name, l.CommissionerID, l.Season, string(l.Status),
			string(l.Settings.DraftFormat), l.Settings.Rounds, l.Settings.PickTimer, l.CreatedAt, l.UpdatedAt,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting league %s: %v\n", l.ID, err)
		}
		leagues.record(err, tag.RowsAffected())
	}

	for _, t := range fixture.Teams {
		queue := t.DraftQueue
		if queue == nil {
			queue = []uuid.UUID{}
		}
		tag, err := pool.Exec(ctx, `
            INSERT INTO fantasy_teams (
              id, league_id, owner_id, name, abbreviation, draft_position, draft_queue, created_at
            ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
            ON CONFLICT (id) DO NOTHING
        `,
			t.ID, t.LeagueID, t.OwnerID, t.Name, t.Abbreviation, t.DraftPosition, queue, t.CreatedAt,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting team %s: %v\n", t.ID, err)
		}
		teams.record(err, tag.RowsAffected())
	}

	// players go in one batch
	batch := &pgx.Batch{}
	for _, p := range fixture.Players {
		var stats []byte
		if p.Stats.Kind != "" {
			if stats, err = json.Marshal(p.Stats); err != nil {
				fmt.Fprintf(os.Stderr, "marshal stats for %s: %v\n", p.ID, err)
				os.Exit(1)
			}
		}
		batch.Queue(`
            INSERT INTO players (
              id, external_id, full_name, primary_position, mlb_team, active, stats, created_at
            ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
            ON CONFLICT (external_id) DO NOTHING
        `, p.ID, p.ExternalID, p.FullName, p.PrimaryPosition, p.MLBTeam, p.Active, stats, p.CreatedAt)
	}
	results := pool.SendBatch(ctx, batch)
	for _, p := range fixture.Players {
		tag, err := results.Exec()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting player %s: %v\n", p.ID, err)
		}
		players.record(err, tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close batch: %v\n", err)
	}

	// 4) Print summary
	for _, line := range []struct {
		name string
		c    counts
	}{{"Leagues", leagues}, {"Teams", teams}, {"Players", players}} {
		fmt.Printf("%s seed complete: %d inserted, %d skipped, %d errors\n",
			line.name, line.c.inserted, line.c.skipped, line.c.errs)
	}
}
