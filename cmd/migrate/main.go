package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/games"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/config"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/logger"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/migrate"
	"github.com/joho/godotenv"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
	weeks   int
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate|seed-games")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (create)")
	flag.StringVar(&opts.version, "version", "", "target version YYYYMMDDHHMMSS (version)")
	flag.IntVar(&opts.weeks, "weeks", 4, "number of upcoming weekly games to ensure (seed-games)")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	// Offline commands never touch the database or the environment.
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return fmt.Errorf("missing -name")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}

	logg.Info(ctx, "migrate ready")

	switch opts.cmd {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, opts.dir, opts.cmd)
	case "version":
		if opts.version == "" {
			return fmt.Errorf("missing -version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
	case "seed-games":
		return seedGames(ctx, cfg, logg, dbClient, sqlDB, opts)
	default:
		return fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}
}

// seedGames applies pending migrations and makes sure the next weeks of
// games exist, so a fresh environment can take bets before the cron worker
// has run once.
func seedGames(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sqlDB *sql.DB, opts options) error {
	if opts.weeks < 1 {
		return fmt.Errorf("-weeks must be at least 1")
	}
	if err := migrate.Run(ctx, sqlDB, opts.dir, "up"); err != nil {
		return err
	}

	policy, err := games.NewPolicy(cfg.Lottery)
	if err != nil {
		return err
	}
	service, err := games.NewService(games.NewRepository(dbClient.DB()), policy, logg)
	if err != nil {
		return err
	}

	created, err := service.GetOrCreateGamesForWeeks(ctx, opts.weeks)
	if err != nil {
		return err
	}
	for _, game := range created {
		fmt.Printf("game %d/W%02d %s\n", game.Year, game.WeekNumber, game.ID)
	}
	return nil
}
