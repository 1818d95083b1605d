package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func main() {
	_ = godotenv.Load()
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	cmd := flags.String("cmd", "up", "up|down|status|version|create|validate")
	dir := flags.String("dir", migrate.DefaultDir, "migrations directory for create and validate")
	name := flags.String("name", "", "migration name for -cmd=create")
	version := flags.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	if err := flags.Parse(args); err != nil {
		return err
	}

	// create and validate only touch the filesystem.
	switch *cmd {
	case "create":
		if *name == "" {
			return errors.New("-name is required for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "created", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			return err
		}
		fmt.Fprintln(out, "migrations ok")
		return nil
	case "up", "down", "status", "version":
	default:
		return fmt.Errorf("unknown -cmd %q", *cmd)
	}
	if *cmd == "version" && *version == "" {
		return errors.New("-version is required for version")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Storage.UsesSQL() {
		return fmt.Errorf("storage driver %q has no migrations", cfg.Storage.Driver)
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": *cmd, "driver": cfg.Storage.Driver})

	client, err := db.New(ctx, cfg.Storage.Driver, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer client.Close()

	if *cmd == "version" {
		err = migrate.MigrateToVersion(ctx, client.SQL(), cfg.Storage.Driver, *version)
	} else {
		err = migrate.Run(ctx, client.SQL(), cfg.Storage.Driver, *cmd)
	}
	if err != nil {
		logg.Error(ctx, "migrate.failed", err)
		return err
	}
	logg.Info(ctx, "migrate.done")
	return nil
}
