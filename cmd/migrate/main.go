// Command migrate manages the goose schema migrations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/pawhaven-backend/pkg/config"
	"github.com/angelmondragon/pawhaven-backend/pkg/db"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
	"github.com/angelmondragon/pawhaven-backend/pkg/migrate"
)

const serviceKind = "migrate"

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

// sourceDir is the on-disk tree used by commands that write or lint files.
func (o options) sourceDir() string {
	if o.dir == migrate.EmbeddedDir {
		return migrate.DefaultDir
	}
	return o.dir
}

type offlineCmd func(out io.Writer, opts options) error

type dbCmd func(ctx context.Context, out io.Writer, runner *migrate.Runner, opts options) error

var offline = map[string]offlineCmd{
	"create":   createCmd,
	"validate": validateCmd,
	"list":     listCmd,
}

var online = map[string]dbCmd{
	"up":      upCmd,
	"down":    downCmd,
	"status":  statusCmd,
	"version": versionCmd,
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: "+strings.Join(commandNames(), "|"))
	flag.StringVar(&opts.dir, "dir", migrate.EmbeddedDir, "goose migrations directory, or \"embedded\" for the compiled set")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(context.Background(), os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, opts options) error {
	if cmd, ok := offline[opts.cmd]; ok {
		return cmd(out, opts)
	}
	cmd, ok := online[opts.cmd]
	if !ok {
		return fmt.Errorf("unknown command (want one of %s)", strings.Join(commandNames(), ", "))
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}
	runner, err := migrate.NewRunner(sqlDB, opts.dir)
	if err != nil {
		return err
	}

	logg.Info(ctx, "migrate ready")
	return cmd(ctx, out, runner, opts)
}

func createCmd(out io.Writer, opts options) error {
	if opts.name == "" {
		return errors.New("missing -name")
	}
	path, err := migrate.CreateSQLMigration(opts.sourceDir(), opts.name)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "created migration:", path)
	return nil
}

func validateCmd(out io.Writer, opts options) error {
	if err := migrate.ValidateDir(opts.sourceDir()); err != nil {
		return err
	}
	fmt.Fprintln(out, "migration validation passed")
	return nil
}

func listCmd(out io.Writer, _ options) error {
	files, err := migrate.Files()
	if err != nil {
		return fmt.Errorf("list embedded: %w", err)
	}
	for _, f := range files {
		fmt.Fprintln(out, f)
	}
	return nil
}

func upCmd(ctx context.Context, out io.Writer, runner *migrate.Runner, _ options) error {
	steps, err := runner.Up(ctx)
	printSteps(out, steps)
	return err
}

func downCmd(ctx context.Context, out io.Writer, runner *migrate.Runner, _ options) error {
	steps, err := runner.Down(ctx)
	printSteps(out, steps)
	return err
}

func versionCmd(ctx context.Context, out io.Writer, runner *migrate.Runner, opts options) error {
	if opts.version == "" {
		return errors.New("missing -version")
	}
	steps, err := runner.To(ctx, opts.version)
	printSteps(out, steps)
	return err
}

func statusCmd(ctx context.Context, out io.Writer, runner *migrate.Runner, _ options) error {
	steps, err := runner.Status(ctx)
	if err != nil {
		return err
	}
	for _, s := range steps {
		applied := "-"
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(out, "%-8s %-19s %s\n", s.State, applied, s.Path)
	}
	return nil
}

func printSteps(out io.Writer, steps []migrate.Step) {
	if len(steps) == 0 {
		fmt.Fprintln(out, "no migrations to run")
		return
	}
	for _, s := range steps {
		fmt.Fprintf(out, "%-4s %d %s (%s)\n", s.Direction, s.Version, s.Path, s.Took)
	}
}

func commandNames() []string {
	names := make([]string, 0, len(offline)+len(online))
	for name := range offline {
		names = append(names, name)
	}
	for name := range online {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
