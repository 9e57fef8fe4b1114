package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
)

const (
	// DefaultDir is where create and validate look in the source tree.
	DefaultDir = "pkg/migrate/migrations"
	// EmbeddedDir selects the migrations compiled into the binary.
	EmbeddedDir = "embedded"
)

//go:embed migrations/*.sql
var embedded embed.FS

var errNoDB = errors.New("migrate: db is required")

// Step is one migration as reported by a Runner.
type Step struct {
	Version   int64
	Path      string
	Direction string
	State     string
	AppliedAt time.Time
	Took      time.Duration
}

// Runner applies goose migrations from one source against one database.
// It never closes the database it was given.
type Runner struct {
	provider *goose.Provider
}

// NewRunner reads migrations from dir, or from the compiled set when dir is
// EmbeddedDir.
func NewRunner(db *sql.DB, dir string) (*Runner, error) {
	if db == nil {
		return nil, errNoDB
	}
	fsys, err := source(dir)
	if err != nil {
		return nil, err
	}
	// schema uses postgres enums and partial indexes
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("migrate: open %s: %w", dir, err)
	}
	return &Runner{provider: provider}, nil
}

func source(dir string) (fs.FS, error) {
	switch dir {
	case "":
		return nil, errors.New("migrate: dir is required")
	case EmbeddedDir:
		return fs.Sub(embedded, "migrations")
	default:
		return os.DirFS(dir), nil
	}
}

// Files lists the embedded migration filenames in version order.
func Files() ([]string, error) {
	return fs.Glob(embedded, "migrations/*.sql")
}

func (r *Runner) Up(ctx context.Context) ([]Step, error) {
	results, err := r.provider.Up(ctx)
	if err != nil {
		return applied(results), fmt.Errorf("goose up: %w", err)
	}
	return applied(results), nil
}

// Down rolls back the most recent migration only.
func (r *Runner) Down(ctx context.Context) ([]Step, error) {
	result, err := r.provider.Down(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose down: %w", err)
	}
	return applied([]*goose.MigrationResult{result}), nil
}

// To moves the schema up or down until version is the newest applied
// migration. version uses the YYYYMMDDHHMMSS file prefix.
func (r *Runner) To(ctx context.Context, version string) ([]Step, error) {
	if version == "" {
		return nil, errors.New("migrate: target version is required")
	}
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", version, err)
	}

	current, err := r.Version(ctx)
	if err != nil {
		return nil, err
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil, nil
	case current < target:
		results, err = r.provider.UpTo(ctx, target)
	default:
		results, err = r.provider.DownTo(ctx, target)
	}
	if err != nil {
		return applied(results), fmt.Errorf("goose to %d: %w", target, err)
	}
	return applied(results), nil
}

func (r *Runner) Version(ctx context.Context) (int64, error) {
	v, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get db version: %w", err)
	}
	return v, nil
}

// Status reports every known migration with its applied time, if any.
func (r *Runner) Status(ctx context.Context) ([]Step, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}
	out := make([]Step, 0, len(statuses))
	for _, st := range statuses {
		if st == nil || st.Source == nil {
			continue
		}
		out = append(out, Step{
			Version:   st.Source.Version,
			Path:      st.Source.Path,
			State:     string(st.State),
			AppliedAt: st.AppliedAt,
		})
	}
	return out, nil
}

func applied(results []*goose.MigrationResult) []Step {
	out := make([]Step, 0, len(results))
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		out = append(out, Step{
			Version:   res.Source.Version,
			Path:      res.Source.Path,
			Direction: res.Direction,
			State:     string(goose.StateApplied),
			Took:      res.Duration,
		})
	}
	return out
}
