package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pawhaven-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected one %s migration", suffix)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func assertContainsAll(t *testing.T, content string, checks ...string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestEnumMigrationDeclaresLifecycleStates(t *testing.T) {
	content := readMigration(t, "create_enums")
	assertContainsAll(t, content,
		"CREATE TYPE pet_status AS ENUM ('draft', 'available', 'pending', 'adopted', 'archived', 'lost')",
		"CREATE TYPE adoption_status AS ENUM ('submitted', 'processing', 'approved', 'rejected', 'closed')",
		"CREATE TYPE donation_status AS ENUM ('submitted', 'reviewing', 'approved', 'rejected', 'closed')",
		"DROP TYPE IF EXISTS pet_status",
	)
}

func TestPetsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_pets")
	assertContainsAll(t, content,
		"CREATE TABLE IF NOT EXISTS pets",
		"status pet_status NOT NULL DEFAULT 'available'",
		"FOREIGN KEY (address_id) REFERENCES addresses(id) ON DELETE SET NULL",
		"CHECK (age_months >= 0 AND age_months < 12)",
		"DROP TABLE IF EXISTS pets",
	)
}

func TestAdoptionsMigrationIndexesOpenApplications(t *testing.T) {
	content := readMigration(t, "create_adoptions")
	assertContainsAll(t, content,
		"FOREIGN KEY (pet_id) REFERENCES pets(id) ON DELETE RESTRICT",
		"WHERE status IN ('submitted', 'processing')",
	)
}

func TestDonationsMigrationLinksAtMostOnePet(t *testing.T) {
	content := readMigration(t, "create_donations")
	assertContainsAll(t, content,
		"review_note varchar(200)",
		"CONSTRAINT ux_donations_created_pet_id UNIQUE (created_pet_id)",
		"FOREIGN KEY (donation_id) REFERENCES donations(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS donation_photos",
	)
}

func TestViewStatisticsMigrationIsUniquePerDay(t *testing.T) {
	content := readMigration(t, "create_view_statistics")
	assertContainsAll(t, content,
		"CONSTRAINT ux_view_statistics_object_day UNIQUE (object_type, object_id, day)",
	)
}

func TestOutboxMigrationMatchesEventTypes(t *testing.T) {
	content := readMigration(t, "create_outbox")
	for _, eventType := range []string{
		"pet_created", "pet_status_changed", "adoption_submitted", "adoption_status_changed",
		"donation_submitted", "donation_status_changed", "donation_approved",
		"lost_report_created", "lost_report_status_changed", "verification_code_requested",
	} {
		require.Contains(t, content, "'"+eventType+"'")
	}
	assertContainsAll(t, content,
		"CONSTRAINT ux_outbox_dlq_event_id UNIQUE (event_id)",
		"WHERE published_at IS NULL",
	)
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Pet Tags!")
	require.NoError(t, err)
	require.Regexp(t, `\d{14}_add_pet_tags\.sql$`, path)
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}

func TestEmbeddedMigrationsMatchSourceTree(t *testing.T) {
	files, err := migrate.Files()
	require.NoError(t, err)

	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	require.Len(t, files, len(onDisk))
	require.NotEmpty(t, files)
}

func TestValidateDirChecksSections(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301090000_only_up.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o644))
	require.ErrorContains(t, migrate.ValidateDir(dir), "goose Down")

	swapped := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(swapped, "20260301090000_swapped.sql"), []byte("-- +goose Down\n-- +goose Up\n"), 0o644))
	require.Error(t, migrate.ValidateDir(swapped))
}

func TestValidateDirRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Up\n-- +goose Down\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301090000_a.sql"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301090000_b.sql"), body, 0o644))
	require.ErrorContains(t, migrate.ValidateDir(dir), "20260301090000")
}

func TestNewRunnerRequiresDB(t *testing.T) {
	_, err := migrate.NewRunner(nil, migrate.EmbeddedDir)
	require.Error(t, err)
}
