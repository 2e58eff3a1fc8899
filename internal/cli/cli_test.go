package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/isdelr/tasktrack-be/internal/database"
	"github.com/isdelr/tasktrack-be/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tasks.db")
	t.Setenv("JWT_SECRET", "cli-test-secret")
	t.Setenv("DATABASE_URL", dbPath)
	t.Setenv("LOG_LEVEL", "error")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"migrate"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	db, err := database.New("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&n))
	assert.Zero(t, n)
}

func TestMigrateCommand_ConfigError(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "tasks.db"))

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"migrate"})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestServeCommand_RejectsBadSchedule(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-test-secret")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "tasks.db"))
	t.Setenv("STATS_SCHEDULE", "whenever")
	t.Setenv("LOG_LEVEL", "error")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"serve"})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "system-stats")
}

func TestNewScheduler_RegistersJobs(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-test-secret")
	cfg, err := loadConfig()
	require.NoError(t, err)

	db, err := database.New("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	sched, err := newScheduler(cfg, db, monitoring.NewStatSampler())
	require.NoError(t, err)
	require.NotNil(t, sched)
}
