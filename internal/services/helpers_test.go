package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/tasktrack-be/internal/auth"
	"github.com/isdelr/tasktrack-be/internal/database"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testClock is a manually advanced clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

type fixture struct {
	db    *database.DB
	clock *testClock
	users *UserService
	tasks *TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	clock := newTestClock()
	return &fixture{
		db:    db,
		clock: clock,
		users: NewUserService(db, auth.NewBcryptHasher(bcrypt.MinCost), clock.Now),
		tasks: NewTaskService(db, clock.Now),
	}
}

func (f *fixture) mustRegister(t *testing.T, email string) int64 {
	t.Helper()
	u, err := f.users.Register(context.Background(), email, "secret1", "Tester")
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) countUsers(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n))
	return n
}

func ptr[T any](v T) *T { return &v }
