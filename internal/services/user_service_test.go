package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/isdelr/tasktrack-be/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)

	u, err := f.users.Register(context.Background(), "  Ann@X.com ", "secret1", "  Ann ")
	require.NoError(t, err)

	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "ann@x.com", u.Email)
	assert.Equal(t, "Ann", u.Name)
	assert.Empty(t, u.PasswordHash)
	assert.True(t, u.CreatedAt.Equal(f.clock.Now()))

	var stored string
	require.NoError(t, f.db.QueryRow("SELECT password_hash FROM users WHERE id = ?", u.ID).Scan(&stored))
	assert.NotEqual(t, "secret1", stored)
	assert.True(t, strings.HasPrefix(stored, "$2"), "expected a bcrypt digest")
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, "a@x.com", "secret1", "Ann")
	require.NoError(t, err)
	before := f.countUsers(t)

	_, err = f.users.Register(ctx, "A@X.COM", "another1", "Impostor")
	require.ErrorIs(t, err, apperr.ErrConflict)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "Email already registered", e.Message)
	assert.Equal(t, before, f.countUsers(t))
}

func TestRegister_Validation(t *testing.T) {
	cases := []struct {
		name, email, password, userName string
		field                            string
	}{
		{"bad email", "not-an-email", "secret1", "Ann", "email"},
		{"display name email", "Ann <a@x.com>", "secret1", "Ann", "email"},
		{"no tld", "a@localhost", "secret1", "Ann", "email"},
		{"short password", "a@x.com", "12345", "Ann", "password"},
		{"long password", "a@x.com", strings.Repeat("p", 73), "Ann", "password"},
		{"blank name", "a@x.com", "secret1", "   ", "name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.users.Register(context.Background(), tc.email, tc.password, tc.userName)
			require.ErrorIs(t, err, apperr.ErrValidation)

			e, ok := apperr.As(err)
			require.True(t, ok)
			require.Len(t, e.Details, 1)
			assert.Equal(t, tc.field, e.Details[0].Field)
			assert.Zero(t, f.countUsers(t))
		})
	}
}

func TestRegister_CollectsAllFieldErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.Register(context.Background(), "", "", "")
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Len(t, e.Details, 3)
}

func TestRegister_PasswordLengthCountsCharacters(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.Register(context.Background(), "u@x.com", "äöüßéè", "Umlaut")
	require.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.users.Register(ctx, "a@x.com", "secret1", "Ann")
	require.NoError(t, err)

	u, err := f.users.Authenticate(ctx, "A@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)
	assert.Equal(t, "Ann", u.Name)
	assert.Empty(t, u.PasswordHash)

	_, wrongPassword := f.users.Authenticate(ctx, "a@x.com", "secret2")
	_, unknownUser := f.users.Authenticate(ctx, "nobody@x.com", "secret1")

	for _, err := range []error{wrongPassword, unknownUser} {
		require.ErrorIs(t, err, apperr.ErrUnauthorized)
		e, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, "Invalid credentials", e.Message)
	}
}

func TestAuthenticate_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.Authenticate(context.Background(), "bad", "")
	require.ErrorIs(t, err, apperr.ErrValidation)
	e, _ := apperr.As(err)
	assert.Len(t, e.Details, 2)
}

func TestGetUserByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.mustRegister(t, "a@x.com")

	u, err := f.users.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Empty(t, u.PasswordHash)
	assert.True(t, u.CreatedAt.Equal(f.clock.Now()))

	_, err = f.users.GetUserByID(ctx, id+100)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@x.com", "first.last+tag@sub.example.org"}
	invalid := []string{"", "a", "a@", "@x.com", "a@x", "a@.com", "a@x.com.", "a b@x.com", "<a@x.com>"}

	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ann@example.com", NormalizeEmail("  ANN@Example.Com\t"))
}

// flakyHasher fails its first failHashes Hash calls and records the digests
// passed to Verify.
type flakyHasher struct {
	failHashes int
	hashCalls  int
	verified   []string
}

func (h *flakyHasher) Hash(password string) (string, error) {
	h.hashCalls++
	if h.hashCalls <= h.failHashes {
		return "", errors.New("entropy source unavailable")
	}
	return "hashed:" + password, nil
}

func (h *flakyHasher) Verify(password, digest string) bool {
	h.verified = append(h.verified, digest)
	return digest == "hashed:"+password
}

func TestAuthenticate_UnknownEmailComparesAgainstDummyDigest(t *testing.T) {
	hasher := &flakyHasher{failHashes: 1}
	svc := NewUserService(newTestDB(t), hasher, nil)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "ghost@x.com", "secret1")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Empty(t, hasher.verified, "no digest is available while hashing fails")

	_, err = svc.Authenticate(ctx, "ghost@x.com", "secret1")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	require.Len(t, hasher.verified, 1)
	assert.Equal(t, "hashed:"+dummyPassword, hasher.verified[0])

	_, err = svc.Authenticate(ctx, "ghost@x.com", "secret1")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, 2, hasher.hashCalls, "a successful dummy digest is reused")
	assert.Len(t, hasher.verified, 2)
}
