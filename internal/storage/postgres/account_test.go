package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// fakeRow scans a fixed account or returns err.
type fakeRow struct {
	acct Account
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.acct.ID
	*dest[1].(*string) = r.acct.Username
	*dest[2].(*string) = r.acct.PasswordHash
	*dest[3].(*int) = r.acct.Wins
	*dest[4].(*time.Time) = r.acct.CreatedAt
	return nil
}

// fakeDB records the arguments it receives and answers from canned values.
type fakeDB struct {
	row     fakeRow
	args    []any
	tag     pgconn.CommandTag
	execErr error
}

func (f *fakeDB) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	f.args = args
	return f.tag, f.execErr
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	f.args = args
	return f.row
}

func TestCreate_StoresBcryptHash(t *testing.T) {
	db := &fakeDB{row: fakeRow{acct: Account{ID: 3, Username: "spinner"}}}
	repo := &AccountRepository{db: db}

	acct, err := repo.Create(context.Background(), "spinner", "secret123")
	require.NoError(t, err)
	assert.Equal(t, int64(3), acct.ID)

	require.Len(t, db.args, 2)
	hash := db.args[1].(string)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, CheckPassword("secret123", hash))
}

func TestCreate_DuplicateUsername(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: &pgconn.PgError{Code: "23505"}}}
	repo := &AccountRepository{db: db}

	_, err := repo.Create(context.Background(), "spinner", "secret123")
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestAuthenticate(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	repo := &AccountRepository{db: &fakeDB{row: fakeRow{acct: Account{ID: 1, Username: "spinner", PasswordHash: hash, Wins: 4}}}}
	ctx := context.Background()

	acct, err := repo.Authenticate(ctx, "spinner", "secret123")
	require.NoError(t, err)
	assert.Equal(t, 4, acct.Wins)

	_, err = repo.Authenticate(ctx, "spinner", "secret124")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	missing := &AccountRepository{db: &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}}
	_, err = missing.Authenticate(ctx, "ghost", "secret123")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestRecordWin(t *testing.T) {
	ctx := context.Background()

	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 1")}
	require.NoError(t, (&AccountRepository{db: db}).RecordWin(ctx, 7))
	assert.Equal(t, []any{int64(7)}, db.args)

	none := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 0")}
	assert.ErrorIs(t, (&AccountRepository{db: none}).RecordWin(ctx, 7), ErrAccountNotFound)

	broken := &fakeDB{execErr: errors.New("connection reset")}
	err := (&AccountRepository{db: broken}).RecordWin(ctx, 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccountNotFound)
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, isDuplicateKeyError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isDuplicateKeyError(errors.New("23505")))
}

// Property: a hash verifies its own password and no other.
func TestPropertyHashVerifiesOnlyItsPassword(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// bcrypt reads at most 72 bytes
		password := rapid.StringMatching(`[a-zA-Z0-9!@#$%^&*]{6,64}`).Draw(t, "password")
		other := rapid.StringMatching(`[a-zA-Z0-9]{6,64}`).Draw(t, "other")

		hash, err := HashPassword(password)
		if err != nil {
			t.Fatalf("HashPassword: %v", err)
		}
		if !CheckPassword(password, hash) {
			t.Fatalf("hash does not verify %q", password)
		}
		if other != password && CheckPassword(other, hash) {
			t.Fatalf("hash of %q verified %q", password, other)
		}
	})
}
