package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sispat/sispat/internal/authz"
)

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ret := m.Called(args...)
	return pgconn.NewCommandTag("INSERT 0 1"), ret.Error(0)
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ret := m.Called(args...)
	return ret.Get(0).(pgx.Row)
}

type fakeRow struct {
	value []byte
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.value
	return nil
}

// TestPurpose: Validates that a missing settings row maps to the registry's not-found sentinel.
// Scope: Unit Test
// Expected: authz.ErrNotFound, so the registry falls back to its seed.
// Test Case ID: PGS-01
func TestRoleRepository_LoadMissing(t *testing.T) {
	q := new(mockQuerier)
	q.On("QueryRow", RolesSettingKey).Return(fakeRow{err: pgx.ErrNoRows})

	_, err := NewRoleRepositoryWithQuerier(q).Load(context.Background())
	assert.ErrorIs(t, err, authz.ErrNotFound)
	q.AssertExpectations(t)
}

// TestPurpose: Validates that stored JSON is returned verbatim and driver errors are wrapped.
// Scope: Unit Test
// Test Case ID: PGS-02
func TestRoleRepository_Load(t *testing.T) {
	q := new(mockQuerier)
	q.On("QueryRow", RolesSettingKey).Return(fakeRow{value: []byte(`[{"id":"viewer"}]`)}).Once()
	repo := NewRoleRepositoryWithQuerier(q)

	data, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"viewer"}]`, string(data))

	boom := errors.New("connection reset")
	q.On("QueryRow", RolesSettingKey).Return(fakeRow{err: boom}).Once()
	_, err = repo.Load(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, authz.ErrNotFound)
}

// TestPurpose: Validates the upsert passes the settings key and blob.
// Scope: Unit Test
// Test Case ID: PGS-03
func TestRoleRepository_Save(t *testing.T) {
	q := new(mockQuerier)
	q.On("Exec", RolesSettingKey, `[]`).Return(nil).Once()
	repo := NewRoleRepositoryWithQuerier(q)

	require.NoError(t, repo.Save(context.Background(), []byte(`[]`)))

	q.On("Exec", RolesSettingKey, `[1]`).Return(errors.New("read-only transaction")).Once()
	assert.Error(t, repo.Save(context.Background(), []byte(`[1]`)))
	q.AssertExpectations(t)
}

func TestConfig_DSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@db/sispat", Config{URL: "postgres://u:p@db/sispat", Host: "ignored"}.DSN())
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=sispat sslmode=disable pool_max_conns=5 pool_min_conns=1",
		Config{Host: "db", Port: "5432", User: "u", Password: "p", Database: "sispat", SSLMode: "disable", MaxOpenConns: 5, MaxIdleConns: 1}.DSN(),
	)
	assert.Contains(t, InitialSchema, "CREATE TABLE IF NOT EXISTS app_settings")
}
