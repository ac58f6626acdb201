package sqlite

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantonganh/waitlist"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := NewDB("mock")
	db.sqlDB = sqlDB
	db.Now = func() time.Time {
		return time.Date(2024, 1, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600))
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db, mock
}

func TestExists(t *testing.T) {
	db, mock := newMockDB(t)
	ss := NewSubscriptionService(db)
	query := regexp.QuoteMeta("SELECT 1 FROM subscriptions WHERE email = ? LIMIT 1")

	mock.ExpectQuery(query).WithArgs("foo@gmail.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	exists, err := ss.Exists(context.Background(), "foo@gmail.com")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(query).WithArgs("bar@gmail.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	exists, err = ss.Exists(context.Background(), "bar@gmail.com")
	require.NoError(t, err)
	assert.False(t, exists)

	mock.ExpectQuery(query).WithArgs("baz@gmail.com").
		WillReturnError(errors.New("database is locked"))
	_, err = ss.Exists(context.Background(), "baz@gmail.com")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert(t *testing.T) {
	db, mock := newMockDB(t)
	ss := NewSubscriptionService(db)
	query := regexp.QuoteMeta("INSERT INTO subscriptions (id, email, created_at, subscribed, user_agent, verified) VALUES (?, ?, ?, ?, ?, ?)")

	mock.ExpectExec(query).
		WithArgs(sqlmock.AnyArg(), "foo@gmail.com", "2024-01-01T00:00:00.000000000Z", true, "Mozilla/5.0", false).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s := waitlist.NewSubscription("foo@gmail.com", "Mozilla/5.0")
	require.NoError(t, ss.Insert(context.Background(), s))
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), s.CreatedAt)

	mock.ExpectExec(query).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})
	err := ss.Insert(context.Background(), waitlist.NewSubscription("foo@gmail.com", ""))
	assert.Equal(t, waitlist.ErrConflict, waitlist.ErrorCode(err))

	mock.ExpectExec(query).WillReturnError(errors.New("disk I/O error"))
	err = ss.Insert(context.Background(), waitlist.NewSubscription("bar@gmail.com", ""))
	assert.Equal(t, waitlist.ErrInternal, waitlist.ErrorCode(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAll(t *testing.T) {
	db, mock := newMockDB(t)
	ss := NewSubscriptionService(db)

	rows := sqlmock.NewRows([]string{"id", "email", "created_at", "subscribed", "user_agent", "verified"}).
		AddRow("2", "b@x.com", "2024-01-02T00:00:00.000000000Z", true, "Mozilla/5.0", false).
		AddRow("1", "a@x.com", "pending", true, "unknown", false)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, created_at, subscribed, user_agent, verified FROM subscriptions ORDER BY created_at DESC")).
		WillReturnRows(rows)

	subscriptions, err := ss.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, subscriptions, 2)

	assert.Equal(t, "b@x.com", subscriptions[0].Email)
	assert.Equal(t, "2024-01-02T00:00:00Z", subscriptions[0].Timestamp())
	assert.True(t, subscriptions[0].Subscribed)

	assert.Equal(t, "a@x.com", subscriptions[1].Email)
	assert.True(t, subscriptions[1].CreatedAt.IsZero())
	assert.Equal(t, "pending", subscriptions[1].Timestamp())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM migrations WHERE name = ?")).
		WithArgs("migration/0001_subscriptions.sql").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS subscriptions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO migrations (name) VALUES (?)")).
		WithArgs("migration/0001_subscriptions.sql").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, db.migrate())
	assert.NoError(t, mock.ExpectationsWereMet())
}
