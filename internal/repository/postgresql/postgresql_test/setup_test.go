package postgresql_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/repository/postgresql"
)

var (
	testDBOnce sync.Once
	testDB     *database.DB
	testDBErr  error
)

// openTestDB connects to TEST_DATABASE_URL and applies migrations once. Tests
// are skipped when the variable is unset.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	testDBOnce.Do(func() {
		if testDBErr = database.RunMigrations(dsn); testDBErr != nil {
			return
		}
		testDB, testDBErr = database.NewPostgreSQLDB(context.Background(), dsn)
	})
	require.NoError(t, testDBErr)

	truncateAll(t, testDB)
	return testDB
}

func truncateAll(t *testing.T, db *database.DB) {
	t.Helper()
	_, err := db.Exec(context.Background(), "TRUNCATE TABLE email_logs, users, departments CASCADE")
	require.NoError(t, err)
}

func createTestUser(t *testing.T, db *database.DB, username string, status user.ApprovalStatus) user.User {
	t.Helper()
	u, err := postgresql.NewUserRepository(db).EnsureUser(context.Background(), user.User{
		Username:       username,
		Email:          username + "@example.test",
		ApprovalStatus: status,
		Timezone:       "UTC",
	}, "not-a-real-hash")
	require.NoError(t, err)
	return u
}
