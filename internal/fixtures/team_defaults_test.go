package fixtures

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
)

type recordingDirectory struct {
	departments map[string]string
	users       map[string]user.User
	hashes      map[string]string
	failUser    string
}

func newRecordingDirectory() *recordingDirectory {
	return &recordingDirectory{
		departments: make(map[string]string),
		users:       make(map[string]user.User),
		hashes:      make(map[string]string),
	}
}

func (d *recordingDirectory) EnsureDepartment(ctx context.Context, name, description string) (string, error) {
	if id, ok := d.departments[name]; ok {
		return id, nil
	}
	id := "dept-" + name
	d.departments[name] = id
	return id, nil
}

func (d *recordingDirectory) EnsureUser(ctx context.Context, u user.User, passwordHash string) (user.User, error) {
	if u.Username == d.failUser {
		return user.User{}, errors.New("insert failed")
	}
	if existing, ok := d.users[u.Username]; ok {
		u.ID = existing.ID
	} else {
		u.ID = "user-" + u.Username
	}
	d.users[u.Username] = u
	d.hashes[u.Username] = passwordHash
	return u, nil
}

func TestSeedDemoTeam(t *testing.T) {
	dir := newRecordingDirectory()

	ids, err := SeedDemoTeam(context.Background(), dir, "password123", bcrypt.MinCost)
	require.NoError(t, err)

	assert.Len(t, ids.DepartmentIDs, len(GetDefaultDepartments()))
	assert.Len(t, ids.UserIDs, len(GetDefaultUsers()))

	admins := 0
	for _, u := range dir.users {
		require.NotNil(t, u.DepartmentID, u.Username)
		if u.IsAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
	assert.Equal(t, "dept-Engineering", *dir.users["alice"].DepartmentID)
	assert.Equal(t, user.ApprovalPending, dir.users["dave"].ApprovalStatus)

	hash := dir.hashes["alice"]
	assert.NotEqual(t, "password123", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("password123")))
}

func TestSeedDemoTeam_Idempotent(t *testing.T) {
	dir := newRecordingDirectory()
	ctx := context.Background()

	first, err := SeedDemoTeam(ctx, dir, "password123", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := SeedDemoTeam(ctx, dir, "password123", bcrypt.MinCost)
	require.NoError(t, err)

	assert.Equal(t, first.UserIDs, second.UserIDs)
	assert.Len(t, dir.users, len(GetDefaultUsers()))
}

func TestSeedDemoTeam_Errors(t *testing.T) {
	_, err := SeedDemoTeam(context.Background(), newRecordingDirectory(), "", bcrypt.MinCost)
	assert.Error(t, err)

	dir := newRecordingDirectory()
	dir.failUser = "bob"
	_, err = SeedDemoTeam(context.Background(), dir, "password123", bcrypt.MinCost)
	assert.ErrorContains(t, err, "insert failed")
}
