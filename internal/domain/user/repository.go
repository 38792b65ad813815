package user

import (
	"context"
)

// UserRepository is the read side of the user directory.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	// ListApproved returns approved users ordered by username.
	ListApproved(ctx context.Context) ([]User, error)
	ListByIDs(ctx context.Context, ids []string) ([]User, error)
}

// DirectoryWriter seeds the directory for local development. Production
// users are managed by the identity service.
type DirectoryWriter interface {
	EnsureDepartment(ctx context.Context, name, description string) (string, error)
	EnsureUser(ctx context.Context, u User, passwordHash string) (User, error)
}
