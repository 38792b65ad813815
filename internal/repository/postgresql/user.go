package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/timezone"
)

const userSelect = `
	SELECT u.id, u.username, u.email, u.is_admin, u.approval_status, u.department_id,
	       u.timezone, u.created_at, d.name
	FROM users u
	LEFT JOIN departments d ON d.id = u.department_id
`

// UserRepository reads the user directory and seeds it for development.
type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.IsAdmin, &u.ApprovalStatus, &u.DepartmentID,
		&u.Timezone, &u.CreatedAt, &u.DepartmentName,
	)
	if err != nil {
		return user.User{}, err
	}
	u.CreatedAt = timezone.UTC(u.CreatedAt)
	return u, nil
}

func (r *UserRepository) list(ctx context.Context, query string, args ...any) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// GetByID implements user.UserRepository.
func (r *UserRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	u, err := scanUser(q.QueryRow(ctx, userSelect+` WHERE u.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ListApproved implements user.UserRepository.
func (r *UserRepository) ListApproved(ctx context.Context) ([]user.User, error) {
	return r.list(ctx, userSelect+` WHERE u.approval_status = $1 ORDER BY u.username`, user.ApprovalApproved)
}

// ListByIDs implements user.UserRepository.
func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]user.User, error) {
	if len(ids) == 0 {
		return []user.User{}, nil
	}
	return r.list(ctx, userSelect+` WHERE u.id = ANY($1::uuid[]) ORDER BY u.username`, ids)
}

// EnsureDepartment implements user.DirectoryWriter.
func (r *UserRepository) EnsureDepartment(ctx context.Context, name, description string) (string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO departments (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id
	`

	var id string
	if err := q.QueryRow(ctx, query, name, description).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to ensure department %q: %w", name, err)
	}
	return id, nil
}

// EnsureUser implements user.DirectoryWriter.
func (r *UserRepository) EnsureUser(ctx context.Context, u user.User, passwordHash string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO users (username, email, password_hash, is_admin, approval_status, department_id, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (username) DO UPDATE SET
			email = EXCLUDED.email,
			is_admin = EXCLUDED.is_admin,
			approval_status = EXCLUDED.approval_status,
			department_id = EXCLUDED.department_id,
			timezone = EXCLUDED.timezone
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		u.Username, u.Email, passwordHash, u.IsAdmin, u.ApprovalStatus, u.DepartmentID, u.Timezone,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to ensure user %q: %w", u.Username, err)
	}
	u.CreatedAt = timezone.UTC(u.CreatedAt)
	return u, nil
}
