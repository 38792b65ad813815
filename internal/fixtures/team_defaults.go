package fixtures

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
)

// ==========================================
// HELPER FUNCTIONS
// ==========================================

func strPtr(s string) *string { return &s }

// ==========================================
// SEEDED DATA RESULT
// ==========================================

// SeededDataIDs holds IDs of the seeded demo team
type SeededDataIDs struct {
	// Department IDs by name
	DepartmentIDs map[string]string // e.g., "Engineering" -> "uuid"

	// User IDs by username
	UserIDs map[string]string // e.g., "admin" -> "uuid"
}

// NewSeededDataIDs creates a new SeededDataIDs with initialized maps
func NewSeededDataIDs() *SeededDataIDs {
	return &SeededDataIDs{
		DepartmentIDs: make(map[string]string),
		UserIDs:       make(map[string]string),
	}
}

// ==========================================
// DEFAULT DEPARTMENTS
// ==========================================

type Department struct {
	Name        string
	Description string
}

// GetDefaultDepartments returns the departments of the demo team
func GetDefaultDepartments() []Department {
	return []Department{
		{Name: "Engineering", Description: "Product and platform engineering"},
		{Name: "Design", Description: "Product design and research"},
		{Name: "Operations", Description: "People, finance and office operations"},
	}
}

// ==========================================
// DEFAULT USERS
// ==========================================

// DemoUser is a directory entry plus the department it belongs to.
type DemoUser struct {
	User       user.User
	Department string
}

// GetDefaultUsers returns the demo team. Exactly one account is an admin and
// one is still pending approval, so both team views have something to filter.
func GetDefaultUsers() []DemoUser {
	return []DemoUser{
		{Department: "Operations", User: user.User{Username: "admin", Email: "admin@timesheet.local", IsAdmin: true, ApprovalStatus: user.ApprovalApproved, Timezone: "Asia/Jakarta"}},
		{Department: "Engineering", User: user.User{Username: "alice", Email: "alice@timesheet.local", ApprovalStatus: user.ApprovalApproved, Timezone: "Asia/Jakarta"}},
		{Department: "Engineering", User: user.User{Username: "bob", Email: "bob@timesheet.local", ApprovalStatus: user.ApprovalApproved, Timezone: "Europe/Berlin"}},
		{Department: "Design", User: user.User{Username: "carol", Email: "carol@timesheet.local", ApprovalStatus: user.ApprovalApproved, Timezone: "UTC"}},
		{Department: "Design", User: user.User{Username: "dave", Email: "dave@timesheet.local", ApprovalStatus: user.ApprovalPending, Timezone: "UTC"}},
	}
}

// ==========================================
// SEEDING
// ==========================================

// SeedDemoTeam upserts the demo departments and users. Every user gets the same
// password, hashed with bcrypt at the given cost. Running it twice is harmless.
func SeedDemoTeam(ctx context.Context, dir user.DirectoryWriter, password string, cost int) (*SeededDataIDs, error) {
	if password == "" {
		return nil, fmt.Errorf("seed password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	ids := NewSeededDataIDs()
	for _, d := range GetDefaultDepartments() {
		id, err := dir.EnsureDepartment(ctx, d.Name, d.Description)
		if err != nil {
			return nil, err
		}
		ids.DepartmentIDs[d.Name] = id
	}

	for _, demo := range GetDefaultUsers() {
		u := demo.User
		if deptID, ok := ids.DepartmentIDs[demo.Department]; ok {
			u.DepartmentID = strPtr(deptID)
		}

		saved, err := dir.EnsureUser(ctx, u, string(hash))
		if err != nil {
			return nil, err
		}
		ids.UserIDs[saved.Username] = saved.ID
	}

	slog.Info("Demo team seeded", "departments", len(ids.DepartmentIDs), "users", len(ids.UserIDs))
	return ids, nil
}
