package user

import (
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/timezone"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// User is the directory record the timesheet core reads. Registration,
// approval and passwords are managed elsewhere.
type User struct {
	ID             string
	Username       string
	Email          string
	IsAdmin        bool
	ApprovalStatus ApprovalStatus
	DepartmentID   *string
	Timezone       string
	CreatedAt      time.Time

	// Join
	DepartmentName *string
}

// IsApproved checks if an admin has approved the account
func (u *User) IsApproved() bool {
	return u.ApprovalStatus == ApprovalApproved
}

// Location resolves the display timezone, falling back to UTC.
func (u *User) Location() *time.Location {
	return timezone.Load(u.Timezone)
}
