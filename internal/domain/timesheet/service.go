package timesheet

import "context"

// Service is the clock ledger, presence tracker, auto-checkout policy and team
// status aggregator behind one facade. Every operation is scoped by an explicit
// user id.
type Service interface {
	// Clock ledger
	ClockIn(ctx context.Context, userID string, req ClockInRequest) (ClockInResponse, error)
	ClockOut(ctx context.Context, userID string, req ClockOutRequest) (ClockOutResponse, error)
	StartBreak(ctx context.Context, userID string, req BreakStartRequest) (BreakStartResponse, error)
	EndBreak(ctx context.Context, userID string, req BreakEndRequest) (BreakEndResponse, error)
	ListEntries(ctx context.Context, userID string, filter EntryFilter) (ListEntriesResponse, error)

	// Presence
	GetStatus(ctx context.Context, userID string) (StatusResponse, error)
	UpdateStatus(ctx context.Context, userID string, req UpdateStatusRequest) (UpdateStatusResponse, error)

	// Auto-checkout
	MaybeAutoCheckout(ctx context.Context, userID string) (bool, error)
	SweepStaleSessions(ctx context.Context) (int, error)

	// Aggregation
	AdminTeamStatus(ctx context.Context) ([]TeamMemberStatus, error)
	PublicTeamStatus(ctx context.Context) ([]PublicMemberStatus, error)
}
