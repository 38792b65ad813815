package timesheet

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/sse"
)

var errInjected = errors.New("injected storage failure")

// memStore is an in-memory stand-in for Postgres. Transactions are serialised
// and roll back by restoring a snapshot.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	seq      int
	entries  map[string]timesheet.Entry
	breaks   map[string]timesheet.Break
	statuses map[string]timesheet.UserStatus
	users    map[string]user.User

	failStatusUpsert error
	failBreakClose   error

	// unserialised lets transactions overlap and disables rollback, leaving
	// mutual exclusion to the service's locker.
	unserialised bool
	inFlight     int
	maxInFlight  int
}

func newMemStore() *memStore {
	return &memStore{
		entries:  make(map[string]timesheet.Entry),
		breaks:   make(map[string]timesheet.Break),
		statuses: make(map[string]timesheet.UserStatus),
		users:    make(map[string]user.User),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return prefix + "-" + strconv.Itoa(m.seq)
}

func (m *memStore) addUser(u user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ApprovalStatus == "" {
		u.ApprovalStatus = user.ApprovalApproved
	}
	if u.Email == "" {
		u.Email = u.Username + "@example.test"
	}
	m.users[u.ID] = u
}

type snapshot struct {
	seq      int
	entries  map[string]timesheet.Entry
	breaks   map[string]timesheet.Break
	statuses map[string]timesheet.UserStatus
}

func (m *memStore) snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := snapshot{
		seq:      m.seq,
		entries:  make(map[string]timesheet.Entry, len(m.entries)),
		breaks:   make(map[string]timesheet.Break, len(m.breaks)),
		statuses: make(map[string]timesheet.UserStatus, len(m.statuses)),
	}
	for k, v := range m.entries {
		s.entries[k] = v
	}
	for k, v := range m.breaks {
		s.breaks[k] = v
	}
	for k, v := range m.statuses {
		s.statuses[k] = v
	}
	return s
}

func (m *memStore) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq = s.seq
	m.entries = s.entries
	m.breaks = s.breaks
	m.statuses = s.statuses
}

// WithinTx implements timesheet.TxManager.
func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.unserialised {
		m.enterTx()
		defer m.leaveTx()
		time.Sleep(time.Millisecond)
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(ctx); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) enterTx() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
	m.maxInFlight = max(m.maxInFlight, m.inFlight)
}

func (m *memStore) leaveTx() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}

func (m *memStore) peakTransactions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// noopLocker never blocks.
type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ---- entries

type memEntries struct{ *memStore }

func (r memEntries) Create(ctx context.Context, e timesheet.Entry) (timesheet.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.entries {
		if existing.UserID == e.UserID && existing.ClockOut == nil {
			return timesheet.Entry{}, timesheet.ErrAlreadyOpen
		}
	}
	e.ID = r.nextID("entry")
	e.CreatedAt, e.UpdatedAt = e.ClockIn, e.ClockIn
	r.entries[e.ID] = e
	return e, nil
}

func (r memEntries) GetOpenByUserID(ctx context.Context, userID string) (*timesheet.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.UserID == userID && e.ClockOut == nil {
			return &e, nil
		}
	}
	return nil, nil
}

func (r memEntries) Update(ctx context.Context, e timesheet.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.ID]; !ok {
		return errors.New("entry not found")
	}
	e.ClockOut = copyTime(e.ClockOut)
	r.entries[e.ID] = e
	return nil
}

func (r memEntries) ListOpen(ctx context.Context) ([]timesheet.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []timesheet.Entry
	for _, e := range r.entries {
		if e.ClockOut == nil {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockIn.Before(out[j].ClockIn) })
	return out, nil
}

func (r memEntries) ListByUser(ctx context.Context, userID string, start, end time.Time) ([]timesheet.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []timesheet.Entry
	for _, e := range r.entries {
		if e.UserID == userID && !e.Date.Before(start) && !e.Date.After(end) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockIn.After(out[j].ClockIn) })
	return out, nil
}

// ---- breaks

type memBreaks struct{ *memStore }

func (r memBreaks) Create(ctx context.Context, b timesheet.Break) (timesheet.Break, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.breaks {
		if existing.EntryID == b.EntryID && existing.BreakEnd == nil {
			return timesheet.Break{}, timesheet.ErrBreakAlreadyOpen
		}
	}
	b.ID = r.nextID("break")
	r.breaks[b.ID] = b
	return b, nil
}

func (r memBreaks) GetOpenByEntryID(ctx context.Context, entryID string) (*timesheet.Break, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.breaks {
		if b.EntryID == entryID && b.BreakEnd == nil {
			return &b, nil
		}
	}
	return nil, nil
}

func (r memBreaks) Close(ctx context.Context, breakID string, end time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failBreakClose != nil {
		return r.failBreakClose
	}
	b, ok := r.breaks[breakID]
	if !ok || b.BreakEnd != nil {
		return errors.New("open break not found")
	}
	b.BreakEnd = &end
	r.breaks[breakID] = b
	return nil
}

func (r memBreaks) ListByEntryIDs(ctx context.Context, entryIDs []string) ([]timesheet.Break, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(entryIDs))
	for _, id := range entryIDs {
		want[id] = true
	}
	var out []timesheet.Break
	for _, b := range r.breaks {
		if want[b.EntryID] {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BreakStart.Before(out[j].BreakStart) })
	return out, nil
}

// ---- statuses

type memStatuses struct{ *memStore }

func (r memStatuses) GetByUserID(ctx context.Context, userID string) (*timesheet.UserStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.statuses[userID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (r memStatuses) Upsert(ctx context.Context, st timesheet.UserStatus) (timesheet.UserStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failStatusUpsert != nil {
		return timesheet.UserStatus{}, r.failStatusUpsert
	}
	if existing, ok := r.statuses[st.UserID]; ok {
		st.ID = existing.ID
	} else {
		st.ID = r.nextID("status")
	}
	st.UpdatedAt = st.LastActivity
	r.statuses[st.UserID] = st
	return st, nil
}

func (r memStatuses) ListByUserIDs(ctx context.Context, userIDs []string) ([]timesheet.UserStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []timesheet.UserStatus
	for _, id := range userIDs {
		if st, ok := r.statuses[id]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

// ---- users

type memUsers struct{ *memStore }

func (r memUsers) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r memUsers) ListApproved(ctx context.Context) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []user.User
	for _, u := range r.users {
		if u.IsApproved() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r memUsers) ListByIDs(ctx context.Context, ids []string) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []user.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// ---- collaborators

type recordingSink struct {
	mu   sync.Mutex
	msgs []notification.Message
}

func (s *recordingSink) Send(ctx context.Context, msg notification.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordingSink) messages() []notification.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notification.Message(nil), s.msgs...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []timesheet.PresenceEvent
}

func (p *recordingPublisher) Publish(topic string, ev sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pe, ok := ev.Data.(timesheet.PresenceEvent); ok {
		p.events = append(p.events, pe)
	}
}

func (p *recordingPublisher) reasons() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Reason)
	}
	return out
}

// fakeClock is a settable clock for the service.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
