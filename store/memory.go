package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rickyzatnika/new-spinner/models"
)

type memState struct {
	users   map[string]models.User
	prizes  map[string]models.Prize
	records map[string]models.SpinRecord
	admins  map[string]models.Admin
}

func newMemState() *memState {
	return &memState{
		users:   make(map[string]models.User),
		prizes:  make(map[string]models.Prize),
		records: make(map[string]models.SpinRecord),
		admins:  make(map[string]models.Admin),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.prizes {
		c.prizes[k] = v
	}
	for k, v := range s.records {
		c.records[k] = v
	}
	for k, v := range s.admins {
		c.admins[k] = v
	}
	return c
}

type memCore struct {
	mu    sync.Mutex
	state *memState
}

// Memory is an in-process Store. Transactions hold the store lock for their
// whole duration and restore a snapshot when fn fails.
type Memory struct {
	core *memCore
	inTx bool
}

func NewMemory() *Memory {
	return &Memory{core: &memCore{state: newMemState()}}
}

func (m *Memory) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.core.mu.Lock()
	return m.core.mu.Unlock
}

func (m *Memory) st() *memState { return m.core.state }

func (m *Memory) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if m.inTx {
		return fn(m)
	}
	m.core.mu.Lock()
	defer m.core.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := m.core.state.clone()
	tx := &Memory{core: m.core, inTx: true}
	if err := fn(tx); err != nil {
		m.core.state = snapshot
		return err
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	defer m.lock()()
	prepareUser(u)
	s := m.st()
	if _, ok := s.users[u.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) || existing.Code == u.Code {
			return ErrDuplicate
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (m *Memory) findUser(match func(models.User) bool) (*models.User, error) {
	defer m.lock()()
	for _, u := range m.st().users {
		if match(u) {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindUserByID(_ context.Context, id string) (*models.User, error) {
	defer m.lock()()
	u, ok := m.st().users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// LockUser is a plain read; a Memory transaction already holds the store lock.
func (m *Memory) LockUser(ctx context.Context, id string) (*models.User, error) {
	return m.FindUserByID(ctx, id)
}

func (m *Memory) FindUserByCode(_ context.Context, code string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Code == code })
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *Memory) FindUserByIP(_ context.Context, ip string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.IPAddress != "" && u.IPAddress == ip })
}

func (m *Memory) CodeExists(ctx context.Context, code string) (bool, error) {
	_, err := m.FindUserByCode(ctx, code)
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (m *Memory) ListUsers(_ context.Context, f UserFilter) ([]models.User, int64, error) {
	defer m.lock()()
	f = f.normalized()
	needle := strings.ToLower(f.Search)

	var matched []models.User
	for _, u := range m.st().users {
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Name), needle) &&
			!strings.Contains(strings.ToLower(u.Code), needle) {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].RegisteredAt.After(matched[j].RegisteredAt)
	})

	total := int64(len(matched))
	start := f.offset()
	if start >= len(matched) {
		return []models.User{}, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *Memory) DeleteUsers(_ context.Context, ids []string) (int64, error) {
	defer m.lock()()
	s := m.st()
	var n int64
	for _, id := range ids {
		if _, ok := s.users[id]; !ok {
			continue
		}
		delete(s.users, id)
		n++
		for rid, r := range s.records {
			if r.UserID == id {
				delete(s.records, rid)
			}
		}
	}
	return n, nil
}

func (m *Memory) MarkSpun(_ context.Context, userID string) (bool, error) {
	defer m.lock()()
	s := m.st()
	u, ok := s.users[userID]
	if !ok || u.HasSpun {
		return false, nil
	}
	u.HasSpun = true
	s.users[userID] = u
	return true, nil
}

func (m *Memory) CreatePrize(_ context.Context, p *models.Prize) error {
	defer m.lock()()
	preparePrize(p)
	if _, ok := m.st().prizes[p.ID]; ok {
		return ErrDuplicate
	}
	m.st().prizes[p.ID] = *p
	return nil
}

func (m *Memory) UpdatePrize(_ context.Context, p *models.Prize) error {
	defer m.lock()()
	existing, ok := m.st().prizes[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	preparePrize(p)
	m.st().prizes[p.ID] = *p
	return nil
}

func (m *Memory) FindPrizeByID(_ context.Context, id string) (*models.Prize, error) {
	defer m.lock()()
	p, ok := m.st().prizes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListPrizes(_ context.Context, activeOnly bool) ([]models.Prize, error) {
	defer m.lock()()
	out := make([]models.Prize, 0, len(m.st().prizes))
	for _, p := range m.st().prizes {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sortPrizes(out)
	return out, nil
}

func sortPrizes(ps []models.Prize) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Position != ps[j].Position {
			return ps[i].Position < ps[j].Position
		}
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.Before(ps[j].CreatedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}

func (m *Memory) DeletePrizes(_ context.Context, ids []string) (int64, error) {
	defer m.lock()()
	var n int64
	for _, id := range ids {
		if _, ok := m.st().prizes[id]; ok {
			delete(m.st().prizes, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountPrizes(_ context.Context) (int64, error) {
	defer m.lock()()
	return int64(len(m.st().prizes)), nil
}

func (m *Memory) CreateSpinRecord(_ context.Context, r *models.SpinRecord) error {
	defer m.lock()()
	prepareSpinRecord(r)
	if _, ok := m.st().records[r.ID]; ok {
		return ErrDuplicate
	}
	rec := *r
	if r.AssignedBy != nil {
		by := *r.AssignedBy
		rec.AssignedBy = &by
	}
	m.st().records[r.ID] = rec
	return nil
}

func (m *Memory) FindLiveAssignment(ctx context.Context, userID string) (*models.SpinRecord, error) {
	recs, err := m.ListSpinRecords(ctx, SpinFilter{UserID: userID, AssignedOnly: true, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return &recs[0], nil
}

func (m *Memory) DeleteLiveAssignments(_ context.Context, userID string) (int64, error) {
	defer m.lock()()
	var n int64
	for id, r := range m.st().records {
		if r.UserID == userID && r.IsAssigned {
			delete(m.st().records, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) ListSpinRecords(_ context.Context, f SpinFilter) ([]models.SpinRecord, error) {
	defer m.lock()()
	out := make([]models.SpinRecord, 0)
	for _, r := range m.st().records {
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if f.AssignedOnly && !r.IsAssigned {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SpinTime.Equal(out[j].SpinTime) {
			return out[i].SpinTime.After(out[j].SpinTime)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) CountWinsByPrize(_ context.Context) (map[string]int64, error) {
	defer m.lock()()
	out := make(map[string]int64)
	for _, r := range m.st().records {
		if u, ok := m.st().users[r.UserID]; ok && u.HasSpun {
			out[r.PrizeID]++
		}
	}
	return out, nil
}

func (m *Memory) CreateAdmin(_ context.Context, a *models.Admin) error {
	defer m.lock()()
	prepareAdmin(a)
	for _, existing := range m.st().admins {
		if existing.ID == a.ID || existing.Username == a.Username {
			return ErrDuplicate
		}
	}
	m.st().admins[a.ID] = *a
	return nil
}

func (m *Memory) FindAdminByUsername(_ context.Context, username string) (*models.Admin, error) {
	defer m.lock()()
	for _, a := range m.st().admins {
		if a.Username == username {
			out := a
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindAdminByID(_ context.Context, id string) (*models.Admin, error) {
	defer m.lock()()
	a, ok := m.st().admins[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}
