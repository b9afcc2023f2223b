package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rickyzatnika/new-spinner/models"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// Store is the persistence boundary of the spin engine. Implementations must
// make WithTx atomic: either every write inside fn is applied or none is.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	// LockUser reads a user and holds its row until the surrounding WithTx
	// ends, so spin and assignment decisions on one user are serialized.
	LockUser(ctx context.Context, id string) (*models.User, error)
	FindUserByCode(ctx context.Context, code string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByIP(ctx context.Context, ip string) (*models.User, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ListUsers(ctx context.Context, f UserFilter) ([]models.User, int64, error)
	// DeleteUsers removes the users and every spin record that references them.
	DeleteUsers(ctx context.Context, ids []string) (int64, error)
	// MarkSpun flips has_spun from false to true. It reports false when the
	// user was already spent, which callers treat as a lost race.
	MarkSpun(ctx context.Context, userID string) (bool, error)

	CreatePrize(ctx context.Context, p *models.Prize) error
	UpdatePrize(ctx context.Context, p *models.Prize) error
	FindPrizeByID(ctx context.Context, id string) (*models.Prize, error)
	ListPrizes(ctx context.Context, activeOnly bool) ([]models.Prize, error)
	DeletePrizes(ctx context.Context, ids []string) (int64, error)
	CountPrizes(ctx context.Context) (int64, error)

	CreateSpinRecord(ctx context.Context, r *models.SpinRecord) error
	// FindLiveAssignment returns the newest assigned record of the user.
	FindLiveAssignment(ctx context.Context, userID string) (*models.SpinRecord, error)
	DeleteLiveAssignments(ctx context.Context, userID string) (int64, error)
	ListSpinRecords(ctx context.Context, f SpinFilter) ([]models.SpinRecord, error)
	// CountWinsByPrize counts records of users that have spun, keyed by prize id.
	CountWinsByPrize(ctx context.Context) (map[string]int64, error)

	CreateAdmin(ctx context.Context, a *models.Admin) error
	FindAdminByUsername(ctx context.Context, username string) (*models.Admin, error)
	FindAdminByID(ctx context.Context, id string) (*models.Admin, error)
}

type UserFilter struct {
	// Search matches name or code, case-insensitively.
	Search string
	Page   int
	Limit  int
}

func (f UserFilter) normalized() UserFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

func (f UserFilter) offset() int {
	return (f.Page - 1) * f.Limit
}

// SpinFilter narrows ListSpinRecords. Results are newest first.
type SpinFilter struct {
	UserID       string
	AssignedOnly bool
	Limit        int
}

func prepareUser(u *models.User) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.RegisteredAt.IsZero() {
		u.RegisteredAt = time.Now()
	}
}

func preparePrize(p *models.Prize) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

func prepareSpinRecord(r *models.SpinRecord) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.SpinTime.IsZero() {
		r.SpinTime = time.Now()
	}
}

func prepareAdmin(a *models.Admin) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
}
