package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rickyzatnika/new-spinner/models"
)

// Gorm is the durable Store over MySQL or SQLite.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// DB exposes the underlying handle for migrations and health checks.
func (g *Gorm) DB() *gorm.DB { return g.db }

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry") {
		return ErrDuplicate
	}
	return err
}

func (g *Gorm) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx})
	})
}

func (g *Gorm) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (g *Gorm) CreateUser(ctx context.Context, u *models.User) error {
	prepareUser(u)
	return mapErr(g.db.WithContext(ctx).Create(u).Error)
}

func (g *Gorm) firstUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	if err := g.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (g *Gorm) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return g.firstUser(ctx, "id = ?", id)
}

func (g *Gorm) LockUser(ctx context.Context, id string) (*models.User, error) {
	q := g.db.WithContext(ctx)
	// sqlite has no row locks; its write lock is taken by the transaction.
	if g.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var u models.User
	if err := q.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (g *Gorm) FindUserByCode(ctx context.Context, code string) (*models.User, error) {
	return g.firstUser(ctx, "code = ?", code)
}

func (g *Gorm) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return g.firstUser(ctx, "LOWER(email) = ?", strings.ToLower(email))
}

func (g *Gorm) FindUserByIP(ctx context.Context, ip string) (*models.User, error) {
	return g.firstUser(ctx, "ip_address = ?", ip)
}

func (g *Gorm) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := g.db.WithContext(ctx).Model(&models.User{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (g *Gorm) ListUsers(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	f = f.normalized()
	q := g.db.WithContext(ctx).Model(&models.User{})
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := make([]models.User, 0, f.Limit)
	if err := q.Order("registered_at DESC").Offset(f.offset()).Limit(f.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (g *Gorm) DeleteUsers(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id IN ?", ids).Delete(&models.SpinRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

func (g *Gorm) MarkSpun(ctx context.Context, userID string) (bool, error) {
	res := g.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND has_spun = ?", userID, false).
		Update("has_spun", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (g *Gorm) CreatePrize(ctx context.Context, p *models.Prize) error {
	preparePrize(p)
	return mapErr(g.db.WithContext(ctx).Create(p).Error)
}

func (g *Gorm) UpdatePrize(ctx context.Context, p *models.Prize) error {
	existing, err := g.FindPrizeByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.CreatedAt = existing.CreatedAt
	preparePrize(p)
	// Select forces zero values (inactive, zero weight) to be written.
	return mapErr(g.db.WithContext(ctx).Model(&models.Prize{ID: p.ID}).
		Select("name", "description", "color", "probability", "is_active", "position", "updated_at").
		Updates(p).Error)
}

func (g *Gorm) FindPrizeByID(ctx context.Context, id string) (*models.Prize, error) {
	var p models.Prize
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (g *Gorm) ListPrizes(ctx context.Context, activeOnly bool) ([]models.Prize, error) {
	q := g.db.WithContext(ctx).Model(&models.Prize{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	prizes := make([]models.Prize, 0)
	if err := q.Order("position ASC").Order("created_at ASC").Order("id ASC").Find(&prizes).Error; err != nil {
		return nil, err
	}
	return prizes, nil
}

func (g *Gorm) DeletePrizes(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := g.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Prize{})
	return res.RowsAffected, res.Error
}

func (g *Gorm) CountPrizes(ctx context.Context) (int64, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&models.Prize{}).Count(&count).Error
	return count, err
}

func (g *Gorm) CreateSpinRecord(ctx context.Context, r *models.SpinRecord) error {
	prepareSpinRecord(r)
	return mapErr(g.db.WithContext(ctx).Create(r).Error)
}

func (g *Gorm) FindLiveAssignment(ctx context.Context, userID string) (*models.SpinRecord, error) {
	var r models.SpinRecord
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND is_assigned = ?", userID, true).
		Order("spin_time DESC").
		First(&r).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

func (g *Gorm) DeleteLiveAssignments(ctx context.Context, userID string) (int64, error) {
	res := g.db.WithContext(ctx).
		Where("user_id = ? AND is_assigned = ?", userID, true).
		Delete(&models.SpinRecord{})
	return res.RowsAffected, res.Error
}

func (g *Gorm) ListSpinRecords(ctx context.Context, f SpinFilter) ([]models.SpinRecord, error) {
	q := g.db.WithContext(ctx).Model(&models.SpinRecord{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.AssignedOnly {
		q = q.Where("is_assigned = ?", true)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	records := make([]models.SpinRecord, 0)
	if err := q.Order("spin_time DESC").Order("id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (g *Gorm) CountWinsByPrize(ctx context.Context) (map[string]int64, error) {
	type row struct {
		PrizeID string
		Total   int64
	}
	var rows []row
	err := g.db.WithContext(ctx).
		Table("spin_results").
		Select("spin_results.prize_id AS prize_id, COUNT(*) AS total").
		Joins("JOIN users ON users.id = spin_results.user_id").
		Where("users.has_spun = ?", true).
		Group("spin_results.prize_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.PrizeID] = r.Total
	}
	return out, nil
}

func (g *Gorm) CreateAdmin(ctx context.Context, a *models.Admin) error {
	prepareAdmin(a)
	return mapErr(g.db.WithContext(ctx).Create(a).Error)
}

func (g *Gorm) FindAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var a models.Admin
	if err := g.db.WithContext(ctx).Where("username = ?", username).First(&a).Error; err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (g *Gorm) FindAdminByID(ctx context.Context, id string) (*models.Admin, error) {
	var a models.Admin
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}
