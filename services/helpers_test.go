package services

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rickyzatnika/new-spinner/database"
	"github.com/rickyzatnika/new-spinner/models"
	"github.com/rickyzatnika/new-spinner/store"
)

type recordedEvent struct {
	Type    string
	Payload any
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) Publish(eventType string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Type: eventType, Payload: payload})
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store  store.Store
	spins  *SpinService
	users  *UserService
	prizes *PrizeService
	events *eventRecorder
}

func newFixture(t *testing.T, s store.Store, mode DrawMode) *fixture {
	t.Helper()
	ev := &eventRecorder{}
	return &fixture{
		store:  s,
		spins:  NewSpinService(s, SpinOptions{Drawer: NewDrawer(7), Mode: mode, Events: ev}),
		users:  NewUserService(s, UserOptions{Events: ev}),
		prizes: NewPrizeService(s, nil),
		events: ev,
	}
}

func eachStore(t *testing.T, fn func(t *testing.T, s store.Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, store.NewMemory()) })
	t.Run("sqlite", func(t *testing.T) {
		db, err := database.OpenSQLiteMemory()
		require.NoError(t, err)
		fn(t, store.NewGorm(db))
	})
}

// openPooledSQLite opens a file database with several connections, so
// transactions really interleave instead of queueing on one connection.
func openPooledSQLite(t *testing.T) store.Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "wheel.db") + "?_busy_timeout=2000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(4)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return store.NewGorm(db)
}

// isBusy reports sqlite lock contention, which a pooled file database may
// return instead of serializing.
func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "locked") || strings.Contains(msg, "busy")
}

func (f *fixture) register(t *testing.T, name, email string) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{Name: name, Email: email, Phone: "081234567890"})
	require.NoError(t, err)
	return u
}

func (f *fixture) prize(t *testing.T, name string, weight float64, active bool) *models.Prize {
	t.Helper()
	p, err := f.prizes.Create(context.Background(), PrizeInput{Name: name, Color: "#45B7D1", Probability: weight, IsActive: &active})
	require.NoError(t, err)
	return p
}

func (f *fixture) recordCount(t *testing.T, userID string) int {
	t.Helper()
	recs, err := f.store.ListSpinRecords(context.Background(), store.SpinFilter{UserID: userID})
	require.NoError(t, err)
	return len(recs)
}
