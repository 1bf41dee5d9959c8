package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"backend/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sync-test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Food{},
		&models.ServingUnit{},
		&models.FoodServingUnit{},
		&models.Consumption{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()

	user := models.User{
		Name:     "Test User",
		Email:    email,
		Password: "$2a$10$fakedigestfakedigestfakedigestfakedigest",
		Age:      28,
		Gender:   models.GenderMale,
		Height:   170,
		Weight:   65,
		Activity: 2,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// backdate rewrites updated_at without triggering gorm's auto-update,
// so tests can stage rows "from the past".
func backdate(t *testing.T, db *gorm.DB, model interface{}, id interface{}, at time.Time) {
	t.Helper()
	if err := db.Model(model).Where("id = ?", id).UpdateColumn("updated_at", at).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}
}

// fakeBroker captures dispatched payloads and serves canned results.
type fakeBroker struct {
	pushes   [][]byte
	queues   []string
	pushErr  error
	results  map[string][]byte
	fetchErr error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{results: map[string][]byte{}}
}

func (b *fakeBroker) PushTask(_ context.Context, queue string, payload []byte) error {
	if b.pushErr != nil {
		return b.pushErr
	}
	b.queues = append(b.queues, queue)
	b.pushes = append(b.pushes, payload)
	return nil
}

func (b *fakeBroker) FetchResult(_ context.Context, key string) ([]byte, bool, error) {
	if b.fetchErr != nil {
		return nil, false, b.fetchErr
	}
	val, ok := b.results[key]
	return val, ok, nil
}
