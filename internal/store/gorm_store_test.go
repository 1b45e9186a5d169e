package store_test

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ycyw/support-chat-service/internal/domain"
	"github.com/ycyw/support-chat-service/internal/store"
	"github.com/ycyw/support-chat-service/internal/user"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&user.User{}, &domain.Conversation{}, &domain.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestStoreAssignsCanonicalFields(t *testing.T) {
	db := testDB(t)
	users := user.NewGormRepository(db)
	db.Create(&user.User{Email: "alice@ycyw.example", FirstName: "Alice", LastName: "Martin", Role: "CLIENT"})

	var alice user.User
	if err := db.Where("email = ?", "alice@ycyw.example").First(&alice).Error; err != nil {
		t.Fatalf("load seeded user: %v", err)
	}

	s := store.NewGormStore(db, users)
	stored, err := s.Store(context.Background(),
		domain.SendPayload{ConversationID: 7, Content: "hello"}, alice.ID)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	if stored.ID == 0 {
		t.Error("stored.ID not assigned")
	}
	if stored.SentAt.IsZero() {
		t.Error("stored.SentAt not assigned")
	}
	if stored.ConversationID != 7 || stored.Content != "hello" || stored.SenderID != alice.ID {
		t.Errorf("stored = %+v", stored)
	}
	if stored.SenderName != "Alice Martin" {
		t.Errorf("SenderName = %q", stored.SenderName)
	}
	if stored.IsRead {
		t.Error("new message marked read")
	}

	var persisted domain.Message
	if err := db.First(&persisted, stored.ID).Error; err != nil {
		t.Fatalf("reload persisted message: %v", err)
	}
	if persisted.Content != "hello" || persisted.ConversationID != 7 {
		t.Errorf("persisted = %+v", persisted)
	}
}

func TestStoreIDsIncreaseInCommitOrder(t *testing.T) {
	db := testDB(t)
	users := user.NewGormRepository(db)
	s := store.NewGormStore(db, users)

	var prev int64
	for _, content := range []string{"one", "two", "three"} {
		stored, err := s.Store(context.Background(),
			domain.SendPayload{ConversationID: 3, Content: content}, 1)
		if err != nil {
			t.Fatalf("Store(%q) error = %v", content, err)
		}
		if stored.ID <= prev {
			t.Errorf("id %d not increasing past %d", stored.ID, prev)
		}
		prev = stored.ID
	}
}

type failingUsers struct{}

func (failingUsers) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, errors.New("lookup down")
}

func (failingUsers) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return nil, errors.New("lookup down")
}

func TestStoreSurvivesSenderLookupFailure(t *testing.T) {
	db := testDB(t)
	s := store.NewGormStore(db, failingUsers{})

	stored, err := s.Store(context.Background(),
		domain.SendPayload{ConversationID: 7, Content: "hello"}, 1)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if stored.SenderName != "" {
		t.Errorf("SenderName = %q, want empty when the lookup fails", stored.SenderName)
	}
	if stored.ID == 0 {
		t.Error("message not persisted")
	}
}

func TestUserRepositoryLookups(t *testing.T) {
	db := testDB(t)
	users := user.NewGormRepository(db)
	db.Create(&user.User{Email: "bob@ycyw.example", FirstName: "Bob", Role: "SUPPORT"})

	u, err := users.GetByEmail(context.Background(), "bob@ycyw.example")
	if err != nil || u == nil {
		t.Fatalf("GetByEmail = %v, %v", u, err)
	}
	if u.Name() != "Bob" {
		t.Errorf("Name() = %q", u.Name())
	}

	missing, err := users.GetByEmail(context.Background(), "nobody@ycyw.example")
	if err != nil || missing != nil {
		t.Errorf("GetByEmail(missing) = %v, %v; want nil, nil", missing, err)
	}
}
