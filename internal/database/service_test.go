package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"exchange-client-go/internal/models"
	"exchange-client-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	service, err := NewServiceFromDB(db)
	if err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

func TestSave_WritesAllSlots(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	err := service.Save(ctx, map[string]string{
		store.SlotToken: "t1",
		store.SlotUser:  `{"id":1,"email":"a@b.com"}`,
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	token, err := service.Get(ctx, store.SlotToken)
	if err != nil {
		t.Fatalf("Get token failed: %v", err)
	}
	if token != "t1" {
		t.Errorf("Expected token t1, got %s", token)
	}

	user, err := service.Get(ctx, store.SlotUser)
	if err != nil {
		t.Fatalf("Get user failed: %v", err)
	}
	if user != `{"id":1,"email":"a@b.com"}` {
		t.Errorf("Unexpected user slot %s", user)
	}
}

func TestSave_Overwrites(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.Save(ctx, map[string]string{store.SlotToken: "t1"}); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := service.Save(ctx, map[string]string{store.SlotToken: "t2"}); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	token, _ := service.Get(ctx, store.SlotToken)
	if token != "t2" {
		t.Errorf("Expected t2, got %s", token)
	}
}

func TestSave_CanceledContextWritesNothing(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := service.Save(ctx, map[string]string{store.SlotToken: "t1", store.SlotUser: "{}"}); err == nil {
		t.Fatal("Expected error for canceled context")
	}

	for _, slot := range []string{store.SlotToken, store.SlotUser} {
		if _, err := service.Get(context.Background(), slot); !errors.Is(err, store.ErrSlotNotFound) {
			t.Errorf("Expected slot %s absent, got %v", slot, err)
		}
	}
}

func TestGet_MissingSlot(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.Get(context.Background(), store.SlotUser)
	if !errors.Is(err, store.ErrSlotNotFound) {
		t.Errorf("Expected ErrSlotNotFound, got %v", err)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.Save(ctx, map[string]string{store.SlotToken: "t1", store.SlotUser: "{}"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := service.Delete(ctx, store.SlotToken, store.SlotUser); err != nil {
			t.Fatalf("Delete #%d failed: %v", i+1, err)
		}
	}

	if _, err := service.Get(ctx, store.SlotToken); !errors.Is(err, store.ErrSlotNotFound) {
		t.Errorf("Expected token removed, got %v", err)
	}
}

func TestNewService_PersistsAcrossReopen(t *testing.T) {
	cfg := models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "session.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	}
	ctx := context.Background()

	first, err := NewService(ctx, cfg)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if err := first.Save(ctx, map[string]string{store.SlotToken: "t1"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	first.Close()

	second, err := NewService(ctx, cfg)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer second.Close()

	token, err := second.Get(ctx, store.SlotToken)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if token != "t1" {
		t.Errorf("Expected t1 after reopen, got %s", token)
	}
}

func TestNewService_InvalidConfig(t *testing.T) {
	ctx := context.Background()
	tests := []models.DatabaseConfig{
		{Path: "", MaxOpenConns: 1, PingTimeout: time.Second},
		{Path: "x.db", MaxOpenConns: 0, PingTimeout: time.Second},
		{Path: "x.db", MaxOpenConns: 1, MaxIdleConns: -1, PingTimeout: time.Second},
		{Path: "x.db", MaxOpenConns: 1},
	}
	for i, cfg := range tests {
		if _, err := NewService(ctx, cfg); err == nil {
			t.Errorf("case %d: expected config error", i)
		}
	}
}
