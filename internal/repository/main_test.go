package repository

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/ccellsty/oryxchatfrfr/internal/database"
	"github.com/ccellsty/oryxchatfrfr/internal/models"

	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	var err error
	testDB, err = database.ConnectSQLite(":memory:")
	if err != nil {
		log.Printf("repository tests skipped: sqlite unavailable: %v", err)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func truncateTables(t *testing.T) {
	t.Helper()
	for _, table := range []string{"messages", "memberships", "groups", "friend_edges", "profiles", "accounts"} {
		if err := testDB.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("failed to clear %s: %v", table, err)
		}
	}
}

func mustCreateProfile(t *testing.T, id uint, username string) *models.Profile {
	t.Helper()
	p := &models.Profile{ID: id, Username: username, Theme: models.DefaultTheme}
	if err := NewProfileRepository(testDB).Create(context.Background(), p); err != nil {
		t.Fatalf("failed to create profile %s: %v", username, err)
	}
	return p
}
