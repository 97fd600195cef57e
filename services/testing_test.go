package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wigworks/wig-atelier-api/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Inquiry{},
		&models.Order{},
		&models.Review{},
		&models.ReviewRevision{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func createTestArtisan(t *testing.T, db *gorm.DB, slug string) *models.User {
	t.Helper()

	user := models.User{
		ID:      uuid.NewString(),
		Auth0ID: fmt.Sprintf("auth0|%s", slug),
		Name:    "Test Artisan",
		Email:   fmt.Sprintf("%s@example.com", slug),
		Slug:    slug,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test artisan: %v", err)
	}

	return &user
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

// requireDomainError fails the test unless err is a DomainError of the given
// kind
func requireDomainError(t *testing.T, err error, kind ErrorKind) *DomainError {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	domainErr, ok := AsDomainError(err)
	if !ok {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
	if domainErr.Kind != kind {
		t.Fatalf("expected %s error, got %s: %s", kind, domainErr.Kind, domainErr.Message)
	}
	return domainErr
}
