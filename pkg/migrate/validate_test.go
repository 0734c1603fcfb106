package migrate_test

import (
	"testing"

	"github.com/sellora/sellora-backend/pkg/migrate"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations failed validation: %v", err)
	}
}

func TestValidateDirRejectsMissingDir(t *testing.T) {
	if err := migrate.ValidateDir(""); err == nil {
		t.Fatal("expected error for empty dir")
	}
}
