package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInventoryMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_inventory_items.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no inventory migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS inventory_items",
		"CONSTRAINT ux_inventory_items_sku UNIQUE (sku)",
		"CHECK (quantity_available >= 0)",
		"CHECK (quantity_reserved >= 0)",
		"DROP TABLE IF EXISTS inventory_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMovementMigrationHasUniqueNumber(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_stock_movements.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no stock movement migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}

	if !strings.Contains(string(data), "CONSTRAINT ux_stock_movements_number UNIQUE (movement_number)") {
		t.Errorf("missing unique constraint on movement_number")
	}
}
