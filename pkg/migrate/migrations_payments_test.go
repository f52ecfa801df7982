package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPaymentsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_payments.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS payments",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (amount >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_payments_active_order",
		"WHERE status NOT IN ('failed', 'canceled')",
		"CREATE TABLE IF NOT EXISTS payment_failures",
		"DROP TABLE IF EXISTS payments",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestWalletsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_wallets.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS wallets",
		"user_id UUID NOT NULL UNIQUE",
		"CHECK (balance >= 0)",
		"CREATE TABLE IF NOT EXISTS wallet_entries",
		"FOREIGN KEY (wallet_id) REFERENCES wallets(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS wallet_entries",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestInventoriesMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_products.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS inventories",
		"FOREIGN KEY (option_id) REFERENCES product_options(id) ON DELETE CASCADE",
		"CHECK (quantity >= 0)",
		"DROP TABLE IF EXISTS inventories",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
