package wallet

import (
	"os"
	"regexp"
	"strings"
	"testing"
)

const migrationPath = "../../../../migrations/000001_init.up.sql"

func tableDefinition(t *testing.T, ddl, table string) string {
	t.Helper()

	re := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + ` \((.*?)\);`)
	match := re.FindStringSubmatch(ddl)
	if match == nil {
		t.Fatalf("the migration does not create table %s", table)
	}

	return match[1]
}

// The repository's statements are prepared against the migrated schema, so
// every column a query names must exist in the DDL.
func TestMigrationCoversRepositoryColumns(t *testing.T) {
	buff, err := os.ReadFile(migrationPath)
	if err != nil {
		t.Fatalf("unable to read migration: %v", err)
	}
	ddl := string(buff)

	// LockAccount inserts (owner_id, created_at) into wallet_account.
	accountDef := tableDefinition(t, ddl, "wallet_account")
	for _, column := range []string{"owner_id", "created_at"} {
		if !strings.Contains(accountDef, column) {
			t.Errorf("wallet_account is missing column %s", column)
		}
	}

	transactionDef := tableDefinition(t, ddl, "wallet_transaction")
	for _, column := range strings.Fields(strings.ReplaceAll(transactionColumns, ",", " ")) {
		if !strings.Contains(transactionDef, column) {
			t.Errorf("wallet_transaction is missing column %s", column)
		}
	}
}

func TestMigrationCoversTransactionIndexes(t *testing.T) {
	buff, err := os.ReadFile(migrationPath)
	if err != nil {
		t.Fatalf("unable to read migration: %v", err)
	}
	ddl := string(buff)

	for _, index := range []string{
		"idx_wallet_transaction_owner_id",
		"idx_wallet_transaction_type",
		"idx_wallet_transaction_related_order_id",
		"idx_wallet_transaction_related_event_id",
	} {
		if !strings.Contains(ddl, index) {
			t.Errorf("the migration is missing index %s", index)
		}
	}
}
