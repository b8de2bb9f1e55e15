package postgres

import (
	"slices"
	"testing"
)

func TestDSN(t *testing.T) {
	got := DSN(ClientConfig{Host: "db", Database: "premarket", User: "sim", Password: "p@ss word"})
	want := "postgres://sim:p%40ss%20word@db:5432/premarket?sslmode=disable"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	explicit := "postgres://u:p@h:1/d"
	if got := DSN(ClientConfig{DSN: explicit, Host: "ignored"}); got != explicit {
		t.Errorf("Expected explicit DSN, got %s", got)
	}
}

func TestMigrationNames(t *testing.T) {
	names, err := migrationNames()
	if err != nil {
		t.Fatalf("migrationNames failed: %v", err)
	}
	if len(names) == 0 || names[0] != "001_init.sql" {
		t.Errorf("Expected 001_init.sql first, got %v", names)
	}
	if !slices.IsSorted(names) {
		t.Errorf("Expected sorted names, got %v", names)
	}
}
