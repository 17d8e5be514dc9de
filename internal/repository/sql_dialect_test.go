package repository

import "testing"

func TestSearchLikeConditionSqlite(t *testing.T) {
	got := searchLikeConditionByDialect("sqlite", "order_number")
	want := "order_number LIKE ?"
	if got != want {
		t.Fatalf("sqlite condition want %q got %q", want, got)
	}
}

func TestSearchLikeConditionPostgres(t *testing.T) {
	got := searchLikeConditionByDialect("postgres", "order_number")
	want := "order_number ILIKE ?"
	if got != want {
		t.Fatalf("postgres condition want %q got %q", want, got)
	}
}

func TestSearchLikeConditionUnknownDialectFallsBack(t *testing.T) {
	got := searchLikeConditionByDialect("  ", "code")
	want := "code LIKE ?"
	if got != want {
		t.Fatalf("fallback condition want %q got %q", want, got)
	}
}

func TestDBDialectNameNilDB(t *testing.T) {
	if got := dbDialectName(nil); got != "sqlite" {
		t.Fatalf("nil db dialect want sqlite got %s", got)
	}
}
