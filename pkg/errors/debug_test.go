package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpCapturesPgxConstraint(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_games_year_week", TableName: "games"}
	err := Wrap(CodeConflict, fmt.Errorf("insert game: %w", pgErr), "game already exists")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected code %s, got %s", CodeConflict, d.Code)
	}
	if d.PGCode != "23505" || d.PGConstraint != "ux_games_year_week" || d.PGTable != "games" {
		t.Fatalf("unexpected pg fields: %+v", d)
	}
	if len(d.Chain) < 3 {
		t.Fatalf("expected wrap chain of 3, got %v", d.Chain)
	}
}

func TestDumpCapturesPqError(t *testing.T) {
	d := Dump(&pq.Error{Code: "40001", Message: "could not serialize access"})
	if d.PGCode != "40001" || d.PGMessage != "could not serialize access" {
		t.Fatalf("unexpected pg fields: %+v", d)
	}
	if d.Code != "" {
		t.Fatalf("untyped error should have no code, got %s", d.Code)
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || d.Chain != nil {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
