package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPgErrorClassification(t *testing.T) {
	wrap := func(code string) error {
		return fmt.Errorf("exec: %w", &pgconn.PgError{Code: code})
	}

	tests := []struct {
		name        string
		err         error
		foreignKey  bool
		invalidText bool
		noRows      bool
	}{
		{name: "foreign key violation", err: wrap("23503"), foreignKey: true},
		{name: "invalid uuid literal", err: wrap("22P02"), invalidText: true},
		{name: "no rows", err: fmt.Errorf("scan: %w", pgx.ErrNoRows), noRows: true},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPgForeignKeyError(tt.err); got != tt.foreignKey {
				t.Errorf("IsPgForeignKeyError = %v, want %v", got, tt.foreignKey)
			}
			if got := IsPgInvalidInputError(tt.err); got != tt.invalidText {
				t.Errorf("IsPgInvalidInputError = %v, want %v", got, tt.invalidText)
			}
			if got := IsPgNoRowsError(tt.err); got != tt.noRows {
				t.Errorf("IsPgNoRowsError = %v, want %v", got, tt.noRows)
			}
		})
	}
}

func TestNewTableNames(t *testing.T) {
	tables := NewTableNames("test_")
	if tables.Projects != "test_projects" {
		t.Errorf("Projects = %s, want test_projects", tables.Projects)
	}
	if tables.ProjectContent != "test_project_content" {
		t.Errorf("ProjectContent = %s, want test_project_content", tables.ProjectContent)
	}
}
