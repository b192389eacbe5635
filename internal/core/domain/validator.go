package domain

import (
	"errors"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

var (
	ErrEmptyQuery     = errors.New("empty query")
	ErrNotSelect      = errors.New("only SELECT statements may be issued against a source")
	ErrMultiStatement = errors.New("multiple statements are not allowed")
)

// PgQueryValidator checks generated statistic SQL with PostgreSQL's own
// parser before it reaches the source. A mis-quoted identifier that splits
// the statement or turns it into something other than a SELECT is rejected.
type PgQueryValidator struct{}

func NewPgQueryValidator() *PgQueryValidator {
	return &PgQueryValidator{}
}

func (v *PgQueryValidator) Validate(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return fmt.Errorf("%w: %w", ErrInvalidStatement, ErrEmptyQuery)
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStatement, err)
	}

	switch {
	case len(tree.Stmts) == 0 || tree.Stmts[0].Stmt == nil:
		return fmt.Errorf("%w: %w", ErrInvalidStatement, ErrEmptyQuery)
	case len(tree.Stmts) > 1:
		return fmt.Errorf("%w: %w", ErrInvalidStatement, ErrMultiStatement)
	}

	if _, ok := tree.Stmts[0].Stmt.Node.(*pg_query.Node_SelectStmt); !ok {
		return fmt.Errorf("%w: %w", ErrInvalidStatement, ErrNotSelect)
	}
	return nil
}
