package runner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ridoystarlord/fbmeta/loader"
)

// Execer runs a single statement outside an explicit transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TxBeginner opens the per-statement transactions used by Update.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// StatementError is a statement that failed during Build.
type StatementError struct {
	Script    string
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("script %s: executing %q: %v", e.Script, FirstLine(e.Statement), e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Build executes every statement of every script in order and stops at the
// first failure. It returns the number of statements executed successfully.
func Build(ctx context.Context, db Execer, scripts []loader.Script) (int, error) {
	executed := 0
	for _, script := range scripts {
		for _, stmt := range SplitStatements(script.Source) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return executed, &StatementError{Script: script.Name, Statement: stmt, Err: err}
			}
			executed++
		}
	}
	return executed, nil
}

// Result is the outcome of one statement applied by Update.
type Result struct {
	Script    string
	Statement string
	Err       error
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Summary tallies an Update run.
type Summary struct {
	Applied int
	Failed  int
	Results []Result
}

// Update applies every statement in its own transaction. A failing statement
// is rolled back and processing continues with the next one. report, when not
// nil, is called after each statement.
func Update(ctx context.Context, db TxBeginner, scripts []loader.Script, report func(Result)) Summary {
	var summary Summary
	for _, script := range scripts {
		for _, stmt := range SplitStatements(script.Source) {
			res := Result{Script: script.Name, Statement: stmt, Err: applyStatement(ctx, db, stmt)}
			if res.OK() {
				summary.Applied++
			} else {
				summary.Failed++
			}
			summary.Results = append(summary.Results, res)
			if report != nil {
				report(res)
			}
		}
	}
	return summary
}

func applyStatement(ctx context.Context, db TxBeginner, stmt string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Preview writes the scripts in execution order with their statements,
// without touching a database. It returns the number of statements.
func Preview(w io.Writer, scripts []loader.Script) (int, error) {
	total := 0
	for _, script := range scripts {
		stmts := SplitStatements(script.Source)
		if _, err := fmt.Fprintf(w, "\n-- Script: %s (%s, %d statements) --\n", script.Name, script.Category, len(stmts)); err != nil {
			return total, err
		}
		for _, stmt := range stmts {
			if _, err := fmt.Fprintln(w, stmt); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

// FirstLine returns the first line of a statement, for console reports.
func FirstLine(stmt string) string {
	line, _, _ := strings.Cut(stmt, "\n")
	return strings.TrimSpace(line)
}
