package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/iontrap/internal/ir"
)

// Predicate filters rows of the runs table. Only types in this package
// implement it, so compile can switch exhaustively.
type Predicate interface {
	predicateNode()
}

// Equals matches rows whose column equals a literal value.
type Equals struct {
	Column string
	Value  any // string, int or int64
}

func (Equals) predicateNode() {}

// And matches rows that satisfy every predicate. An empty And matches all.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// RunQuery selects runs from the log.
//
// Results are always in seq ASC, id COLLATE BINARY ASC order. A positive
// Limit keeps the most recent matching runs, still in ascending order.
type RunQuery struct {
	Filter Predicate
	Limit  int
}

// filterColumns are the runs columns a Predicate may name. Column names are
// interpolated into SQL, so nothing else is accepted.
var filterColumns = map[string]bool{
	"id":           true,
	"flow_token":   true,
	"program":      true,
	"program_hash": true,
	"plan_hash":    true,
	"status":       true,
	"error_code":   true,
}

// QueryRuns runs q against the log.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryRuns(ctx context.Context, q RunQuery) ([]ir.Run, error) {
	query, params, err := compileRunQuery(q)
	if err != nil {
		return nil, err
	}
	return s.queryRuns(ctx, query, params...)
}

// compileRunQuery turns q into parameterized SQL. Values are never
// interpolated.
func compileRunQuery(q RunQuery) (string, []any, error) {
	var where string
	var params []any
	if q.Filter != nil {
		sql, p, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where = " WHERE " + sql
		params = p
	}

	base := `SELECT ` + runColumns + ` FROM runs` + where
	if q.Limit <= 0 {
		return base + ` ORDER BY seq ASC, id COLLATE BINARY ASC`, params, nil
	}
	query := `SELECT * FROM (` + base + `
		ORDER BY seq DESC, id COLLATE BINARY DESC LIMIT ?)
		ORDER BY seq ASC, id COLLATE BINARY ASC`
	return query, append(params, q.Limit), nil
}

func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case Equals:
		return compileEquals(pred)
	case *Equals:
		return compileEquals(*pred)
	case And:
		return compileAnd(pred)
	case *And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq Equals) (string, []any, error) {
	if !filterColumns[eq.Column] {
		return "", nil, fmt.Errorf("unknown column %q", eq.Column)
	}
	switch v := eq.Value.(type) {
	case string, int64:
		return eq.Column + " = ?", []any{v}, nil
	case int:
		return eq.Column + " = ?", []any{int64(v)}, nil
	case nil:
		return "", nil, fmt.Errorf("column %s compared to NULL", eq.Column)
	default:
		return "", nil, fmt.Errorf("unsupported value type for %s: %T", eq.Column, eq.Value)
	}
}

func compileAnd(and And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}
	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, p, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return strings.Join(parts, " AND "), params, nil
}
