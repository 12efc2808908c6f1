package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/adseawright/flight-price-backend/models"
	"github.com/jmoiron/sqlx"
)

// Filter is one equality condition on a flight_routes column.
type Filter struct {
	Column string
	Value  interface{}
}

// Session is a single connection held for the duration of one request.
// Callers must Close it; Close returns the connection to the pool.
type Session struct {
	conn *sqlx.Conn
}

// Acquire takes a connection from the pool for request-scoped reads.
func (s *Store) Acquire(ctx context.Context) (*Session, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lookup store connection: %w", err)
	}
	return &Session{conn: conn}, nil
}

// Close releases the connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// LookupID returns the surrogate id of name in dim. ok is false when the name
// does not exist.
func (s *Session) LookupID(ctx context.Context, dim models.Dimension, name string) (id int64, ok bool, err error) {
	if !dimensionTables[dim.Table] {
		return 0, false, fmt.Errorf("unknown dimension table %q", dim.Table)
	}
	err = s.conn.GetContext(ctx, &id, "SELECT id FROM "+dim.Table+" WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up %s %q: %w", dim.Name, name, err)
	}
	return id, true, nil
}

// DistinctNames returns the distinct names of dim referenced by column across
// the routes matching filters, ordered by name.
func (s *Session) DistinctNames(ctx context.Context, column string, dim models.Dimension, filters []Filter) ([]string, error) {
	if !routeColumns[column] || !dimensionTables[dim.Table] {
		return nil, fmt.Errorf("invalid distinct target %s -> %s", column, dim.Table)
	}
	where, args, err := buildWhere(filters)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT DISTINCT d.name
		FROM flight_routes fr
		JOIN %s d ON fr.%s = d.id%s
		ORDER BY d.name ASC`, dim.Table, column, where)

	names := []string{}
	if err := s.conn.SelectContext(ctx, &names, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", dim.Table, err)
	}
	return names, nil
}

// DistinctInts returns the distinct values of an integer column across the
// routes matching filters, in ascending order.
func (s *Session) DistinctInts(ctx context.Context, column string, filters []Filter) ([]int64, error) {
	if !routeColumns[column] {
		return nil, fmt.Errorf("invalid distinct target %s", column)
	}
	where, args, err := buildWhere(filters)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT DISTINCT fr.%[1]s
		FROM flight_routes fr%[2]s
		ORDER BY fr.%[1]s ASC`, column, where)

	values := []int64{}
	if err := s.conn.SelectContext(ctx, &values, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", column, err)
	}
	return values, nil
}

func buildWhere(filters []Filter) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]interface{}, 0, len(filters))
	for _, f := range filters {
		if !routeColumns[f.Column] {
			return "", nil, fmt.Errorf("invalid filter column %q", f.Column)
		}
		conds = append(conds, "fr."+f.Column+" = ?")
		args = append(args, f.Value)
	}
	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args, nil
}
