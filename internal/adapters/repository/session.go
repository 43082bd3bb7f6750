package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/canon/pkg/metrics"
)

type sqlSession struct {
	conn  *sql.Conn
	store *SQLStore
}

func (s *sqlSession) Close() error {
	return s.conn.Close()
}

func (s *sqlSession) query(ctx context.Context, op, q string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, s.store.dialect.rebind(q), args...)
	s.store.queries.Add(1)
	metrics.RecordStoreQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		return nil, s.fail(op, err)
	}
	return rows, nil
}

func (s *sqlSession) fail(op string, err error) error {
	metrics.RecordStoreError(op)
	metrics.RecordErrorByComponent("store", op)
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrQuery, err)
}

func (s *sqlSession) AliasMatches(ctx context.Context, e Entity, keys []string, f Filter) (Matches, error) {
	t, err := tableFor(e)
	if err != nil {
		return nil, err
	}
	out := Matches{}
	if len(keys) == 0 {
		return out, nil
	}

	q, extra := t.aliasQuery(len(keys), f)
	rows, err := s.query(ctx, "alias_matches", q, append(stringArgs(keys), extra...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			alias string
			id    int64
		)
		if err := rows.Scan(&alias, &id); err != nil {
			return nil, s.fail("alias_matches", err)
		}
		out.add(alias, id)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("alias_matches", err)
	}
	return out, nil
}

func (s *sqlSession) ExactMatches(ctx context.Context, e Entity, keys []string, f Filter) (Matches, error) {
	t, err := tableFor(e)
	if err != nil {
		return nil, err
	}
	out := Matches{}
	if len(keys) == 0 {
		return out, nil
	}
	wanted := keySet(keys)

	q, cols, args := t.exactQuery(keys, f)
	rows, err := s.query(ctx, "exact_matches", q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		id, values, err := scanIDAndStrings(rows, len(cols))
		if err != nil {
			return nil, s.fail("exact_matches", err)
		}
		for _, v := range values {
			if _, ok := wanted[v]; ok {
				out.add(v, id)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("exact_matches", err)
	}
	return out, nil
}

func (s *sqlSession) PrefixMatches(ctx context.Context, e Entity, keys []string, f Filter) (Matches, error) {
	t, err := tableFor(e)
	if err != nil {
		return nil, err
	}
	out := Matches{}
	if len(keys) == 0 {
		return out, nil
	}

	q, args := t.prefixQuery(keys, f)
	rows, err := s.query(ctx, "prefix_matches", q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	np := len(t.prefix)
	for rows.Next() {
		id, values, err := scanIDAndStrings(rows, np+len(t.equal))
		if err != nil {
			return nil, s.fail("prefix_matches", err)
		}
		for _, k := range keys {
			if prefixHit(values[:np], values[np:], k) {
				out.add(k, id)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("prefix_matches", err)
	}
	return out, nil
}

func prefixHit(prefixCols, equalCols []string, key string) bool {
	for _, v := range prefixCols {
		if v != "" && strings.HasPrefix(v, key) {
			return true
		}
	}
	for _, v := range equalCols {
		if v != "" && v == key {
			return true
		}
	}
	return false
}

func keySet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func scanIDAndStrings(rows *sql.Rows, n int) (int64, []string, error) {
	var id int64
	values := make([]string, n)
	dest := make([]any, 0, n+1)
	dest = append(dest, &id)
	for i := range values {
		dest = append(dest, &values[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return 0, nil, err
	}
	return id, values, nil
}
