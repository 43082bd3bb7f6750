package repository

import (
	"context"
	"database/sql"

	"github.com/okian/canon/internal/domain/model"
)

// strippedExpr mirrors query.StripMarket in SQL.
func strippedExpr(col string) string {
	return "LOWER(REPLACE(REPLACE(" + col + ", ' ', ''), '_', ''))"
}

func (s *sqlSession) MarketByAlias(ctx context.Context, stripped string) (model.Market, bool, error) {
	q := `SELECT m.id, m.name, m.market_type_id
		FROM market_aliases a
		JOIN markets m ON m.id = a.market_id
		WHERE ` + strippedExpr("a.alias") + ` = ?
		ORDER BY a.market_id
		LIMIT 1`
	return s.oneMarket(ctx, "market_by_alias", q, stripped)
}

func (s *sqlSession) MarketByName(ctx context.Context, stripped string) (model.Market, bool, error) {
	q := `SELECT m.id, m.name, m.market_type_id
		FROM markets m
		WHERE ` + strippedExpr("m.name") + ` = ?
		ORDER BY m.id
		LIMIT 1`
	return s.oneMarket(ctx, "market_by_name", q, stripped)
}

// MarketByPrefix returns the shortest market name starting with prefix.
func (s *sqlSession) MarketByPrefix(ctx context.Context, prefix string) (model.Market, bool, error) {
	q := `SELECT m.id, m.name, m.market_type_id
		FROM markets m
		WHERE LOWER(m.name) LIKE ? ESCAPE '\'
		ORDER BY LENGTH(m.name), m.id
		LIMIT 1`
	return s.oneMarket(ctx, "market_by_prefix", q, escapeLike(prefix)+"%")
}

func (s *sqlSession) oneMarket(ctx context.Context, op, q string, arg any) (model.Market, bool, error) {
	rows, err := s.query(ctx, op, q, arg)
	if err != nil {
		return model.Market{}, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.Market{}, false, s.fail(op, err)
		}
		return model.Market{}, false, nil
	}
	m, err := scanMarket(rows)
	if err != nil {
		return model.Market{}, false, s.fail(op, err)
	}
	return m, true, nil
}

func scanMarket(rows *sql.Rows) (model.Market, error) {
	var (
		m          model.Market
		marketType sql.NullInt64
	)
	if err := rows.Scan(&m.ID, &m.Name, &marketType); err != nil {
		return m, err
	}
	m.MarketTypeID = marketType.Int64
	return m, nil
}

func (s *sqlSession) MarketSports(ctx context.Context, ids []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(ids))
	for _, part := range chunk(ids, s.store.maxParams) {
		q := `SELECT ms.market_id, s.name
			FROM market_sports ms
			JOIN sports s ON s.id = ms.sport_id
			WHERE ms.market_id IN (` + placeholders(len(part)) + `)
			ORDER BY ms.market_id, LOWER(s.name)`
		rows, err := s.query(ctx, "market_sports", q, int64Args(part)...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var (
				id    int64
				sport string
			)
			if err := rows.Scan(&id, &sport); err != nil {
				rows.Close()
				return nil, s.fail("market_sports", err)
			}
			out[id] = append(out[id], sport)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, s.fail("market_sports", err)
		}
	}
	return out, nil
}

func (s *sqlSession) Markets(ctx context.Context) ([]model.Market, error) {
	rows, err := s.query(ctx, "markets", `SELECT m.id, m.name, m.market_type_id FROM markets m ORDER BY m.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markets []model.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, s.fail("markets", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("markets", err)
	}
	return markets, nil
}

func (s *sqlSession) MarketAliases(ctx context.Context) ([]MarketAlias, error) {
	rows, err := s.query(ctx, "market_aliases", `SELECT a.alias, a.market_id FROM market_aliases a ORDER BY a.market_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aliases []MarketAlias
	for rows.Next() {
		var a MarketAlias
		if err := rows.Scan(&a.Alias, &a.MarketID); err != nil {
			return nil, s.fail("market_aliases", err)
		}
		aliases = append(aliases, a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("market_aliases", err)
	}
	return aliases, nil
}
