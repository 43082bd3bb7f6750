package repository

import (
	"fmt"
	"strings"
)

// entityTable describes how an Entity is matched. Column names are bare and
// qualified with the "x" alias when queries are built.
type entityTable struct {
	table      string
	aliasTable string
	aliasFK    string
	exact      []string
	nickname   string
	prefix     []string
	equal      []string
}

var entityTables = map[Entity]entityTable{
	EntityTeam: {
		table:      "teams",
		aliasTable: "team_aliases",
		aliasFK:    "team_id",
		exact:      []string{"name", "abbreviation"},
		nickname:   "nickname",
		prefix:     []string{"name", "nickname"},
		equal:      []string{"abbreviation"},
	},
	EntityPlayer: {
		table:      "players",
		aliasTable: "player_aliases",
		aliasFK:    "player_id",
		exact:      []string{"name"},
		prefix:     []string{"name", "first_name", "last_name"},
	},
	EntityLeague: {
		table:      "leagues",
		aliasTable: "league_aliases",
		aliasFK:    "league_id",
		exact:      []string{"name"},
		prefix:     []string{"name"},
	},
}

func tableFor(e Entity) (entityTable, error) {
	t, ok := entityTables[e]
	if !ok {
		return entityTable{}, fmt.Errorf("%w: %q", ErrUnknownEntity, e)
	}
	return t, nil
}

func (t entityTable) exactColumns(f Filter) []string {
	cols := append([]string(nil), t.exact...)
	if f.Nicknames && t.nickname != "" {
		cols = append(cols, t.nickname)
	}
	return cols
}

// sportClause joins sports for the x alias and returns the join, the
// predicate and its args.
func sportClause(f Filter) (join, where string, args []any) {
	if f.Sport == "" {
		return "", "", nil
	}
	return " LEFT JOIN sports s ON s.id = x.sport_id", " AND LOWER(s.name) = ?", []any{strings.ToLower(f.Sport)}
}

func (t entityTable) aliasQuery(n int, f Filter) (string, []any) {
	q := fmt.Sprintf("SELECT LOWER(a.alias), a.%s FROM %s a", t.aliasFK, t.aliasTable)
	var extra []any
	if f.Sport != "" {
		q += fmt.Sprintf(" JOIN %s x ON x.id = a.%s", t.table, t.aliasFK)
		join, where, args := sportClause(f)
		q += join + " WHERE LOWER(a.alias) IN (" + placeholders(n) + ")" + where
		extra = args
	} else {
		q += " WHERE LOWER(a.alias) IN (" + placeholders(n) + ")"
	}
	return q, extra
}

func (t entityTable) exactQuery(keys []string, f Filter) (string, []string, []any) {
	cols := t.exactColumns(f)
	selects := make([]string, len(cols))
	preds := make([]string, len(cols))
	args := make([]any, 0, len(cols)*len(keys)+1)
	for i, c := range cols {
		selects[i] = fmt.Sprintf("LOWER(COALESCE(x.%s, ''))", c)
		preds[i] = fmt.Sprintf("LOWER(x.%s) IN (%s)", c, placeholders(len(keys)))
		args = append(args, stringArgs(keys)...)
	}
	join, where, sportArgs := sportClause(f)
	q := fmt.Sprintf("SELECT x.id, %s FROM %s x%s WHERE (%s)%s",
		strings.Join(selects, ", "), t.table, join, strings.Join(preds, " OR "), where)
	return q, cols, append(args, sportArgs...)
}

func (t entityTable) prefixQuery(keys []string, f Filter) (string, []any) {
	cols := append(append([]string(nil), t.prefix...), t.equal...)
	selects := make([]string, len(cols))
	for i, c := range cols {
		selects[i] = fmt.Sprintf("LOWER(COALESCE(x.%s, ''))", c)
	}

	perKey := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)*len(cols)+1)
	for _, k := range keys {
		parts := make([]string, 0, len(cols))
		for _, c := range t.prefix {
			parts = append(parts, fmt.Sprintf(`LOWER(x.%s) LIKE ? ESCAPE '\'`, c))
			args = append(args, escapeLike(k)+"%")
		}
		for _, c := range t.equal {
			parts = append(parts, fmt.Sprintf("LOWER(x.%s) = ?", c))
			args = append(args, k)
		}
		perKey = append(perKey, "("+strings.Join(parts, " OR ")+")")
	}

	join, where, sportArgs := sportClause(f)
	q := fmt.Sprintf("SELECT x.id, %s FROM %s x%s WHERE (%s)%s",
		strings.Join(selects, ", "), t.table, join, strings.Join(perKey, " OR "), where)
	return q, append(args, sportArgs...)
}
