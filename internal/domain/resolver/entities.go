package resolver

import (
	"context"

	"github.com/okian/canon/internal/adapters/repository"
	"github.com/okian/canon/internal/domain/model"
	"github.com/okian/canon/internal/domain/query"
	"github.com/okian/canon/internal/domain/ranking"
)

func (r *Resolver) team(ctx context.Context, sess repository.Session, q query.TeamQuery) (model.Result, error) {
	key := q.Key()
	f := repository.Filter{Sport: q.Sport, Nicknames: true}
	ids, err := Match(ctx, sess, repository.EntityTeam, key, f)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	teams, err := sess.Teams(ctx, ids, f)
	if err != nil {
		return nil, err
	}
	return r.TeamResult(key, teams), nil
}

func (r *Resolver) player(ctx context.Context, sess repository.Session, q query.PlayerQuery) (model.Result, error) {
	key := q.Key()
	ids, err := Match(ctx, sess, repository.EntityPlayer, key, repository.Filter{})
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	players, err := sess.Players(ctx, ids, repository.Filter{})
	if err != nil {
		return nil, err
	}
	return r.PlayerResult(key, players), nil
}

// teamPlayer keeps the players matching the player key that belong to one of
// the teams matching the team key. Sport scopes the team side; players follow
// their team.
func (r *Resolver) teamPlayer(ctx context.Context, sess repository.Session, q query.TeamPlayerQuery) (model.Result, error) {
	teamIDs, err := Match(ctx, sess, repository.EntityTeam, query.Canonicalize(q.Team), repository.Filter{Sport: q.Sport, Nicknames: true})
	if err != nil || len(teamIDs) == 0 {
		return nil, err
	}
	key := q.Key()
	playerIDs, err := Match(ctx, sess, repository.EntityPlayer, key, repository.Filter{})
	if err != nil || len(playerIDs) == 0 {
		return nil, err
	}
	players, err := sess.Players(ctx, playerIDs, repository.Filter{TeamIDs: teamIDs})
	if err != nil {
		return nil, err
	}

	res := r.PlayerResult(key, players)
	if pr, ok := res.(*model.PlayerResult); ok {
		pr.Team = query.Canonicalize(q.Team)
		pr.Sport = query.Canonicalize(q.Sport)
	}
	return res, nil
}

func (r *Resolver) league(ctx context.Context, sess repository.Session, q query.LeagueQuery) (model.Result, error) {
	key := q.Key()
	f := repository.Filter{Sport: q.Sport}
	ids, err := Match(ctx, sess, repository.EntityLeague, key, f)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	leagues, err := sess.Leagues(ctx, ids, f)
	if err != nil {
		return nil, err
	}
	return r.LeagueResult(key, leagues), nil
}

// market tries the stripped alias, the stripped name, a prefix of the raw
// key and finally a prefix of the key with abbreviations expanded.
func (r *Resolver) market(ctx context.Context, sess repository.Session, q query.MarketQuery) (model.Result, error) {
	key := q.Key()
	stripped := query.StripMarket(key)

	steps := []func() (model.Market, bool, error){
		func() (model.Market, bool, error) { return sess.MarketByAlias(ctx, stripped) },
		func() (model.Market, bool, error) { return sess.MarketByName(ctx, stripped) },
		func() (model.Market, bool, error) { return sess.MarketByPrefix(ctx, key) },
	}
	if expanded := query.ExpandTerms(key); expanded != key {
		steps = append(steps, func() (model.Market, bool, error) { return sess.MarketByPrefix(ctx, expanded) })
	}

	for _, step := range steps {
		m, ok, err := step()
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		sports, err := sess.MarketSports(ctx, []int64{m.ID})
		if err != nil {
			return nil, err
		}
		return model.NewMarketResult(key, m, sports[m.ID]), nil
	}
	return nil, nil
}

// TeamResult orders teams and wraps them; nil when there are none.
func (r *Resolver) TeamResult(key string, teams []model.TeamView) model.Result {
	if len(teams) == 0 {
		return nil
	}
	out := append([]model.TeamView(nil), teams...)
	ranking.Sort(r.ranker, out,
		func(t model.TeamView) string { return ranking.Label(t.League, t.LeagueRegion) },
		func(t model.TeamView) string { return t.NormalizedName })
	return model.NewTeamResult(key, out)
}

// PlayerResult orders players and wraps them; nil when there are none.
func (r *Resolver) PlayerResult(key string, players []model.PlayerView) model.Result {
	if len(players) == 0 {
		return nil
	}
	out := append([]model.PlayerView(nil), players...)
	ranking.Sort(r.ranker, out,
		func(p model.PlayerView) string { return ranking.Label(p.League, p.LeagueRegion) },
		func(p model.PlayerView) string { return p.NormalizedName })
	return model.NewPlayerResult(key, out)
}

// LeagueResult orders leagues and wraps them; nil when there are none.
func (r *Resolver) LeagueResult(key string, leagues []model.LeagueView) model.Result {
	if len(leagues) == 0 {
		return nil
	}
	out := append([]model.LeagueView(nil), leagues...)
	ranking.Sort(r.ranker, out,
		func(l model.LeagueView) string { return ranking.Label(l.NormalizedName, l.Region) },
		func(l model.LeagueView) string { return l.NormalizedName })
	return model.NewLeagueResult(key, out)
}
