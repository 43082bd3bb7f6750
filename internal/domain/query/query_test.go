package query

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCanonicalize(t *testing.T) {
	Convey("Given raw names", t, func() {
		inputs := []string{"  Lakers ", "LAKERS", "lakers", "\tLos Angeles Lakers\n", "", "   "}

		Convey("Then canonicalization lower-cases and trims", func() {
			So(Canonicalize("  Lakers "), ShouldEqual, "lakers")
			So(Canonicalize("LAKERS"), ShouldEqual, "lakers")
			So(Canonicalize("   "), ShouldEqual, "")
		})

		Convey("Then canonicalization is idempotent", func() {
			for _, in := range inputs {
				once := Canonicalize(in)
				So(Canonicalize(once), ShouldEqual, once)
			}
		})
	})
}

func TestMarketNormalization(t *testing.T) {
	Convey("Given market spellings", t, func() {
		Convey("Then stripping removes spaces and underscores", func() {
			So(StripMarket("Rush Yards"), ShouldEqual, "rushyards")
			So(StripMarket("rush_yards"), ShouldEqual, "rushyards")
			So(StripMarket("RushYards"), ShouldEqual, "rushyards")
			So(StripMarket(" Total_Points "), ShouldEqual, "totalpoints")
		})

		Convey("Then abbreviations expand in order", func() {
			So(ExpandTerms("rush yds"), ShouldEqual, "rushing yards")
			So(ExpandTerms("Rush Yds Att"), ShouldEqual, "rushing yards attempts")
			So(ExpandTerms("rec tds"), ShouldEqual, "receiving touchdowns")
			So(ExpandTerms("1h total"), ShouldEqual, "1st half total")
			So(ExpandTerms("fg made"), ShouldEqual, "field goal made")
			So(ExpandTerms("total"), ShouldEqual, "total")
		})
	})
}

func TestPrefixEligible(t *testing.T) {
	Convey("Given canonical keys of different lengths", t, func() {
		Convey("Then keys of two characters or fewer never prefix match", func() {
			So(PrefixEligible(""), ShouldBeFalse)
			So(PrefixEligible("la"), ShouldBeFalse)
			So(PrefixEligible("lak"), ShouldBeTrue)
		})
	})
}

func TestFromParams(t *testing.T) {
	Convey("Given lookup parameters", t, func() {
		Convey("When team and player are both present", func() {
			q, err := FromParams(Params{Team: "Lakers", Player: " LeBron James", Sport: "Basketball", Market: "points"})

			Convey("Then the combined variant is chosen", func() {
				So(err, ShouldBeNil)
				So(q, ShouldResemble, TeamPlayerQuery{Team: "lakers", Player: "lebron james", Sport: "basketball"})
				So(q.Category(), ShouldEqual, CategoryTeamPlayer)
			})
		})

		Convey("When team, league and market are present", func() {
			q, err := FromParams(Params{Team: "Lakers", League: "NBA", Market: "points", Sport: "basketball"})

			Convey("Then team wins and its params drop the other fields", func() {
				So(err, ShouldBeNil)
				So(q, ShouldResemble, TeamQuery{Name: "lakers", Sport: "basketball"})
				So(q.Params(), ShouldResemble, Params{Team: "lakers", Sport: "basketball"})
			})
		})

		Convey("When player and league are present", func() {
			q, err := FromParams(Params{Player: "LeBron", League: "NBA", Sport: "basketball"})

			Convey("Then player wins and sport is not part of its params", func() {
				So(err, ShouldBeNil)
				So(q, ShouldResemble, PlayerQuery{Name: "lebron"})
				So(q.Params(), ShouldResemble, Params{Player: "lebron"})
			})
		})

		Convey("When league and market are present", func() {
			q, err := FromParams(Params{League: "Premier League", Market: "goals", Sport: "Soccer"})

			Convey("Then league wins", func() {
				So(err, ShouldBeNil)
				So(q, ShouldResemble, LeagueQuery{Name: "premier league", Sport: "soccer"})
			})
		})

		Convey("When only a market is present", func() {
			q, err := FromParams(Params{Market: "Rush Yards"})

			Convey("Then the market variant is chosen", func() {
				So(err, ShouldBeNil)
				So(q, ShouldResemble, MarketQuery{Name: "rush yards"})
				So(q.Key(), ShouldEqual, "rush yards")
			})
		})

		Convey("When only sport or blanks are present", func() {
			_, err := FromParams(Params{Sport: "basketball", Team: "   "})

			Convey("Then ErrEmptyQuery is returned", func() {
				So(errors.Is(err, ErrEmptyQuery), ShouldBeTrue)
				So(Params{Sport: "x"}.IsEmpty(), ShouldBeTrue)
			})
		})
	})
}

func TestParseCategory(t *testing.T) {
	Convey("Given category names", t, func() {
		Convey("Then known names parse case-insensitively", func() {
			c, ok := ParseCategory(" Team ")
			So(ok, ShouldBeTrue)
			So(c, ShouldEqual, CategoryTeam)

			_, ok = ParseCategory("venue")
			So(ok, ShouldBeFalse)
		})
	})
}
