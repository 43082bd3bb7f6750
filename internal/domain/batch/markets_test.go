package batch

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/canon/internal/adapters/repository"
	"github.com/okian/canon/internal/domain/model"
)

func TestMarketIndex(t *testing.T) {
	Convey("Given a market index", t, func() {
		idx := newMarketIndex(
			[]model.Market{
				{ID: 1, Name: "RushYards", MarketTypeID: 10},
				{ID: 2, Name: "Receiving Yards"},
				{ID: 3, Name: "Rushing Attempts"},
				{ID: 4, Name: "Total Points"},
				{ID: 6, Name: "Rushing Attempts Over"},
			},
			[]repository.MarketAlias{
				{Alias: "Rec Yds", MarketID: 2},
				{Alias: "rush_yards", MarketID: 1},
				{Alias: "orphan", MarketID: 99},
			},
		)

		Convey("Then lookups follow alias, name, prefix and expansion", func() {
			cases := []struct {
				key string
				id  int64
			}{
				{"rush yards", 1},
				{"rec yds", 2},
				{"total_points", 4},
				{"rushing", 3},
				{"rush att", 3},
				{"receiving", 2},
			}
			for _, tc := range cases {
				m, ok := idx.lookup(tc.key)
				So(ok, ShouldBeTrue)
				So(m.ID, ShouldEqual, tc.id)
			}
		})

		Convey("Then unknown keys and dangling aliases miss", func() {
			_, ok := idx.lookup("xyz")
			So(ok, ShouldBeFalse)
			_, ok = idx.lookup("orphan")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestChunk(t *testing.T) {
	Convey("Given keys to chunk", t, func() {
		keys := []string{"a", "b", "c", "d", "e"}

		Convey("Then chunks respect the size", func() {
			So(chunk(keys, 2), ShouldResemble, [][]string{{"a", "b"}, {"c", "d"}, {"e"}})
			So(chunk(keys, 0), ShouldResemble, [][]string{keys})
			So(chunk(nil, 3), ShouldBeNil)
		})
	})
}
