package repository

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDialect(t *testing.T) {
	Convey("Given the supported dialects", t, func() {
		Convey("When rebinding for PostgreSQL", func() {
			d, err := dialectFor("postgres")
			So(err, ShouldBeNil)

			Convey("Then placeholders become numbered", func() {
				So(d.rebind("SELECT 1 WHERE a IN (?, ?) AND b = ?"), ShouldEqual, "SELECT 1 WHERE a IN ($1, $2) AND b = $3")
			})
		})

		Convey("When rebinding for SQLite", func() {
			d, err := dialectFor("sqlite")
			So(err, ShouldBeNil)

			Convey("Then the query is unchanged", func() {
				So(d.rebind("a = ?"), ShouldEqual, "a = ?")
			})
		})

		Convey("When the driver is unknown", func() {
			_, err := dialectFor("oracle")

			Convey("Then ErrUnsupportedDriver is returned", func() {
				So(errors.Is(err, ErrUnsupportedDriver), ShouldBeTrue)
			})
		})
	})
}

func TestHelpers(t *testing.T) {
	Convey("Given the SQL helpers", t, func() {
		Convey("Then placeholders repeats markers", func() {
			So(placeholders(3), ShouldEqual, "?, ?, ?")
			So(placeholders(0), ShouldEqual, "")
		})

		Convey("Then LIKE wildcards are escaped", func() {
			So(escapeLike(`50%_off\`), ShouldEqual, `50\%\_off\\`)
		})

		Convey("Then chunk splits evenly with a remainder", func() {
			parts := chunk([]int64{1, 2, 3, 4, 5}, 2)
			So(parts, ShouldResemble, [][]int64{{1, 2}, {3, 4}, {5}})
			So(chunk([]int64{}, 2), ShouldBeNil)
			So(chunk([]int64{1}, 0), ShouldResemble, [][]int64{{1}})
		})

		Convey("Then the SQLite DSN carries the pragmas", func() {
			dsn := SQLiteDSN("/tmp/x.db")
			So(dsn, ShouldStartWith, "/tmp/x.db?_pragma=journal_mode(WAL)")
			So(dsn, ShouldContainSubstring, "&_pragma=cache_size(-10000)")
			So(dsn, ShouldContainSubstring, "&_pragma=temp_store(MEMORY)")
			So(SQLiteDSN("file:x.db?mode=ro"), ShouldStartWith, "file:x.db?mode=ro&_pragma=")
		})

		Convey("Then Matches merges and unions without duplicates", func() {
			m := Matches{"a": {1, 2}}
			m.Merge(Matches{"a": {2, 3}, "b": {1}})
			So(m["a"], ShouldResemble, []int64{1, 2, 3})
			So(m.IDs([]string{"b", "a"}), ShouldResemble, []int64{1, 2, 3})
		})

		Convey("Then prefix hits check prefix and equality columns", func() {
			So(prefixHit([]string{"los angeles lakers", "lakers"}, []string{"lal"}, "lak"), ShouldBeTrue)
			So(prefixHit([]string{"los angeles lakers", ""}, []string{"lal"}, "lal"), ShouldBeTrue)
			So(prefixHit([]string{"", ""}, []string{""}, "x"), ShouldBeFalse)
		})
	})
}
